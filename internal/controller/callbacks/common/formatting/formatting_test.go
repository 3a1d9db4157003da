package formatting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeLessons(t *testing.T) {
	cases := map[int]string{
		1:   "пара",
		2:   "пары",
		4:   "пары",
		5:   "пар",
		11:  "пар",
		12:  "пар",
		21:  "пара",
		22:  "пары",
		111: "пар",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeLessons(n), "count %d", n)
	}
	assert.Equal(t, "минут", PluralizeMinutes(60))
	assert.Equal(t, "получателя", PluralizeRecipients(3))
}

func TestFormatting_Dates(t *testing.T) {
	d := time.Date(2025, 10, 15, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "15.10.2025", FormatDate(d))
	assert.Equal(t, "15.10", FormatDayMonth(d))
	assert.Equal(t, "Ср", WeekdayShort(d.Weekday()))
	assert.Equal(t, "Октябрь", MonthName(d.Month()))
}
