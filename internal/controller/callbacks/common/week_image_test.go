package common

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

func sampleWeek() []service.DayLessons {
	monday := time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)
	days := make([]service.DayLessons, 7)
	for i := range days {
		days[i].Date = monday.AddDate(0, 0, i)
	}
	days[0].Lessons = []model.Lesson{
		{Subject: "Математический анализ и линейная алгебра", Type: "Лекция", Rooms: model.StringList{"Пр2402"}, Pair: 1},
		{Subject: "Программирование", Link: "https://meet.example.com/abc", Rooms: model.StringList{"Webinar"}, Pair: 3},
	}
	days[2].Lessons = []model.Lesson{
		{Subject: "Физика", Location: "Автозаводская", Pair: 6},
	}
	return days
}

func TestGenerateWeekImage(t *testing.T) {
	now := time.Date(2025, 10, 15, 11, 0, 0, 0, time.UTC)

	data, err := GenerateWeekImage("241-362", sampleWeek(), service.ScheduleTypeDefault, now)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestGenerateWeekImage_EmptyWeek(t *testing.T) {
	data, err := GenerateWeekImage("241-362", nil, service.ScheduleTypeDefault, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestCalculateHourRange(t *testing.T) {
	blocks := groupBlocksByDay(sampleWeek(), service.ScheduleTypeDefault)

	hours := calculateHourRange(blocks)
	assert.Equal(t, 8, hours.start)
	assert.Equal(t, 21, hours.end)
	assert.Equal(t, 14, hours.total)

	empty := calculateHourRange(nil)
	assert.Equal(t, defaultMinHour-hourPaddingTop, empty.start)
}

func TestBlockLines(t *testing.T) {
	lines := blockLines(model.Lesson{Subject: "Математический анализ и линейная алгебра", Rooms: model.StringList{"Пр2402"}})
	assert.Equal(t, []string{"Математический анализ", "и линейная алгебра", "Пр2402"}, lines)

	lines = blockLines(model.Lesson{Link: "https://meet.example.com/abc"})
	assert.Equal(t, []string{"Предмет не указан", "Онлайн"}, lines)
}

func TestWeekCaption(t *testing.T) {
	assert.Equal(t, "📅 241-362: 13.10 - 19.10, 3 пары", WeekCaption("241-362", sampleWeek()))
}
