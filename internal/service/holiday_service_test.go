package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHoliday(t *testing.T) {
	h, err := ParseHoliday("241-362 29.12.2025 11.01.2026 Зимние каникулы", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "241-362", h.Group)
	assert.Equal(t, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), h.StartDate)
	assert.Equal(t, time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), h.EndDate)
	assert.Equal(t, "Зимние каникулы", h.Type)

	h, err = ParseHoliday("ALL 04.11.2025 04.11.2025 Праздник", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "all", h.Group)

	_, err = ParseHoliday("241-362 11.01.2026 29.12.2025 Каникулы", time.UTC)
	assert.ErrorIs(t, err, ErrPeriodReversed)

	_, err = ParseHoliday("241-362 2025-12-29 11.01.2026 Каникулы", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseHoliday("группа 29.12.2025 11.01.2026 Каникулы", time.UTC)
	assert.ErrorIs(t, err, ErrUnknownGroup)

	_, err = ParseHoliday("241-362 29.12.2025", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)
}
