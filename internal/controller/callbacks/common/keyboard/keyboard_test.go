package keyboard

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationButtons(t *testing.T) {
	assert.Nil(t, PaginationButtons("fb_pg:", 0, 1))

	first := PaginationButtons("fb_pg:", 0, 3)
	require.Len(t, first, 2)
	assert.Equal(t, "1/3", first[0].Text)
	assert.Equal(t, Noop, first[0].CallbackData)
	assert.Equal(t, "fb_pg:1", first[1].CallbackData)

	middle := PaginationButtons("fb_pg:", 1, 3)
	require.Len(t, middle, 3)
	assert.Equal(t, "fb_pg:0", middle[0].CallbackData)
	assert.Equal(t, "fb_pg:2", middle[2].CallbackData)

	last := PaginationButtons("fb_pg:", 2, 3)
	require.Len(t, last, 2)
	assert.Equal(t, "⏮", last[0].Text)
}

func TestBuilder_Grid(t *testing.T) {
	markup := NewBuilder().
		Grid([]models.InlineKeyboardButton{
			Button("#1", "ask_view_1"),
			Button("#2", "ask_view_2"),
			Button("#3", "ask_view_3"),
		}, 2).
		Row().
		Build()

	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "ask_view_3", markup.InlineKeyboard[1][0].CallbackData)

	assert.NotNil(t, NewBuilder().Build().InlineKeyboard)
}
