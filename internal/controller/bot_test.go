package controller

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text   string
		name   string
		wantOK bool
	}{
		{"/day", "day", true},
		{"/day 241-362", "day", true},
		{"/DAY", "day", true},
		{"/day@poly_bot 241-362", "day", true},
		{"/day@Poly_Bot", "day", true},
		{"/day@other_bot", "", false},
		{"/", "", false},
		{"привет", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, ok := parseCommand(tt.text, "poly_bot")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestCommandMatcher(t *testing.T) {
	c := &BotController{botUsername: "poly_bot"}
	match := c.commandMatcher("week")

	assert.True(t, match(&models.Update{Message: &models.Message{Text: "/week"}}))
	assert.False(t, match(&models.Update{Message: &models.Message{Text: "/weekend"}}))
	assert.False(t, match(&models.Update{CallbackQuery: &models.CallbackQuery{Data: "/week"}}))
}

func TestIsDialogMessage(t *testing.T) {
	c := &BotController{}
	from := &models.User{ID: 1}

	assert.True(t, c.isDialogMessage(&models.Update{Message: &models.Message{Text: "241-362 241-361 90", From: from}}))
	assert.True(t, c.isDialogMessage(&models.Update{Message: &models.Message{Caption: "скрин", From: from}}))
	assert.False(t, c.isDialogMessage(&models.Update{Message: &models.Message{Text: "/cancel", From: from}}))
	assert.False(t, c.isDialogMessage(&models.Update{Message: &models.Message{Text: "текст"}}))
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "message", updateKind(&models.Update{Message: &models.Message{}}))
	assert.Equal(t, "callback_query", updateKind(&models.Update{CallbackQuery: &models.CallbackQuery{}}))
	assert.Equal(t, "other", updateKind(&models.Update{}))
}

func TestMenuCommandsAreRegistered(t *testing.T) {
	registered := (&BotController{}).commands()
	for _, cmd := range menuCommands {
		assert.Contains(t, registered, cmd.Command)
	}
}
