package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

func TestBuildSettingsScreen(t *testing.T) {
	notifyTime := "08:00"
	subgroup := 2
	text, kb := BuildSettingsScreen(&model.NotifySettings{
		Group:            "241-362",
		DailyNotify:      true,
		NotificationTime: &notifyTime,
		Subgroup:         &subgroup,
	})

	assert.Equal(t, "⚙️ Настройки уведомлений\n\nЕжедневные: ✅ Вкл\nВремя: 08:00\nОнлайн-пары: ❌ Выкл\nПодгруппа: 2\n", text)
	require.Len(t, kb.InlineKeyboard, 5)
	assert.Equal(t, SettingsChangeSubgroup, kb.InlineKeyboard[3][0].CallbackData)
	assert.Equal(t, SettingsClose, kb.InlineKeyboard[4][0].CallbackData)
}

func TestBuildSettingsScreen_ChatHasNoSubgroups(t *testing.T) {
	text, kb := BuildSettingsScreen(&model.NotifySettings{IsChat: true, Group: "241-362", NotifyOnline: true})

	assert.Equal(t, "⚙️ Настройки уведомлений\n\nЕжедневные: ❌ Выкл\nОнлайн-пары: ✅ Вкл\n", text)
	require.Len(t, kb.InlineKeyboard, 4)
	for _, row := range kb.InlineKeyboard {
		assert.NotEqual(t, SettingsChangeSubgroup, row[0].CallbackData)
	}
}

func TestBuildFeedbackListScreen(t *testing.T) {
	page := &service.FeedbackPage{Total: 12, Page: 0, Pages: 2}
	for i := int64(1); i <= 10; i++ {
		page.Items = append(page.Items, &model.FeedbackMessage{ID: i})
	}

	text, kb := BuildFeedbackListScreen(page)
	assert.Equal(t, "Непрочитанные фидбеки: 12\nСтраница 1 из 2", text)
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, "ask_view_1", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "#10", kb.InlineKeyboard[1][4].Text)
	assert.Equal(t, "fb_pg:1", kb.InlineKeyboard[2][1].CallbackData)
}

func TestParseIDFromCallback(t *testing.T) {
	id, err := ParseIDFromCallback("ask_reply_15", FeedbackReplyPrefix)
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)

	_, err = ParseIDFromCallback("ask_reply_x", FeedbackReplyPrefix)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = ParseIDFromCallback("fb_pg:1", FeedbackReplyPrefix)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
