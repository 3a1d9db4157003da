package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

func TestCancelText(t *testing.T) {
	assert.Equal(t, "❌ Нет активных действий для отмены", cancelText(state.StateNone))
	assert.Equal(t, "✅ Рассылка отменена", cancelText(state.StateAwaitingBroadcast))
	assert.Equal(t, "✅ Сравнение групп отменено", cancelText(state.StateAwaitingCompareGroups))
	assert.Equal(t, "✅ Действие отменено", cancelText(state.StateChangingNotifyTime))
}

func TestHelpText(t *testing.T) {
	user := HelpText(false, false)
	assert.Contains(t, user, "/day")
	assert.NotContains(t, user, "/ban_user")

	admin := HelpText(true, false)
	assert.Contains(t, admin, "/ban_user")
	assert.NotContains(t, admin, "/grant")

	assert.Contains(t, HelpText(false, true), "/grant")
}

func TestParseTarget(t *testing.T) {
	tgt, err := parseTarget("@poly_user")
	require.NoError(t, err)
	assert.Equal(t, "poly_user", tgt.username)
	assert.Equal(t, "@poly_user", tgt.String())

	tgt, err = parseTarget("12345")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), tgt.id)
	assert.Equal(t, "12345", tgt.String())

	for _, bad := range []string{"@", "abc", "-5", "0"} {
		_, err := parseTarget(bad)
		assert.ErrorIs(t, err, errBadUserID, bad)
	}
}

func TestBanListText(t *testing.T) {
	assert.Equal(t, "Активных банов нет", BanListText(nil, time.UTC))

	until := time.Date(2025, 10, 15, 12, 30, 0, 0, time.UTC)
	text := BanListText([]*model.Ban{{UserID: 42, BanUntil: until.UnixMilli()}}, time.UTC)
	assert.Equal(t, "📋 Активные баны:\n\n• ID 42 до 15.10.2025 12:30\n", text)
}

func TestAdminsText(t *testing.T) {
	text := AdminsText([]int64{1}, []*model.AdminUser{
		{UserID: 7, Username: "helper", Permissions: []model.Permission{model.PermBanUser, model.PermStatCommand}},
		{UserID: 8},
	})

	assert.Contains(t, text, "• ID 1\n")
	assert.Contains(t, text, "• @helper: ban_user, stat_command\n")
	assert.Contains(t, text, "• ID 8: \n")
}

func TestHolidayTexts(t *testing.T) {
	h := &model.Holiday{
		ID:        3,
		Group:     model.HolidayAllGroups,
		StartDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
		Type:      "Зимние каникулы",
	}

	assert.Equal(t, "✅ Каникулы добавлены:\nГруппа: все группы\nПериод: 31.12.2025 - 11.01.2026\nТип: Зимние каникулы",
		HolidayAddedText(h))
	assert.True(t, strings.HasPrefix(HolidayListText([]*model.Holiday{h}), "🎉 Каникулы и праздники:\n\n#3 все группы: 31.12.2025 - 11.01.2026, Зимние каникулы\n"))
	assert.Equal(t, "Каникулы не добавлены", HolidayListText(nil))
}

func TestPatternTexts(t *testing.T) {
	assert.Equal(t, "Автоответов нет", PatternListText(nil))
	assert.Equal(t, "💬 Автоответы:\n\n#1 привет => Привет!\n",
		PatternListText([]*model.Pattern{{ID: 1, Pattern: "привет", Response: "Привет!"}}))
	assert.Equal(t, "🏷 Бот откликается на: Поли, Polly",
		NameListText([]*model.PersonalizedName{{Name: "Поли"}, {Name: "Polly"}}))
}

func TestSplitTrailingDate(t *testing.T) {
	args, date := splitTrailingDate([]string{"Иванов", "И.И.", "15.10.2025"})
	assert.Equal(t, []string{"Иванов", "И.И."}, args)
	assert.Equal(t, "15.10.2025", date)

	args, date = splitTrailingDate([]string{"Пр2402"})
	assert.Equal(t, []string{"Пр2402"}, args)
	assert.Empty(t, date)
}

func TestMediaOf(t *testing.T) {
	msg := &models.Message{
		Photo: []models.PhotoSize{{FileID: "small"}, {FileID: "large"}},
		Video: &models.Video{FileID: "vid"},
	}
	assert.Equal(t, model.FeedbackMedia{Photo: "large", Video: "vid"}, mediaOf(msg))
	assert.Equal(t, model.FeedbackMedia{}, mediaOf(&models.Message{Text: "hi"}))
}

func TestRequest(t *testing.T) {
	r := newRequest(&models.Message{
		ID:              10,
		Chat:            models.Chat{ID: -100, Type: models.ChatTypeSupergroup},
		From:            &models.User{ID: 5, Username: "student"},
		MessageThreadID: 3,
		Caption:         "подпись",
	})

	assert.True(t, r.group)
	assert.Equal(t, state.Key{ChatID: -100, UserID: 5}, r.stateKey())
	assert.Equal(t, 3, r.threadID)
	assert.Equal(t, "подпись", r.text())
}
