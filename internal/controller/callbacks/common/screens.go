package common

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

// Callback data
const (
	RolePrefix = "role:" // role:student

	SettingsToggleDaily    = "settings:toggle_daily"
	SettingsToggleOnline   = "settings:toggle_online"
	SettingsChangeTime     = "settings:change_time"
	SettingsChangeSubgroup = "settings:change_subgroup"
	SettingsBack           = "settings:back"
	SettingsClose          = "settings:close"

	SubgroupPrefix = "subgroup:" // subgroup:0 снимает фильтр

	FeedbackPagePrefix  = "fb_pg:"     // fb_pg:2
	FeedbackViewPrefix  = "ask_view_"  // ask_view_15
	FeedbackReplyPrefix = "ask_reply_" // ask_reply_15
)

const feedbackButtonsPerRow = 5

// RoleTitle название роли для сообщений
func RoleTitle(role model.Role) string {
	if role == model.RoleTeacher {
		return "👨‍🏫 Преподаватель"
	}
	return "👨‍🎓 Студент"
}

// BuildRoleKeyboard кнопки выбора роли при первом /start
func BuildRoleKeyboard() *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(
			keyboard.Button(RoleTitle(model.RoleStudent), RolePrefix+string(model.RoleStudent)),
			keyboard.Button(RoleTitle(model.RoleTeacher), RolePrefix+string(model.RoleTeacher)),
		).
		Build()
}

func onOff(enabled bool) string {
	if enabled {
		return "✅ Вкл"
	}
	return "❌ Выкл"
}

// BuildSettingsScreen формирует экран настроек уведомлений
func BuildSettingsScreen(s *model.NotifySettings) (string, *models.InlineKeyboardMarkup) {
	text := "⚙️ Настройки уведомлений\n\n"
	text += "Ежедневные: " + onOff(s.DailyNotify) + "\n"
	if s.NotificationTime != nil {
		text += "Время: " + *s.NotificationTime + "\n"
	}
	text += "Онлайн-пары: " + onOff(s.NotifyOnline) + "\n"
	if s.Subgroup != nil {
		text += fmt.Sprintf("Подгруппа: %d\n", *s.Subgroup)
	}

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("📅 Ежедневные: "+onOff(s.DailyNotify), SettingsToggleDaily)).
		Row(keyboard.Button("🕐 Время уведомлений", SettingsChangeTime)).
		Row(keyboard.Button("💻 Онлайн-пары: "+onOff(s.NotifyOnline), SettingsToggleOnline))
	if !s.IsChat {
		kb.Row(keyboard.Button("👥 Подгруппа", SettingsChangeSubgroup))
	}
	kb.Row(keyboard.CloseButton(SettingsClose))

	return text, kb.Build()
}

// BuildSubgroupScreen выбор подгруппы
func BuildSubgroupScreen() (string, *models.InlineKeyboardMarkup) {
	kb := keyboard.NewBuilder().
		Row(
			keyboard.Button("1", SubgroupPrefix+"1"),
			keyboard.Button("2", SubgroupPrefix+"2"),
			keyboard.Button("Все", SubgroupPrefix+"0"),
		).
		Row(keyboard.BackButton(SettingsBack)).
		Build()
	return "👥 Выбери свою подгруппу:", kb
}

// BuildFeedbackListScreen страница непрочитанных фидбеков
func BuildFeedbackListScreen(page *service.FeedbackPage) (string, *models.InlineKeyboardMarkup) {
	buttons := make([]models.InlineKeyboardButton, 0, len(page.Items))
	for _, f := range page.Items {
		buttons = append(buttons, keyboard.Button(fmt.Sprintf("#%d", f.ID), fmt.Sprintf("%s%d", FeedbackViewPrefix, f.ID)))
	}

	kb := keyboard.NewBuilder().
		Grid(buttons, feedbackButtonsPerRow).
		AddPagination(FeedbackPagePrefix, page.Page, page.Pages).
		Build()
	return page.Header(), kb
}

// BuildFeedbackCardKeyboard кнопка ответа под карточкой фидбека
func BuildFeedbackCardKeyboard(id int64) *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(keyboard.Button("Ответить", fmt.Sprintf("%s%d", FeedbackReplyPrefix, id))).
		Build()
}
