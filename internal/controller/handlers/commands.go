package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
)

const userHelpText = "📚 Доступные команды:\n\n" +
	"Расписание:\n" +
	"/day [группа] - расписание на сегодня\n" +
	"/nextday [группа] - расписание на завтра\n" +
	"/cur [группа] - текущее занятие\n" +
	"/date [группа] ДД.ММ.ГГГГ - расписание на дату\n" +
	"/week [группа] - картинка с расписанием недели\n" +
	"/teacher ФИО [ДД.ММ.ГГГГ] - пары преподавателя\n" +
	"/room номер [ДД.ММ.ГГГГ] - занятия в аудитории\n\n" +
	"Управление:\n" +
	"/add 000-000 - установить свою группу\n" +
	"/change_group 000-000 - изменить группу\n" +
	"/settings - настройки уведомлений\n\n" +
	"Другое:\n" +
	"/compare_groups - сравнить расписания групп\n" +
	"  (укажи группы и минуты)\n" +
	"/feedback - отправить отзыв\n" +
	"/cancel - отменить текущее действие"

const adminHelpText = "\n\nАдминистрирование:\n" +
	"/asks - просмотр фидбеков\n" +
	"/ban_user - забанить пользователя\n" +
	"/unban_user - разбанить\n" +
	"/list_bans - список банов\n" +
	"/broadcast - рассылка\n" +
	"/add_holidays - добавить каникулы\n" +
	"/list_holidays - список каникул\n" +
	"/del_holiday - удалить каникулы\n" +
	"/list_blocked - кто заблокировал бота\n" +
	"/stat - статистика"

const globalAdminHelpText = "\n\nУправление ботом:\n" +
	"/grant id право - выдать право\n" +
	"/revoke id [право] - забрать право\n" +
	"/admins - список админов\n" +
	"/add_pattern regexp => ответ - автоответ\n" +
	"/del_pattern id, /patterns\n" +
	"/add_name имя, /del_name имя, /names"

// HelpText справка с учётом прав пользователя
func HelpText(admin, globalAdmin bool) string {
	text := userHelpText
	if admin || globalAdmin {
		text += adminHelpText
	}
	if globalAdmin {
		text += globalAdminHelpText
	}
	return text
}

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	r := newRequest(update.Message)

	if r.group {
		chat, err := h.users.GetChat(ctx, r.chatID)
		if err == nil && chat != nil && chat.Group != "" {
			h.reply(ctx, r, "👋 Группа этого чата: "+chat.Group+"\nИспользуй /help для списка команд.")
			return
		}
		h.reply(ctx, r, "👋 Привет! Я бот для расписания.\nАдминистратор чата может установить группу командой /add 241-362")
		return
	}

	user, err := h.users.GetUser(ctx, r.userID)
	if err != nil {
		h.replyError(ctx, r, err, "start")
		return
	}
	if user.HasGroup() {
		h.reply(ctx, r, "👋 С возвращением! Твоя группа: "+user.Group+"\nИспользуй /help для списка команд.")
		return
	}

	h.states.SetState(r.stateKey(), state.StateChooseRole)
	h.replyKeyboard(ctx, r, "👋 Привет! Я бот для управления расписанием.\nДавай начнем с выбора твоей роли:", common.BuildRoleKeyboard())
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	h.reply(ctx, r, HelpText(h.access.IsAdmin(ctx, r.userID), h.access.IsGlobalAdmin(r.userID)))
}

// cancelText ответ на /cancel для каждого диалога
func cancelText(s state.UserState) string {
	switch s {
	case state.StateNone:
		return "❌ Нет активных действий для отмены"
	case state.StateAwaitingBroadcast:
		return "✅ Рассылка отменена"
	case state.StateAwaitingCompareGroups:
		return "✅ Сравнение групп отменено"
	case state.StateAwaitingFeedback:
		return "✅ Отправка фидбека отменена"
	default:
		return "✅ Действие отменено"
	}
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	prev := h.states.ClearState(r.stateKey())
	if prev != state.StateNone {
		h.logger.Info("Dialog cancelled",
			zap.Int64("user_id", r.userID),
			zap.String("state", string(prev)))
	}
	h.reply(ctx, r, cancelText(prev))
}
