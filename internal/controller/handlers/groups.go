package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

// TutorialText краткое обучение после первой установки группы
const TutorialText = "👋 Привет! Я твой помощник по учебному расписанию!\n\n" +
	"📅 /day - все пары на сегодня: время, преподаватели и аудитории.\n" +
	"📚 /day 241-362 - расписание другой группы.\n" +
	"🕑 /cur - какая пара идёт прямо сейчас.\n" +
	"🖼 /week - картинка с расписанием на неделю.\n" +
	"⚙️ /settings - ежедневная рассылка и напоминания об онлайн-парах.\n" +
	"ℹ️ /help - все команды."

// HandleAddGroup обрабатывает /add 241-362 и /change_group 241-362
func (h *Handlers) HandleAddGroup(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	r := newRequest(update.Message)

	group := textutil.ExtractGroup(textutil.CommandPayload(r.msg.Text))
	if group == "" {
		h.reply(ctx, r, "❌ Укажи группу в формате: /add 241-362")
		return
	}

	if r.group {
		h.setChatGroup(ctx, r, group)
		return
	}

	needTutorial, err := h.users.SetUserGroup(ctx, r.userID, r.username, group)
	if err != nil {
		h.replyError(ctx, r, err, "set_user_group")
		return
	}
	h.reply(ctx, r, "✅ Группа "+group+" сохранена!\nТеперь можешь использовать команды расписания.")

	if needTutorial {
		h.reply(ctx, r, TutorialText)
		if err := h.users.CompleteTutorial(ctx, r.userID); err != nil {
			h.logger.Warn("Failed to complete tutorial", zap.Int64("user_id", r.userID), zap.Error(err))
		}
	}
}

func (h *Handlers) setChatGroup(ctx context.Context, r request, group string) {
	if !h.messenger.IsChatAdmin(ctx, r.chatID, r.userID) {
		h.reply(ctx, r, "🔑 Только администраторы группового чата могут устанавливать группу.")
		return
	}

	var threadID *int64
	if r.msg.IsTopicMessage && r.threadID != 0 {
		id := int64(r.threadID)
		threadID = &id
	}

	if err := h.users.SetChatGroup(ctx, r.chatID, group, threadID); err != nil {
		h.replyError(ctx, r, err, "set_chat_group")
		return
	}
	h.reply(ctx, r, "✅ Группа "+group+" установлена для этого чата!")
}
