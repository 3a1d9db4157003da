package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

// HandleSettings обрабатывает /settings - экран настроек уведомлений
func (h *Handlers) HandleSettings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	s, err := h.users.Settings(ctx, r.chatID, r.userID, r.group)
	if err != nil {
		h.replyError(ctx, r, err, "settings")
		return
	}

	text, kb := common.BuildSettingsScreen(s)
	h.replyKeyboard(ctx, r, text, kb)
}

// handleNotifyTime ответ на запрос времени уведомлений
func (h *Handlers) handleNotifyTime(ctx context.Context, r request) {
	hhmm := textutil.CleanWhitespace(r.text())
	if !textutil.ValidTime(hhmm) {
		h.reply(ctx, r, "❌ Неверный формат времени. Используй ЧЧ:ММ, например 08:00\nИли /cancel для отмены.")
		return
	}

	if err := h.users.SetNotificationTime(ctx, r.chatID, r.userID, r.group, hhmm); err != nil {
		h.replyError(ctx, r, err, "set_notification_time")
		return
	}
	h.states.ClearState(r.stateKey())
	h.reply(ctx, r, "✅ Время уведомлений установлено: "+hhmm)
}
