package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

// HandleBroadcast обрабатывает /broadcast - следующее сообщение уйдёт всем
func (h *Handlers) HandleBroadcast(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermBroadcast) {
		return
	}

	h.states.SetState(r.stateKey(), state.StateAwaitingBroadcast)
	h.reply(ctx, r, "📢 Функция рассылки\n\n"+
		"Отправь следующее сообщение, которое будет разослано всем пользователям.\n"+
		"Используй /cancel для отмены.")
}

// handleBroadcastMessage копирует сообщение администратора всем получателям
func (h *Handlers) handleBroadcastMessage(ctx context.Context, r request) {
	h.states.ClearState(r.stateKey())
	if !h.requirePermission(ctx, r, model.PermBroadcast) {
		return
	}

	report, err := h.broadcasts.Broadcast(ctx, r.chatID, r.msg.ID)
	if err != nil {
		h.replyError(ctx, r, err, "broadcast")
		return
	}
	if report.Recipients == 0 {
		h.reply(ctx, r, "❌ Нет получателей для рассылки")
		return
	}

	h.logger.Info("Broadcast requested",
		zap.String("run_id", report.RunID),
		zap.Int64("admin_id", r.userID),
		zap.Int("recipients", report.Recipients))
	h.reply(ctx, r, report.Text())
}
