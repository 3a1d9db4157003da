package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
)

// HandleMessage обрабатывает сообщения без команды: шаг активного диалога или автоответ
func (h *Handlers) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	r := newRequest(update.Message)

	current := h.states.GetState(r.stateKey())
	if current != state.StateNone {
		h.logger.Debug("Dialog step",
			zap.Int64("user_id", r.userID),
			zap.Int64("chat_id", r.chatID),
			zap.String("state", string(current)))
	}

	switch current {
	case state.StateNone:
		h.autoReply(ctx, r)
	case state.StateChooseRole:
		h.reply(ctx, r, "👆 Сначала выбери роль кнопкой выше")
	case state.StateAwaitingCompareGroups:
		if h.compare(ctx, r, r.text()) {
			h.states.ClearState(r.stateKey())
		}
	case state.StateAwaitingBroadcast:
		h.handleBroadcastMessage(ctx, r)
	case state.StateAwaitingFeedback:
		h.handleFeedbackMessage(ctx, r)
	case state.StateReplyingFeedback:
		h.handleFeedbackReply(ctx, r)
	case state.StateChangingNotifyTime:
		h.handleNotifyTime(ctx, r)
	default:
		h.logger.Warn("Unknown dialog state", zap.String("state", string(current)))
		h.states.ClearState(r.stateKey())
	}
}
