package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

// HandleFeedback обрабатывает /feedback - следующее сообщение станет фидбеком
func (h *Handlers) HandleFeedback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePrivate(ctx, r) {
		return
	}

	h.states.SetState(r.stateKey(), state.StateAwaitingFeedback)
	h.reply(ctx, r, "💬 Отправь свой отзыв, предложение или сообщение об ошибке.\nМожешь прикрепить фото, видео или документ.")
}

// HandleAsks обрабатывает /asks - список непрочитанных фидбеков
func (h *Handlers) HandleAsks(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermFeedbackRead) {
		return
	}

	page, err := h.feedback.Page(ctx, 0)
	if err != nil {
		h.replyError(ctx, r, err, "feedback_list")
		return
	}
	if page.Total == 0 {
		h.reply(ctx, r, "Нет непрочитанных фидбеков.")
		return
	}

	text, kb := common.BuildFeedbackListScreen(page)
	h.replyKeyboard(ctx, r, text, kb)
}

// handleFeedbackMessage сохраняет фидбек из сообщения пользователя
func (h *Handlers) handleFeedbackMessage(ctx context.Context, r request) {
	f, err := h.feedback.Submit(ctx, service.NewFeedback{
		UserID:    r.userID,
		MessageID: r.msg.ID,
		Text:      r.text(),
		Media:     mediaOf(r.msg),
	})
	if err != nil {
		// пустое сообщение не закрывает диалог
		h.replyError(ctx, r, err, "feedback_submit")
		return
	}
	h.states.ClearState(r.stateKey())

	h.reply(ctx, r, fmt.Sprintf("✅ Спасибо за обратную связь! Твой фидбек #%d принят.\nАдминистратор ответит в ближайшее время.", f.ID))
	h.notifyAdmins(ctx, fmt.Sprintf("📩 Новый фидбек #%d от %s\nПосмотреть: /asks", f.ID, textutil.Mention(r.username, r.userID)))
}

// handleFeedbackReply пересылает ответ администратора автору фидбека
func (h *Handlers) handleFeedbackReply(ctx context.Context, r request) {
	raw, ok := h.states.GetData(r.stateKey(), state.DataFeedbackID)
	h.states.ClearState(r.stateKey())
	id, isID := raw.(int64)
	if !ok || !isID {
		h.reply(ctx, r, common.ErrorMessage(service.ErrFeedbackNotFound))
		return
	}

	if !h.requirePermission(ctx, r, model.PermFeedbackReply) {
		return
	}

	delivered, err := h.feedback.Reply(ctx, id, textutil.Mention(r.username, r.userID), r.chatID, r.msg.ID)
	if err != nil {
		h.replyError(ctx, r, err, "feedback_reply")
		return
	}
	if delivered {
		h.reply(ctx, r, "✅ Ответ отправлен, фидбек удалён из базы.")
		return
	}
	h.reply(ctx, r, "⚠️ Не удалось отправить ответ (пользователь, возможно, заблокировал бота). Фидбек удалён.")
}

// notifyAdmins уведомляет глобальных админов; ошибки только логируются
func (h *Handlers) notifyAdmins(ctx context.Context, text string) {
	for _, id := range h.access.GlobalAdmins() {
		if err := h.messenger.SendText(ctx, id, 0, text); err != nil {
			h.logger.Warn("Failed to notify admin", zap.Int64("admin_id", id), zap.Error(err))
		}
	}
}
