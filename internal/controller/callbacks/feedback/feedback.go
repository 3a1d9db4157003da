package feedback

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

// ReplyPrompt просьба прислать ответ на фидбек
const ReplyPrompt = "Отправь ответ (текст, фото, документ и т.п.) в этот чат."

// HandlePage листает список непрочитанных фидбеков
func HandlePage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithPermission(ctx, b, callback, h, model.PermFeedbackRead, func(hc *common.HandlerContext) {
		page, err := common.ParseIDFromCallback(callback.Data, common.FeedbackPagePrefix)
		if err != nil {
			common.HandleError(hc, err, "feedback_page")
			return
		}

		p, err := h.FeedbackService.Page(ctx, int(page))
		if err != nil {
			common.HandleError(hc, err, "feedback_page")
			return
		}
		if p.Total == 0 {
			if err := hc.EditMessageText("Нет непрочитанных фидбеков."); err != nil {
				h.Logger.Warn("Failed to edit feedback list", zap.Error(err))
			}
			hc.Answer("")
			return
		}

		text, kb := common.BuildFeedbackListScreen(p)
		if err := hc.EditMessage(text, kb); err != nil {
			common.HandleError(hc, err, "feedback_page")
			return
		}
		hc.Answer("")
	})
}

// HandleView отправляет карточку фидбека с вложениями и кнопкой ответа
func HandleView(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithPermission(ctx, b, callback, h, model.PermFeedbackRead, func(hc *common.HandlerContext) {
		id, err := common.ParseIDFromCallback(callback.Data, common.FeedbackViewPrefix)
		if err != nil {
			common.HandleError(hc, err, "feedback_view")
			return
		}

		card, err := h.FeedbackService.Card(ctx, id)
		if err != nil {
			common.HandleError(hc, err, "feedback_view")
			return
		}

		if err := hc.SendMessage(card.Text, common.BuildFeedbackCardKeyboard(card.ID)); err != nil {
			common.HandleError(hc, err, "feedback_view")
			return
		}
		if err := h.Messenger.SendMedia(ctx, hc.ChatID, card.Media); err != nil {
			h.Logger.Warn("Failed to send feedback media",
				zap.Int64("feedback_id", card.ID),
				zap.Error(err))
		}
		hc.Answer("Фидбек отображен")
	})
}

// HandleReply ждёт от администратора сообщение-ответ на фидбек
func HandleReply(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithPermission(ctx, b, callback, h, model.PermFeedbackReply, func(hc *common.HandlerContext) {
		id, err := common.ParseIDFromCallback(callback.Data, common.FeedbackReplyPrefix)
		if err != nil {
			common.HandleError(hc, err, "feedback_reply")
			return
		}

		hc.SetState(state.StateReplyingFeedback)
		hc.SetData(state.DataFeedbackID, id)

		if err := hc.SendMessage(ReplyPrompt, nil); err != nil {
			h.Logger.Warn("Failed to send reply prompt", zap.Int64("chat_id", hc.ChatID), zap.Error(err))
		}
		common.LogAndAnswer(hc, "Feedback reply started", "")
	})
}
