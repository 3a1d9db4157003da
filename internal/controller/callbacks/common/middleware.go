package common

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

// WithContext создаёт HandlerContext и передаёт его в handler
func WithContext(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	handler(NewHandlerContext(ctx, b, callback, h))
}

// WithPermission создаёт HandlerContext и проверяет право администратора
// При отсутствии права отвечает alert'ом и не вызывает handler
func WithPermission(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	perm model.Permission,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if !hc.HasPermission(perm) {
		h.Logger.Warn("Permission denied",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("permission", string(perm)))
		hc.AnswerAlert(ErrorMessage(service.ErrPermissionDenied))
		return
	}

	handler(hc)
}

// WithSettings создаёт HandlerContext и загружает настройки уведомлений чата или пользователя
func WithSettings(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext, *model.NotifySettings),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	settings, err := h.UserService.Settings(ctx, hc.ChatID, hc.TelegramID, hc.GroupChat)
	if err != nil {
		HandleError(hc, err, "load_settings")
		return
	}

	handler(hc, settings)
}

// HandleError обрабатывает ошибку и отправляет ответ пользователю
func HandleError(hc *HandlerContext, err error, operation string) {
	hc.Handler.Logger.Error("Operation failed",
		zap.String("operation", operation),
		zap.Int64("telegram_id", hc.TelegramID),
		zap.Int64("chat_id", hc.ChatID),
		zap.Error(err))
	hc.AnswerAlert(ErrorMessage(err))
}

// LogAndAnswer логирует действие и отвечает на callback
func LogAndAnswer(hc *HandlerContext, message string, answer string) {
	hc.Handler.Logger.Info(message,
		zap.Int64("telegram_id", hc.TelegramID),
		zap.Int64("chat_id", hc.ChatID))
	hc.Answer(answer)
}
