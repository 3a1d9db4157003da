package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/feedback"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/onboarding"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/settings"
)

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data
	h.Metrics.Command("callback:" + callbackName(data))

	switch {
	case data == keyboard.Noop:
		h.Messenger.AnswerCallback(ctx, callback.ID, "", false)

	// ===== Onboarding =====
	case strings.HasPrefix(data, common.RolePrefix):
		onboarding.HandleChooseRole(ctx, b, callback, h)

	// ===== Settings =====
	case data == common.SettingsToggleDaily:
		settings.HandleToggleDaily(ctx, b, callback, h)
	case data == common.SettingsToggleOnline:
		settings.HandleToggleOnline(ctx, b, callback, h)
	case data == common.SettingsChangeTime:
		settings.HandleChangeTime(ctx, b, callback, h)
	case data == common.SettingsChangeSubgroup:
		settings.HandleChangeSubgroup(ctx, b, callback, h)
	case data == common.SettingsBack:
		settings.HandleBack(ctx, b, callback, h)
	case data == common.SettingsClose:
		settings.HandleClose(ctx, b, callback, h)
	case strings.HasPrefix(data, common.SubgroupPrefix):
		settings.HandleSetSubgroup(ctx, b, callback, h)

	// ===== Feedback (admins) =====
	case strings.HasPrefix(data, common.FeedbackPagePrefix):
		feedback.HandlePage(ctx, b, callback, h)
	case strings.HasPrefix(data, common.FeedbackViewPrefix):
		feedback.HandleView(ctx, b, callback, h)
	case strings.HasPrefix(data, common.FeedbackReplyPrefix):
		feedback.HandleReply(ctx, b, callback, h)

	default:
		h.Logger.Warn("Unknown callback",
			zap.String("data", data),
			zap.Int64("user_id", callback.From.ID))
		h.Messenger.AnswerCallback(ctx, callback.ID, "❌ Неизвестная команда", false)
	}
}

// callbackName префикс callback без параметров, чтобы не плодить метки метрик
func callbackName(data string) string {
	for _, prefix := range []string{
		common.RolePrefix,
		common.SubgroupPrefix,
		common.FeedbackPagePrefix,
		common.FeedbackViewPrefix,
		common.FeedbackReplyPrefix,
	} {
		if strings.HasPrefix(data, prefix) {
			return strings.TrimRight(prefix, ":_")
		}
	}
	switch data {
	case keyboard.Noop, common.SettingsToggleDaily, common.SettingsToggleOnline, common.SettingsChangeTime,
		common.SettingsChangeSubgroup, common.SettingsBack, common.SettingsClose:
		return data
	}
	return "unknown"
}
