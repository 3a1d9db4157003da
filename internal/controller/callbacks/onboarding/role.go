package onboarding

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

// RoleChosenText подтверждение выбора роли
func RoleChosenText(role model.Role) string {
	return "✅ Отлично! Ты выбрал роль: " + common.RoleTitle(role) + "\n\n" +
		"Теперь укажи свою группу командой:\n/add 241-362"
}

// HandleChooseRole обрабатывает выбор роли после /start
func HandleChooseRole(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithContext(ctx, b, callback, h, func(hc *common.HandlerContext) {
		role := model.Role(strings.TrimPrefix(callback.Data, common.RolePrefix))
		if role != model.RoleStudent && role != model.RoleTeacher {
			hc.AnswerAlert("❌ Неизвестная роль")
			return
		}

		if err := h.UserService.SetRole(ctx, hc.TelegramID, hc.Username(), role); err != nil {
			common.HandleError(hc, err, "set_role")
			return
		}
		hc.ClearState()

		if err := hc.EditMessageText(RoleChosenText(role)); err != nil {
			h.Logger.Warn("Failed to edit role message", zap.Int64("telegram_id", hc.TelegramID), zap.Error(err))
		}
		common.LogAndAnswer(hc, "Role chosen", common.RoleTitle(role))
	})
}
