package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

// requirePermission проверяет право администратора и отвечает отказом
func (h *Handlers) requirePermission(ctx context.Context, r request, perm model.Permission) bool {
	if h.access.HasPermission(ctx, r.userID, perm) {
		return true
	}
	h.logger.Warn("Permission denied",
		zap.Int64("user_id", r.userID),
		zap.String("permission", string(perm)),
	)
	h.reply(ctx, r, common.ErrorMessage(service.ErrPermissionDenied))
	return false
}

// requireGlobalAdmin команды управления ботом доступны только глобальным админам
func (h *Handlers) requireGlobalAdmin(ctx context.Context, r request) bool {
	if h.access.IsGlobalAdmin(r.userID) {
		return true
	}
	h.reply(ctx, r, common.ErrorMessage(service.ErrPermissionDenied))
	return false
}

// requirePrivate команда работает только в личном чате
func (h *Handlers) requirePrivate(ctx context.Context, r request) bool {
	if !r.group {
		return true
	}
	h.reply(ctx, r, "📩 Эта команда работает только в личном чате со мной")
	return false
}
