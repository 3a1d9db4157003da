package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

type AdminStore interface {
	Grant(ctx context.Context, userID int64, username string, perm model.Permission) error
	Revoke(ctx context.Context, userID int64, perm model.Permission) (bool, error)
	Remove(ctx context.Context, userID int64) (bool, error)
	HasPermission(ctx context.Context, userID int64, perm model.Permission) (bool, error)
	Permissions(ctx context.Context, userID int64) ([]model.Permission, error)
	List(ctx context.Context) ([]*model.AdminUser, error)
}

// AccessService глобальные админы из конфига и делегированные права из БД
type AccessService struct {
	store  AdminStore
	global map[int64]struct{}
	logger *zap.Logger
}

func NewAccessService(store AdminStore, globalAdmins []int64, logger *zap.Logger) *AccessService {
	global := make(map[int64]struct{}, len(globalAdmins))
	for _, id := range globalAdmins {
		global[id] = struct{}{}
	}
	return &AccessService{store: store, global: global, logger: logger}
}

func (s *AccessService) IsGlobalAdmin(userID int64) bool {
	_, ok := s.global[userID]
	return ok
}

// GlobalAdmins идентификаторы глобальных админов
func (s *AccessService) GlobalAdmins() []int64 {
	ids := make([]int64, 0, len(s.global))
	for id := range s.global {
		ids = append(ids, id)
	}
	return ids
}

// HasPermission глобальные админы имеют все права
func (s *AccessService) HasPermission(ctx context.Context, userID int64, perm model.Permission) bool {
	if s.IsGlobalAdmin(userID) {
		return true
	}
	ok, err := s.store.HasPermission(ctx, userID, perm)
	if err != nil {
		s.logger.Error("Failed to check permission",
			zap.Int64("user_id", userID),
			zap.String("permission", string(perm)),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// Permissions права пользователя; для глобального админа все
func (s *AccessService) Permissions(ctx context.Context, userID int64) ([]model.Permission, error) {
	if s.IsGlobalAdmin(userID) {
		return model.AllPermissions, nil
	}
	return s.store.Permissions(ctx, userID)
}

// IsAdmin глобальный админ или есть хотя бы одно право
func (s *AccessService) IsAdmin(ctx context.Context, userID int64) bool {
	if s.IsGlobalAdmin(userID) {
		return true
	}
	perms, err := s.store.Permissions(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load permissions", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return len(perms) > 0
}

// Grant выдаёт право; управлять правами могут только глобальные админы
func (s *AccessService) Grant(ctx context.Context, actorID, userID int64, username string, perm model.Permission) error {
	if !s.IsGlobalAdmin(actorID) {
		return ErrPermissionDenied
	}
	if err := s.store.Grant(ctx, userID, username, perm); err != nil {
		return fmt.Errorf("grant %s: %w", perm, err)
	}
	s.logger.Info("Permission granted",
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", userID),
		zap.String("permission", string(perm)),
	)
	return nil
}

// Revoke забирает право; пустое perm удаляет админа целиком
func (s *AccessService) Revoke(ctx context.Context, actorID, userID int64, perm model.Permission) (bool, error) {
	if !s.IsGlobalAdmin(actorID) {
		return false, ErrPermissionDenied
	}

	var (
		removed bool
		err     error
	)
	if perm == "" {
		removed, err = s.store.Remove(ctx, userID)
	} else {
		removed, err = s.store.Revoke(ctx, userID, perm)
	}
	if err != nil {
		return false, fmt.Errorf("revoke: %w", err)
	}

	s.logger.Info("Permission revoked",
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", userID),
		zap.String("permission", string(perm)),
		zap.Bool("removed", removed),
	)
	return removed, nil
}

func (s *AccessService) ListAdmins(ctx context.Context) ([]*model.AdminUser, error) {
	return s.store.List(ctx)
}
