package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
)

const (
	// GroupCatalogSyncInterval как часто обновляется каталог групп
	GroupCatalogSyncInterval = 7 * 24 * time.Hour
	// GroupCatalogRetention сколько хранится группа, пропавшая из API
	GroupCatalogRetention = 180 * 24 * time.Hour
)

type GlobalGroupStore interface {
	UpsertMany(ctx context.Context, names []string, at time.Time) error
	Exists(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context) (int, error)
	LastUpdated(ctx context.Context) (*time.Time, error)
	PruneOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// GroupLister источник списка групп
type GroupLister interface {
	Groups(ctx context.Context) ([]string, error)
}

type GroupCatalogService struct {
	store  GlobalGroupStore
	source GroupLister
	clock  clock.Clock
	logger *zap.Logger
}

func NewGroupCatalogService(store GlobalGroupStore, source GroupLister, c clock.Clock, logger *zap.Logger) *GroupCatalogService {
	return &GroupCatalogService{store: store, source: source, clock: c, logger: logger}
}

// IsKnown true, если группа есть в каталоге или каталог ещё пуст
func (s *GroupCatalogService) IsKnown(ctx context.Context, group string) bool {
	exists, err := s.store.Exists(ctx, group)
	if err != nil {
		s.logger.Warn("Failed to check group catalog", zap.String("group", group), zap.Error(err))
		return true
	}
	if exists {
		return true
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("Failed to count group catalog", zap.Error(err))
		return true
	}
	return n == 0
}

// SyncIfStale синхронизирует каталог, если последняя синхронизация старше недели
func (s *GroupCatalogService) SyncIfStale(ctx context.Context) error {
	last, err := s.store.LastUpdated(ctx)
	if err != nil {
		return err
	}
	if last != nil && s.clock.Now().Sub(*last) < GroupCatalogSyncInterval {
		return nil
	}
	_, err = s.Sync(ctx)
	return err
}

// Sync загружает группы из API, обновляет каталог и удаляет давно пропавшие группы
func (s *GroupCatalogService) Sync(ctx context.Context) (int, error) {
	groups, err := s.source.Groups(ctx)
	if err != nil {
		return 0, fmt.Errorf("load groups: %w", err)
	}
	if len(groups) == 0 {
		s.logger.Warn("Group catalog sync returned no groups")
		return 0, nil
	}

	now := s.clock.Now()
	if err := s.store.UpsertMany(ctx, groups, now); err != nil {
		return 0, err
	}
	pruned, err := s.store.PruneOlderThan(ctx, now.Add(-GroupCatalogRetention))
	if err != nil {
		return 0, err
	}

	s.logger.Info("🗂 Group catalog synced",
		zap.Int("groups", len(groups)),
		zap.Int64("pruned", pruned),
	)
	return len(groups), nil
}
