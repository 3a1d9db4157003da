package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

// SemesterRefreshInterval возраст, после которого границы семестра пересчитываются
const SemesterRefreshInterval = 14 * 24 * time.Hour

type SemesterStore interface {
	Get(ctx context.Context, group string) (*model.SemesterBoundary, error)
	Upsert(ctx context.Context, s *model.SemesterBoundary) error
}

type SemesterService struct {
	store  SemesterStore
	clock  clock.Clock
	logger *zap.Logger
}

func NewSemesterService(store SemesterStore, c clock.Clock, logger *zap.Logger) *SemesterService {
	return &SemesterService{store: store, clock: c, logger: logger}
}

// Get сохранённые границы семестра; nil, если неизвестны
func (s *SemesterService) Get(ctx context.Context, group string) *model.SemesterBoundary {
	b, err := s.store.Get(ctx, group)
	if err != nil {
		s.logger.Error("Failed to get semester boundary", zap.String("group", group), zap.Error(err))
		return nil
	}
	return b
}

// Refresh пересчитывает границы по расписанию, если сохранённые устарели
func (s *SemesterService) Refresh(ctx context.Context, group string, week model.WeekSchedule) {
	now := s.clock.Now()

	stored := s.Get(ctx, group)
	if stored != nil && now.Sub(stored.UpdatedAt) < SemesterRefreshInterval {
		return
	}

	bounds := SemesterBounds(week)
	bounds.Group = group
	bounds.UpdatedAt = now

	if err := s.store.Upsert(ctx, bounds); err != nil {
		s.logger.Error("Failed to save semester boundary", zap.String("group", group), zap.Error(err))
		return
	}
	s.logger.Debug("Semester boundary updated", zap.String("group", group))
}

// SemesterBounds минимальная дата начала и максимальная дата окончания пар недели
func SemesterBounds(week model.WeekSchedule) *model.SemesterBoundary {
	var first, last *time.Time
	for _, day := range week {
		for _, lessons := range day {
			for _, l := range lessons {
				if start, err := time.Parse("2006-01-02", l.StartDate); err == nil {
					if first == nil || start.Before(*first) {
						first = &start
					}
				}
				if end, err := time.Parse("2006-01-02", l.EndDate); err == nil {
					if last == nil || end.After(*last) {
						last = &end
					}
				}
			}
		}
	}
	return &model.SemesterBoundary{FirstDate: first, LastDate: last}
}
