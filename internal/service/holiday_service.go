package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

type HolidayStore interface {
	HolidayFinder
	Create(ctx context.Context, h *model.Holiday) error
	List(ctx context.Context) ([]*model.Holiday, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type HolidayService struct {
	store  HolidayStore
	loc    *time.Location
	logger *zap.Logger
}

func NewHolidayService(store HolidayStore, loc *time.Location, logger *zap.Logger) *HolidayService {
	if loc == nil {
		loc = time.UTC
	}
	return &HolidayService{store: store, loc: loc, logger: logger}
}

// ParseHoliday разбирает "<group|all> DD.MM.YYYY DD.MM.YYYY <тип>"
func ParseHoliday(payload string, loc *time.Location) (*model.Holiday, error) {
	parts := strings.Fields(payload)
	if len(parts) < 4 {
		return nil, ErrInvalidDate
	}

	group := parts[0]
	if !strings.EqualFold(group, model.HolidayAllGroups) && textutil.ExtractGroup(group) != group {
		return nil, ErrUnknownGroup
	}
	if strings.EqualFold(group, model.HolidayAllGroups) {
		group = model.HolidayAllGroups
	}

	start, err := time.ParseInLocation("02.01.2006", parts[1], loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.ParseInLocation("02.01.2006", parts[2], loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrPeriodReversed
	}

	return &model.Holiday{
		Group:     group,
		StartDate: start,
		EndDate:   end,
		Type:      strings.Join(parts[3:], " "),
	}, nil
}

// Add сохраняет каникулы из аргументов команды
func (s *HolidayService) Add(ctx context.Context, payload string) (*model.Holiday, error) {
	h, err := ParseHoliday(payload, s.loc)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("add holiday: %w", err)
	}
	s.logger.Info("Holiday added",
		zap.Int64("holiday_id", h.ID),
		zap.String("group", h.Group),
		zap.String("type", h.Type),
	)
	return h, nil
}

func (s *HolidayService) List(ctx context.Context) ([]*model.Holiday, error) {
	return s.store.List(ctx)
}

func (s *HolidayService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.store.Delete(ctx, id)
}
