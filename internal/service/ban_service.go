package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/metrics"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

type BanStore interface {
	Get(ctx context.Context, userID int64) (*model.Ban, error)
	Upsert(ctx context.Context, ban *model.Ban) error
	Delete(ctx context.Context, userID int64) (bool, error)
	ListActive(ctx context.Context, now time.Time) ([]*model.Ban, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RateLimitConfig параметры антиспама
type RateLimitConfig struct {
	Messages    int
	Window      time.Duration
	BanDuration time.Duration
}

// RateDecision результат проверки сообщения антиспамом
type RateDecision struct {
	Allowed    bool
	JustBanned bool
	Until      time.Time
}

// BanService скользящее окно сообщений и временные баны
type BanService struct {
	store   BanStore
	cfg     RateLimitConfig
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu       sync.Mutex
	requests map[int64][]time.Time
}

func NewBanService(store BanStore, cfg RateLimitConfig, c clock.Clock, m *metrics.Metrics, logger *zap.Logger) *BanService {
	return &BanService{
		store:    store,
		cfg:      cfg,
		clock:    c,
		metrics:  m,
		logger:   logger,
		requests: make(map[int64][]time.Time),
	}
}

// Check учитывает сообщение пользователя и решает, обрабатывать ли его
func (s *BanService) Check(ctx context.Context, userID int64) (RateDecision, error) {
	now := s.clock.Now()

	ban, err := s.store.Get(ctx, userID)
	if err != nil {
		return RateDecision{}, fmt.Errorf("get ban: %w", err)
	}
	if ban != nil {
		if ban.Active(now) {
			return RateDecision{Until: ban.Until()}, nil
		}
		if _, err := s.store.Delete(ctx, userID); err != nil {
			return RateDecision{}, fmt.Errorf("delete expired ban: %w", err)
		}
		s.logger.Info("Ban expired", zap.Int64("user_id", userID))
	}

	if !s.record(userID, now) {
		return RateDecision{Allowed: true}, nil
	}

	until := now.Add(s.cfg.BanDuration)
	if err := s.store.Upsert(ctx, &model.Ban{UserID: userID, BanUntil: until.UnixMilli()}); err != nil {
		return RateDecision{}, fmt.Errorf("create ban: %w", err)
	}
	s.metrics.BanCreated()
	s.logger.Warn("🚫 User banned for flooding",
		zap.Int64("user_id", userID),
		zap.Time("until", until),
	)
	return RateDecision{JustBanned: true, Until: until}, nil
}

// record добавляет сообщение в окно и возвращает true при превышении лимита
func (s *BanService) record(userID int64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	windowStart := now.Add(-s.cfg.Window)
	kept := s.requests[userID][:0]
	for _, ts := range s.requests[userID] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)

	if len(kept) > s.cfg.Messages {
		delete(s.requests, userID)
		return true
	}
	s.requests[userID] = kept
	return false
}

// Sweep удаляет из памяти окна без свежих сообщений
func (s *BanService) Sweep() int {
	windowStart := s.clock.Now().Add(-s.cfg.Window)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ts := range s.requests {
		if len(ts) == 0 || !ts[len(ts)-1].After(windowStart) {
			delete(s.requests, id)
			removed++
		}
	}
	return removed
}

// Ban банит пользователя вручную
func (s *BanService) Ban(ctx context.Context, userID int64, d time.Duration) (time.Time, error) {
	until := s.clock.Now().Add(d)
	if err := s.store.Upsert(ctx, &model.Ban{UserID: userID, BanUntil: until.UnixMilli()}); err != nil {
		return time.Time{}, err
	}
	s.metrics.BanCreated()
	s.logger.Info("User banned by admin",
		zap.Int64("user_id", userID),
		zap.Time("until", until),
	)
	return until, nil
}

// Unban снимает бан; false, если бана не было
func (s *BanService) Unban(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	delete(s.requests, userID)
	s.mu.Unlock()

	return s.store.Delete(ctx, userID)
}

func (s *BanService) ListActive(ctx context.Context) ([]*model.Ban, error) {
	return s.store.ListActive(ctx, s.clock.Now())
}

// CleanupExpired удаляет истёкшие баны
func (s *BanService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.clock.Now())
}
