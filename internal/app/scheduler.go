package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

// Job фоновая задача планировщика
type Job struct {
	Name       string
	Due        func(now time.Time) bool
	Run        func(ctx context.Context, now time.Time)
	RunOnStart bool
}

// EveryMinute срабатывает на каждом тике
func EveryMinute(time.Time) bool { return true }

// At срабатывает раз в сутки в заданные час и минуту
func At(hour, minute int) func(time.Time) bool {
	return func(now time.Time) bool {
		return now.Hour() == hour && now.Minute() == minute
	}
}

// EveryMinutes срабатывает на минутах, кратных n
func EveryMinutes(n int) func(time.Time) bool {
	return func(now time.Time) bool {
		return (now.Hour()*60+now.Minute())%n == 0
	}
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	jobs   []Job
	clock  clock.Clock
	logger *zap.Logger
}

// NewScheduler создаёт новый планировщик
func NewScheduler(jobs []Job, c clock.Clock, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		clock:  c,
		logger: logger,
	}
}

// JobDeps сервисы, которые обслуживает планировщик
type JobDeps struct {
	Notifications *service.NotificationService
	Catalog       *service.GroupCatalogService
	Stats         *service.StatsService
	Bans          *service.BanService
	Keyboards     *service.KeyboardCleaner
}

// DefaultJobs расписание фоновых задач бота
func DefaultJobs(d JobDeps, logger *zap.Logger) []Job {
	return []Job{
		{
			Name: "daily_notifications",
			Due:  EveryMinute,
			Run: func(ctx context.Context, now time.Time) {
				if n := d.Notifications.SendDaily(ctx, now); n > 0 {
					logger.Info("Daily schedules queued", zap.Int("recipients", n))
				}
			},
		},
		{
			Name: "online_reminders",
			Due:  EveryMinute,
			Run: func(ctx context.Context, now time.Time) {
				if n := d.Notifications.SendOnlineReminders(ctx, now); n > 0 {
					logger.Info("Online reminders queued", zap.Int("recipients", n))
				}
			},
		},
		{
			Name: "daily_cleanup",
			Due:  At(0, 1),
			Run:  func(ctx context.Context, _ time.Time) { d.Notifications.DailyCleanup(ctx) },
		},
		{
			Name: "blocked_cleanup",
			Due:  At(3, 0),
			Run:  func(ctx context.Context, _ time.Time) { d.Notifications.CleanupBlocked(ctx) },
		},
		{
			Name: "expired_bans",
			Due:  At(3, 0),
			Run: func(ctx context.Context, _ time.Time) {
				n, err := d.Bans.CleanupExpired(ctx)
				if err != nil {
					logger.Error("Failed to delete expired bans", zap.Error(err))
					return
				}
				logger.Info("Expired bans deleted", zap.Int64("count", n))
			},
		},
		{
			Name:       "group_catalog_sync",
			Due:        EveryMinutes(60),
			RunOnStart: true,
			Run: func(ctx context.Context, _ time.Time) {
				if err := d.Catalog.SyncIfStale(ctx); err != nil {
					logger.Error("Failed to sync group catalog", zap.Error(err))
				}
			},
		},
		{
			Name:       "business_metrics",
			Due:        EveryMinutes(5),
			RunOnStart: true,
			Run:        func(ctx context.Context, _ time.Time) { d.Stats.RefreshBusinessMetrics(ctx) },
		},
		{
			Name: "memory_sweep",
			Due:  EveryMinute,
			Run: func(_ context.Context, _ time.Time) {
				windows := d.Bans.Sweep()
				keyboards := d.Keyboards.Sweep()
				if windows+keyboards > 0 {
					logger.Debug("Memory sweep",
						zap.Int("rate_windows", windows),
						zap.Int("keyboards", keyboards))
				}
			},
		},
	}
}

// Run выполняет задачи в начале каждой минуты до отмены ctx
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler", zap.Int("jobs", len(s.jobs)))

	now := s.clock.Now()
	for _, job := range s.jobs {
		if job.RunOnStart {
			s.runJob(ctx, job, now)
		}
	}

	timer := time.NewTimer(untilNextMinute(s.clock.Now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Background scheduler stopped")
			return nil
		case <-timer.C:
			s.Tick(ctx, s.clock.Now().Truncate(time.Minute))
			timer.Reset(untilNextMinute(s.clock.Now()))
		}
	}
}

// Tick запускает задачи, у которых наступил срок
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	ran := 0
	for _, job := range s.jobs {
		if job.Due(now) {
			s.runJob(ctx, job, now)
			ran++
		}
	}
	return ran
}

func (s *Scheduler) runJob(ctx context.Context, job Job, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled job panicked", zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	job.Run(ctx, now)
	s.logger.Debug("Scheduled job finished",
		zap.String("job", job.Name),
		zap.Duration("elapsed", time.Since(start)))
}

func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}
