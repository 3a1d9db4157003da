package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/queue"
)

// IDLister список id всех получателей
type IDLister interface {
	AllIDs(ctx context.Context) ([]int64, error)
}

// BroadcastConfig темп рассылки
type BroadcastConfig struct {
	BatchSize int
	Interval  time.Duration
}

// BroadcastReport итог рассылки
type BroadcastReport struct {
	RunID      string
	Recipients int
	Queued     int
}

// Failed получатели, до которых рассылка не дошла из-за остановки
func (r BroadcastReport) Failed() int {
	return r.Recipients - r.Queued
}

// Text отчёт для администратора
func (r BroadcastReport) Text() string {
	text := "📢 Рассылка завершена!\n\n"
	text += fmt.Sprintf("✅ Успешно отправлено: %d\n", r.Queued)
	if r.Failed() > 0 {
		text += fmt.Sprintf("❌ Ошибок: %d\n", r.Failed())
	}
	text += fmt.Sprintf("📊 Всего получателей: %d", r.Recipients)
	return text
}

type BroadcastService struct {
	users     IDLister
	chats     IDLister
	queue     Enqueuer
	messenger Messenger
	cfg       BroadcastConfig
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *zap.Logger
}

func NewBroadcastService(users, chats IDLister, q Enqueuer, messenger Messenger, cfg BroadcastConfig, logger *zap.Logger) *BroadcastService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	return &BroadcastService{
		users:     users,
		chats:     chats,
		queue:     q,
		messenger: messenger,
		cfg:       cfg,
		sleep:     sleepCtx,
		logger:    logger,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Recipients все пользователи и чаты
func (s *BroadcastService) Recipients(ctx context.Context) ([]int64, error) {
	users, err := s.users.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list broadcast users: %w", err)
	}
	chats, err := s.chats.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list broadcast chats: %w", err)
	}
	return append(users, chats...), nil
}

// Broadcast копирует сообщение fromChatID/messageID всем получателям пачками
func (s *BroadcastService) Broadcast(ctx context.Context, fromChatID int64, messageID int) (*BroadcastReport, error) {
	recipients, err := s.Recipients(ctx)
	if err != nil {
		return nil, err
	}

	report := &BroadcastReport{RunID: uuid.NewString(), Recipients: len(recipients)}
	if len(recipients) == 0 {
		return report, nil
	}

	s.logger.Info("📢 Broadcast started",
		zap.String("run_id", report.RunID),
		zap.Int("recipients", len(recipients)),
		zap.Int64("from_chat_id", fromChatID),
	)

	for start := 0; start < len(recipients); start += s.cfg.BatchSize {
		if start > 0 {
			if err := s.sleep(ctx, s.cfg.Interval); err != nil {
				s.logger.Warn("Broadcast interrupted",
					zap.String("run_id", report.RunID),
					zap.Int("queued", report.Queued),
				)
				return report, nil
			}
		}

		end := min(start+s.cfg.BatchSize, len(recipients))
		for _, chatID := range recipients[start:end] {
			to := chatID
			s.queue.Enqueue(queue.PriorityNormal, to, func(ctx context.Context) error {
				return s.messenger.CopyMessage(ctx, to, 0, fromChatID, messageID, 0)
			})
			report.Queued++
		}
	}

	s.logger.Info("📢 Broadcast queued",
		zap.String("run_id", report.RunID),
		zap.Int("queued", report.Queued),
	)
	return report, nil
}
