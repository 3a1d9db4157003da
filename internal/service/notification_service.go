package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/queue"
)

const (
	// OnlineReminderLead за сколько до начала онлайн-пары приходит напоминание
	OnlineReminderLead = 5 * time.Minute
	// BlockedRetention сколько хранится отметка о блокировке бота
	BlockedRetention = 7 * 24 * time.Hour
)

// Messenger отправка сообщений в Telegram
type Messenger interface {
	SendText(ctx context.Context, chatID int64, threadID int, text string) error
	CopyMessage(ctx context.Context, chatID int64, threadID int, fromChatID int64, messageID int, replyTo int) error
	ClearKeyboard(ctx context.Context, chatID int64, messageID int) error
}

// Enqueuer очередь исходящих сообщений
type Enqueuer interface {
	Enqueue(p queue.Priority, chatID int64, send queue.SendFunc) string
}

// NotifyUserStore выборки пользователей для рассылок
type NotifyUserStore interface {
	ListForNotificationTime(ctx context.Context, hhmm string) ([]*model.User, error)
	ListOnlineSubscribers(ctx context.Context) ([]*model.User, error)
}

// NotifyChatStore выборки чатов для рассылок
type NotifyChatStore interface {
	ListForNotificationTime(ctx context.Context, hhmm string) ([]*model.Chat, error)
	ListOnlineSubscribers(ctx context.Context) ([]*model.Chat, error)
}

// AlertStore отметки об отправленных напоминаниях
type AlertStore interface {
	Mark(ctx context.Context, a *model.AlertedLesson) (bool, error)
	Clear(ctx context.Context) (int64, error)
}

// BlockedCleaner очистка старых отметок о блокировке
type BlockedCleaner interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type NotificationService struct {
	users     NotifyUserStore
	chats     NotifyChatStore
	alerts    AlertStore
	blocked   BlockedCleaner
	schedules *ScheduleService
	queue     Enqueuer
	messenger Messenger
	clock     clock.Clock
	logger    *zap.Logger
}

func NewNotificationService(
	users NotifyUserStore,
	chats NotifyChatStore,
	alerts AlertStore,
	blocked BlockedCleaner,
	schedules *ScheduleService,
	q Enqueuer,
	messenger Messenger,
	c clock.Clock,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		users:     users,
		chats:     chats,
		alerts:    alerts,
		blocked:   blocked,
		schedules: schedules,
		queue:     q,
		messenger: messenger,
		clock:     c,
		logger:    logger,
	}
}

func userRecipients(users []*model.User) []model.Recipient {
	out := make([]model.Recipient, 0, len(users))
	for _, u := range users {
		if !u.HasGroup() {
			continue
		}
		out = append(out, model.Recipient{ChatID: u.UserID, Group: u.Group, Subgroup: u.SubgroupValue()})
	}
	return out
}

func chatRecipients(chats []*model.Chat) []model.Recipient {
	out := make([]model.Recipient, 0, len(chats))
	for _, c := range chats {
		if c.Group == "" {
			continue
		}
		r := model.Recipient{ChatID: c.ChatID, Group: c.Group, IsChat: true}
		if c.ThreadID != nil {
			r.ThreadID = int(*c.ThreadID)
		}
		out = append(out, r)
	}
	return out
}

func (s *NotificationService) send(p queue.Priority, r model.Recipient, text string) {
	s.queue.Enqueue(p, r.ChatID, func(ctx context.Context) error {
		return s.messenger.SendText(ctx, r.ChatID, r.ThreadID, text)
	})
}

// SendDaily ставит в очередь расписание на сегодня всем, у кого время рассылки совпадает с now
func (s *NotificationService) SendDaily(ctx context.Context, now time.Time) int {
	hhmm := now.Format("15:04")

	var recipients []model.Recipient
	users, err := s.users.ListForNotificationTime(ctx, hhmm)
	if err != nil {
		s.logger.Error("Failed to list users for daily notification", zap.String("time", hhmm), zap.Error(err))
	} else {
		recipients = append(recipients, userRecipients(users)...)
	}
	chats, err := s.chats.ListForNotificationTime(ctx, hhmm)
	if err != nil {
		s.logger.Error("Failed to list chats for daily notification", zap.String("time", hhmm), zap.Error(err))
	} else {
		recipients = append(recipients, chatRecipients(chats)...)
	}

	for _, r := range recipients {
		text := s.schedules.DayResponse(ctx, r.Group, now, r.Subgroup)
		s.send(queue.PriorityNormal, r, text)
	}

	if len(recipients) > 0 {
		s.logger.Info("Daily notifications queued",
			zap.String("time", hhmm),
			zap.Int("recipients", len(recipients)),
		)
	}
	return len(recipients)
}

// ReminderText текст напоминания об онлайн-паре
func ReminderText(l model.Lesson, t ScheduleType) string {
	return "🔔 Напоминание!\n\n" + strings.TrimSpace(FormatLesson(l, t)) + "\n\n⏰ Начало через 5 минут!"
}

// SendOnlineReminders напоминания об онлайн-парах, начинающихся через OnlineReminderLead
func (s *NotificationService) SendOnlineReminders(ctx context.Context, now time.Time) int {
	target := now.Add(OnlineReminderLead).Format("15:04")
	today := startOfDay(now)

	var recipients []model.Recipient
	users, err := s.users.ListOnlineSubscribers(ctx)
	if err != nil {
		s.logger.Error("Failed to list online subscribers", zap.Error(err))
	} else {
		recipients = append(recipients, userRecipients(users)...)
	}
	chats, err := s.chats.ListOnlineSubscribers(ctx)
	if err != nil {
		s.logger.Error("Failed to list online chats", zap.Error(err))
	} else {
		recipients = append(recipients, chatRecipients(chats)...)
	}

	sent := 0
	for _, r := range recipients {
		if s.schedules.IsHoliday(ctx, r.Group, today) {
			continue
		}
		lessons, err := s.schedules.LessonsOn(ctx, r.Group, today, r.Subgroup)
		if err != nil {
			continue
		}
		for _, l := range lessons {
			if !l.IsOnline() {
				continue
			}
			start, _, ok := PairTime(s.schedules.ScheduleType(), l.Pair)
			if !ok || start != target {
				continue
			}

			inserted, err := s.alerts.Mark(ctx, &model.AlertedLesson{
				ChatID:    r.ChatID,
				Date:      today,
				StartTime: start,
				Subject:   l.Subject,
			})
			if err != nil {
				s.logger.Error("Failed to mark alerted lesson",
					zap.Int64("chat_id", r.ChatID),
					zap.String("subject", l.Subject),
					zap.Error(err),
				)
				continue
			}
			if !inserted {
				continue
			}

			s.send(queue.PriorityHigh, r, ReminderText(l, s.schedules.ScheduleType()))
			sent++
		}
	}

	if sent > 0 {
		s.logger.Info("Online reminders queued", zap.String("start", target), zap.Int("count", sent))
	}
	return sent
}

// DailyCleanup ночной сброс отметок о напоминаниях и кэша расписаний
func (s *NotificationService) DailyCleanup(ctx context.Context) {
	n, err := s.alerts.Clear(ctx)
	if err != nil {
		s.logger.Error("Failed to clear alerted lessons", zap.Error(err))
	} else {
		s.logger.Info("Alerted lessons cleared", zap.Int64("count", n))
	}
	s.schedules.ClearCache()
}

// CleanupBlocked удаляет отметки о блокировке старше BlockedRetention
func (s *NotificationService) CleanupBlocked(ctx context.Context) {
	n, err := s.blocked.DeleteOlderThan(ctx, s.clock.Now().Add(-BlockedRetention))
	if err != nil {
		s.logger.Error("Failed to cleanup blocked users", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Blocked users cleaned up", zap.Int64("count", n))
	}
}
