package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/metrics"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/queue"
)

// BlockedListLimit сколько записей показывает /list_blocked
const BlockedListLimit = 20

type UserCounter interface {
	Count(ctx context.Context) (int, error)
	CountWithGroup(ctx context.Context) (int, error)
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type BlockedLister interface {
	Count(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, limit int) ([]*model.BlockedUser, error)
}

type QueueStatser interface {
	Stats() queue.Stats
}

// Stats снимок статистики бота
type Stats struct {
	Users           int
	Chats           int
	UsersWithGroup  int
	ActiveToday     int
	BlockedUsers    int
	PendingFeedback int
	Queue           queue.Stats
	CacheHits       uint64
	CacheMisses     uint64
}

type StatsService struct {
	users     UserCounter
	chats     Counter
	blocked   BlockedLister
	feedback  Counter
	queue     QueueStatser
	schedules *ScheduleService
	metrics   *metrics.Metrics
	clock     clock.Clock
	logger    *zap.Logger
}

func NewStatsService(
	users UserCounter,
	chats Counter,
	blocked BlockedLister,
	feedback Counter,
	q QueueStatser,
	schedules *ScheduleService,
	m *metrics.Metrics,
	c clock.Clock,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		users:     users,
		chats:     chats,
		blocked:   blocked,
		feedback:  feedback,
		queue:     q,
		schedules: schedules,
		metrics:   m,
		clock:     c,
		logger:    logger,
	}
}

// Collect собирает статистику из БД и очереди
func (s *StatsService) Collect(ctx context.Context) (*Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if st.UsersWithGroup, err = s.users.CountWithGroup(ctx); err != nil {
		return nil, err
	}
	if st.ActiveToday, err = s.users.CountActiveSince(ctx, s.clock.Now().Add(-24*time.Hour)); err != nil {
		return nil, err
	}
	if st.Chats, err = s.chats.Count(ctx); err != nil {
		return nil, err
	}
	if st.BlockedUsers, err = s.blocked.Count(ctx); err != nil {
		return nil, err
	}
	if st.PendingFeedback, err = s.feedback.Count(ctx); err != nil {
		return nil, err
	}
	if s.queue != nil {
		st.Queue = s.queue.Stats()
	}
	if s.schedules != nil {
		st.CacheHits, st.CacheMisses = s.schedules.CacheStats()
	}
	return &st, nil
}

// Text ответ на /stat
func (st *Stats) Text() string {
	var b strings.Builder
	b.WriteString("📊 Статистика бота\n\n")
	fmt.Fprintf(&b, "👥 Всего пользователей: %d\n", st.Users)
	fmt.Fprintf(&b, "💬 Всего чатов: %d\n", st.Chats)
	fmt.Fprintf(&b, "✅ Пользователей с группой: %d\n", st.UsersWithGroup)
	fmt.Fprintf(&b, "🔥 Активны за сутки: %d\n", st.ActiveToday)
	fmt.Fprintf(&b, "🚫 Заблокировали бота: %d\n", st.BlockedUsers)
	fmt.Fprintf(&b, "📩 Фидбеков в ожидании: %d\n", st.PendingFeedback)
	b.WriteString("\n📮 Очередь сообщений\n")
	fmt.Fprintf(&b, "В очереди: %d\n", st.Queue.Queued)
	fmt.Fprintf(&b, "Отправлено: %d\n", st.Queue.Sent)
	fmt.Fprintf(&b, "Ошибок: %d\n", st.Queue.Failed)
	fmt.Fprintf(&b, "Повторов: %d\n", st.Queue.Retried)
	fmt.Fprintf(&b, "Воркеров: %d\n", st.Queue.Workers)
	if total := st.CacheHits + st.CacheMisses; total > 0 {
		fmt.Fprintf(&b, "\n🗄 Кэш расписаний: %d%% попаданий\n", st.CacheHits*100/total)
	}
	return b.String()
}

// RefreshBusinessMetrics обновляет gauge-метрики из БД
func (s *StatsService) RefreshBusinessMetrics(ctx context.Context) {
	st, err := s.Collect(ctx)
	if err != nil {
		s.logger.Error("Failed to refresh business metrics", zap.Error(err))
		return
	}
	s.metrics.SetBusiness(metrics.BusinessStats{
		Users:           st.Users,
		Chats:           st.Chats,
		UsersWithGroup:  st.UsersWithGroup,
		BlockedUsers:    st.BlockedUsers,
		PendingFeedback: st.PendingFeedback,
	})
	s.logger.Debug("Business metrics refreshed",
		zap.Int("users", st.Users),
		zap.Int("chats", st.Chats),
	)
}

// BlockedText ответ на /list_blocked
func (s *StatsService) BlockedText(ctx context.Context) (string, error) {
	users, err := s.blocked.ListRecent(ctx, BlockedListLimit)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "Никто не заблокировал бота 🎉", nil
	}

	var b strings.Builder
	b.WriteString("🚫 Заблокировали бота:\n\n")
	for _, u := range users {
		name := fmt.Sprintf("ID %d", u.UserID)
		if u.Username != "" {
			name = "@" + u.Username + " (" + name + ")"
		}
		fmt.Fprintf(&b, "• %s - %s\n", name, u.BlockedAt.In(s.location()).Format("02.01.2006 15:04"))
	}
	return b.String(), nil
}

func (s *StatsService) location() *time.Location {
	return s.clock.Now().Location()
}
