package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/metrics"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/queue"
)

type fixedUserCounts struct {
	total, withGroup, active int
	since                    time.Time
}

func (f *fixedUserCounts) Count(context.Context) (int, error)          { return f.total, nil }
func (f *fixedUserCounts) CountWithGroup(context.Context) (int, error) { return f.withGroup, nil }
func (f *fixedUserCounts) CountActiveSince(_ context.Context, since time.Time) (int, error) {
	f.since = since
	return f.active, nil
}

type fixedCount int

func (f fixedCount) Count(context.Context) (int, error) { return int(f), nil }

type fixedBlocked []*model.BlockedUser

func (f fixedBlocked) Count(context.Context) (int, error) { return len(f), nil }
func (f fixedBlocked) ListRecent(_ context.Context, limit int) ([]*model.BlockedUser, error) {
	if len(f) > limit {
		return f[:limit], nil
	}
	return f, nil
}

type fixedQueueStats queue.Stats

func (f fixedQueueStats) Stats() queue.Stats { return queue.Stats(f) }

func TestStatsService_Collect(t *testing.T) {
	users := &fixedUserCounts{total: 120, withGroup: 100, active: 30}
	blocked := fixedBlocked{{UserID: 5, Username: "gone", BlockedAt: wednesday}}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc := NewStatsService(users, fixedCount(7), blocked, fixedCount(3),
		fixedQueueStats{Queued: 2, Sent: 50, Failed: 1, Workers: 5},
		nil, m, clock.NewManual(wednesday), zap.NewNop())

	st, err := svc.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, st.Users)
	assert.Equal(t, 7, st.Chats)
	assert.Equal(t, 1, st.BlockedUsers)
	assert.Equal(t, 3, st.PendingFeedback)
	assert.Equal(t, wednesday.Add(-24*time.Hour), users.since)

	text := st.Text()
	assert.True(t, strings.HasPrefix(text,
		"📊 Статистика бота\n\n👥 Всего пользователей: 120\n💬 Всего чатов: 7\n✅ Пользователей с группой: 100\n"))
	assert.Contains(t, text, "Отправлено: 50\n")

	svc.RefreshBusinessMetrics(context.Background())
	expected := `
# HELP schedule_bot_users Registered users.
# TYPE schedule_bot_users gauge
schedule_bot_users 120
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "schedule_bot_users"))
}

func TestStatsService_BlockedText(t *testing.T) {
	ctx := context.Background()

	empty := NewStatsService(&fixedUserCounts{}, fixedCount(0), fixedBlocked{}, fixedCount(0),
		nil, nil, nil, clock.NewManual(wednesday), zap.NewNop())
	text, err := empty.BlockedText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Никто не заблокировал бота 🎉", text)

	blocked := fixedBlocked{
		{UserID: 5, Username: "gone", BlockedAt: wednesday.Add(9 * time.Hour)},
		{UserID: 6, BlockedAt: wednesday.Add(10 * time.Hour)},
	}
	svc := NewStatsService(&fixedUserCounts{}, fixedCount(0), blocked, fixedCount(0),
		nil, nil, nil, clock.NewManual(wednesday), zap.NewNop())
	text, err = svc.BlockedText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "🚫 Заблокировали бота:\n\n• @gone (ID 5) - 15.10.2025 09:00\n• ID 6 - 15.10.2025 10:00\n", text)
}
