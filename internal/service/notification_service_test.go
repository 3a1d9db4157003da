package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/queue"
)

type queuedJob struct {
	priority queue.Priority
	chatID   int64
	send     queue.SendFunc
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []queuedJob
}

func (q *fakeQueue) Enqueue(p queue.Priority, chatID int64, send queue.SendFunc) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, queuedJob{priority: p, chatID: chatID, send: send})
	return fmt.Sprintf("job-%d", len(q.jobs))
}

// drain выполняет все задания по порядку
func (q *fakeQueue) drain(ctx context.Context) []error {
	q.mu.Lock()
	jobs := q.jobs
	q.jobs = nil
	q.mu.Unlock()

	var errs []error
	for _, j := range jobs {
		errs = append(errs, j.send(ctx))
	}
	return errs
}

type sentMessage struct {
	chatID   int64
	threadID int
	text     string
	copyFrom int64
	msgID    int
	replyTo  int
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	cleared []int
	failFor map[int64]error

	rejectReplies bool
}

func (m *fakeMessenger) SendText(_ context.Context, chatID int64, threadID int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[chatID]; err != nil {
		return err
	}
	m.sent = append(m.sent, sentMessage{chatID: chatID, threadID: threadID, text: text})
	return nil
}

func (m *fakeMessenger) CopyMessage(_ context.Context, chatID int64, threadID int, fromChatID int64, messageID int, replyTo int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[chatID]; err != nil {
		return err
	}
	if m.rejectReplies && replyTo != 0 {
		return errors.New("Bad Request: message to be replied not found")
	}
	m.sent = append(m.sent, sentMessage{
		chatID:   chatID,
		threadID: threadID,
		copyFrom: fromChatID,
		msgID:    messageID,
		replyTo:  replyTo,
	})
	return nil
}

func (m *fakeMessenger) ClearKeyboard(_ context.Context, _ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, messageID)
	return nil
}

type notifyUsers struct {
	daily  map[string][]*model.User
	online []*model.User
}

func (n notifyUsers) ListForNotificationTime(_ context.Context, hhmm string) ([]*model.User, error) {
	return n.daily[hhmm], nil
}

func (n notifyUsers) ListOnlineSubscribers(context.Context) ([]*model.User, error) {
	return n.online, nil
}

type notifyChats struct {
	daily  map[string][]*model.Chat
	online []*model.Chat
}

func (n notifyChats) ListForNotificationTime(_ context.Context, hhmm string) ([]*model.Chat, error) {
	return n.daily[hhmm], nil
}

func (n notifyChats) ListOnlineSubscribers(context.Context) ([]*model.Chat, error) {
	return n.online, nil
}

type memoryAlerts struct {
	marked map[string]bool
}

func (m *memoryAlerts) Mark(_ context.Context, a *model.AlertedLesson) (bool, error) {
	key := fmt.Sprintf("%d|%s|%s|%s", a.ChatID, a.Date.Format("2006-01-02"), a.StartTime, a.Subject)
	if m.marked[key] {
		return false, nil
	}
	m.marked[key] = true
	return true, nil
}

func (m *memoryAlerts) Clear(context.Context) (int64, error) {
	n := int64(len(m.marked))
	m.marked = map[string]bool{}
	return n, nil
}

type memoryBlockedCleaner struct {
	before time.Time
}

func (m *memoryBlockedCleaner) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	m.before = before
	return 2, nil
}

func onlineLecture() model.Lesson {
	l := mathLecture()
	l.Rooms = nil
	l.Location = ""
	l.Link = "https://meet.example.org/math"
	return l
}

func TestNotificationService_SendDaily(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.groups["241-362"] = model.WeekSchedule{"wednesday": {"1": {mathLecture()}}}
	schedules := newTestScheduleService(src, nil)

	thread := int64(77)
	notifyTime := "08:00"
	users := notifyUsers{daily: map[string][]*model.User{
		"08:00": {
			{UserID: 1, Group: "241-362", NotificationTime: &notifyTime},
			{UserID: 2, Group: ""},
		},
	}}
	chats := notifyChats{daily: map[string][]*model.Chat{
		"08:00": {{ChatID: -100, Group: "241-362", ThreadID: &thread}},
	}}

	q := &fakeQueue{}
	messenger := &fakeMessenger{}
	svc := NewNotificationService(users, chats, &memoryAlerts{marked: map[string]bool{}},
		&memoryBlockedCleaner{}, schedules, q, messenger, clock.NewManual(wednesday), zap.NewNop())

	now := wednesday.Add(8 * time.Hour)
	assert.Equal(t, 2, svc.SendDaily(ctx, now))
	require.Len(t, q.jobs, 2)
	assert.Equal(t, queue.PriorityNormal, q.jobs[0].priority)

	for _, err := range q.drain(ctx) {
		require.NoError(t, err)
	}
	require.Len(t, messenger.sent, 2)
	assert.Equal(t, int64(1), messenger.sent[0].chatID)
	assert.Contains(t, messenger.sent[0].text, "Математика")
	assert.Equal(t, int64(-100), messenger.sent[1].chatID)
	assert.Equal(t, 77, messenger.sent[1].threadID)

	assert.Zero(t, svc.SendDaily(ctx, now.Add(time.Minute)))
}

func TestNotificationService_SendOnlineReminders(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.groups["241-362"] = model.WeekSchedule{"wednesday": {
		"1": {onlineLecture()},
		"2": {mathLecture()},
	}}
	schedules := newTestScheduleService(src, nil)

	users := notifyUsers{online: []*model.User{{UserID: 1, Group: "241-362", NotifyOnline: true}}}
	alerts := &memoryAlerts{marked: map[string]bool{}}
	q := &fakeQueue{}
	messenger := &fakeMessenger{}
	svc := NewNotificationService(users, notifyChats{}, alerts, &memoryBlockedCleaner{},
		schedules, q, messenger, clock.NewManual(wednesday), zap.NewNop())

	t.Run("reminder five minutes before", func(t *testing.T) {
		now := wednesday.Add(8*time.Hour + 55*time.Minute)
		assert.Equal(t, 1, svc.SendOnlineReminders(ctx, now))
		require.Len(t, q.jobs, 1)
		assert.Equal(t, queue.PriorityHigh, q.jobs[0].priority)

		q.drain(ctx)
		require.Len(t, messenger.sent, 1)
		assert.Equal(t, "🔔 Напоминание!\n\n🕐 09:00-10:30\n📚 Математика (Лекция)\n👨‍🏫 Иванов И.И.\n"+
			"🔗 https://meet.example.org/math\n\n⏰ Начало через 5 минут!", messenger.sent[0].text)
	})

	t.Run("no duplicate", func(t *testing.T) {
		now := wednesday.Add(8*time.Hour + 55*time.Minute)
		assert.Zero(t, svc.SendOnlineReminders(ctx, now))
	})

	t.Run("offline lesson skipped", func(t *testing.T) {
		now := wednesday.Add(10*time.Hour + 35*time.Minute)
		assert.Zero(t, svc.SendOnlineReminders(ctx, now))
	})

	t.Run("cleared after daily cleanup", func(t *testing.T) {
		svc.DailyCleanup(ctx)
		now := wednesday.Add(8*time.Hour + 55*time.Minute)
		assert.Equal(t, 1, svc.SendOnlineReminders(ctx, now))
	})
}

func TestNotificationService_HolidaySkipsReminders(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.groups["241-362"] = model.WeekSchedule{"wednesday": {"1": {onlineLecture()}}}
	holidays := fakeHolidays{"241-362@2025-10-15": {Group: "241-362", Type: "Каникулы"}}
	schedules := newTestScheduleService(src, holidays)

	users := notifyUsers{online: []*model.User{{UserID: 1, Group: "241-362", NotifyOnline: true}}}
	q := &fakeQueue{}
	svc := NewNotificationService(users, notifyChats{}, &memoryAlerts{marked: map[string]bool{}},
		&memoryBlockedCleaner{}, schedules, q, &fakeMessenger{}, clock.NewManual(wednesday), zap.NewNop())

	assert.Zero(t, svc.SendOnlineReminders(ctx, wednesday.Add(8*time.Hour+55*time.Minute)))
	assert.Empty(t, q.jobs)
}

func TestNotificationService_CleanupBlocked(t *testing.T) {
	cleaner := &memoryBlockedCleaner{}
	svc := NewNotificationService(notifyUsers{}, notifyChats{}, &memoryAlerts{marked: map[string]bool{}},
		cleaner, newTestScheduleService(newFakeSource(), nil), &fakeQueue{}, &fakeMessenger{},
		clock.NewManual(wednesday), zap.NewNop())

	svc.CleanupBlocked(context.Background())
	assert.Equal(t, wednesday.Add(-7*24*time.Hour), cleaner.before)
}
