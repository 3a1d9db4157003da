package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

type memoryFeedback struct {
	items  map[int64]*model.FeedbackMessage
	nextID int64
}

func newMemoryFeedback() *memoryFeedback {
	return &memoryFeedback{items: map[int64]*model.FeedbackMessage{}}
}

func (m *memoryFeedback) Create(_ context.Context, f *model.FeedbackMessage) error {
	m.nextID++
	f.ID = m.nextID
	f.Timestamp = time.Date(2025, 10, 15, 12, 30, 0, 0, time.UTC)
	m.items[f.ID] = f
	return nil
}

func (m *memoryFeedback) GetByID(_ context.Context, id int64) (*model.FeedbackMessage, error) {
	return m.items[id], nil
}

func (m *memoryFeedback) ListPage(_ context.Context, limit, offset int) ([]*model.FeedbackMessage, error) {
	ids := make([]int64, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*model.FeedbackMessage
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		out = append(out, m.items[ids[i]])
	}
	return out, nil
}

func (m *memoryFeedback) Count(context.Context) (int, error) {
	return len(m.items), nil
}

func (m *memoryFeedback) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

type staticUsers map[int64]*model.User

func (s staticUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	return s[id], nil
}

func TestFeedbackService_Submit(t *testing.T) {
	ctx := context.Background()
	store := newMemoryFeedback()
	svc := NewFeedbackService(store, staticUsers{}, &fakeMessenger{}, zap.NewNop())

	t.Run("text", func(t *testing.T) {
		f, err := svc.Submit(ctx, NewFeedback{UserID: 10, MessageID: 5, Text: "  Не работает /week  "})
		require.NoError(t, err)
		require.NotNil(t, f.Text)
		assert.Equal(t, "Не работает /week", *f.Text)
		require.NotNil(t, f.UserMessageID)
		assert.Equal(t, 5, *f.UserMessageID)
		assert.Nil(t, f.MediaIDs)
	})

	t.Run("photo without caption", func(t *testing.T) {
		f, err := svc.Submit(ctx, NewFeedback{UserID: 10, MessageID: 6, Media: model.FeedbackMedia{Photo: "AgAD"}})
		require.NoError(t, err)
		assert.Nil(t, f.Text)
		require.NotNil(t, f.MediaIDs)
		assert.JSONEq(t, `{"photo":"AgAD"}`, *f.MediaIDs)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := svc.Submit(ctx, NewFeedback{UserID: 10, Text: "   "})
		assert.ErrorIs(t, err, ErrEmptyFeedback)
	})
}

func TestFeedbackService_Page(t *testing.T) {
	ctx := context.Background()
	store := newMemoryFeedback()
	svc := NewFeedbackService(store, staticUsers{}, &fakeMessenger{}, zap.NewNop())

	for i := 0; i < 23; i++ {
		_, err := svc.Submit(ctx, NewFeedback{UserID: 1, Text: "отзыв"})
		require.NoError(t, err)
	}

	page, err := svc.Page(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, "Непрочитанные фидбеки: 23\nСтраница 1 из 3", page.Header())

	last, err := svc.Page(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, last.Page)
	assert.Len(t, last.Items, 3)
	assert.Equal(t, int64(21), last.Items[0].ID)
}

func TestFeedbackService_Card(t *testing.T) {
	ctx := context.Background()
	store := newMemoryFeedback()
	users := staticUsers{10: {UserID: 10, Username: "student"}}
	svc := NewFeedbackService(store, users, &fakeMessenger{}, zap.NewNop())

	f, err := svc.Submit(ctx, NewFeedback{UserID: 10, Text: "Спасибо!", Media: model.FeedbackMedia{Document: "BQAD"}})
	require.NoError(t, err)

	card, err := svc.Card(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "🧾 Фидбек №1\n👤 От пользователя: @student\n🕒 Время: 2025-10-15 12:30\n\nСпасибо!", card.Text)
	assert.Equal(t, "BQAD", card.Media.Document)

	_, err = svc.Card(ctx, 99)
	assert.ErrorIs(t, err, ErrFeedbackNotFound)
}

func TestFeedbackService_Reply(t *testing.T) {
	ctx := context.Background()

	t.Run("reply to original message", func(t *testing.T) {
		store := newMemoryFeedback()
		messenger := &fakeMessenger{}
		svc := NewFeedbackService(store, staticUsers{}, messenger, zap.NewNop())
		f, err := svc.Submit(ctx, NewFeedback{UserID: 10, MessageID: 5, Text: "вопрос"})
		require.NoError(t, err)

		delivered, err := svc.Reply(ctx, f.ID, "@admin", 500, 77)
		require.NoError(t, err)
		assert.True(t, delivered)

		require.Len(t, messenger.sent, 2)
		assert.Equal(t, "Ответ на твой фидбек #1 от @admin:", messenger.sent[0].text)
		assert.Equal(t, 5, messenger.sent[1].replyTo)
		assert.Equal(t, int64(500), messenger.sent[1].copyFrom)

		count, _ := store.Count(ctx)
		assert.Zero(t, count)
	})

	t.Run("falls back without reply", func(t *testing.T) {
		store := newMemoryFeedback()
		messenger := &fakeMessenger{rejectReplies: true}
		svc := NewFeedbackService(store, staticUsers{}, messenger, zap.NewNop())
		f, err := svc.Submit(ctx, NewFeedback{UserID: 10, MessageID: 5, Text: "вопрос"})
		require.NoError(t, err)

		delivered, err := svc.Reply(ctx, f.ID, "@admin", 500, 77)
		require.NoError(t, err)
		assert.True(t, delivered)
		require.Len(t, messenger.sent, 2)
		assert.Zero(t, messenger.sent[1].replyTo)
	})

	t.Run("user blocked bot", func(t *testing.T) {
		store := newMemoryFeedback()
		messenger := &fakeMessenger{failFor: map[int64]error{10: errors.New("Forbidden: bot was blocked by the user")}}
		svc := NewFeedbackService(store, staticUsers{}, messenger, zap.NewNop())
		f, err := svc.Submit(ctx, NewFeedback{UserID: 10, Text: "вопрос"})
		require.NoError(t, err)

		delivered, err := svc.Reply(ctx, f.ID, "ID 1", 500, 77)
		require.NoError(t, err)
		assert.False(t, delivered)

		count, _ := store.Count(ctx)
		assert.Zero(t, count)
	})

	t.Run("unknown feedback", func(t *testing.T) {
		svc := NewFeedbackService(newMemoryFeedback(), staticUsers{}, &fakeMessenger{}, zap.NewNop())
		_, err := svc.Reply(ctx, 42, "@admin", 500, 77)
		assert.ErrorIs(t, err, ErrFeedbackNotFound)
	})
}
