package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
)

func TestManager_Expiry(t *testing.T) {
	c := clock.NewManual(time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC))
	sm := NewManager(DefaultTTL, c)
	key := Key{ChatID: 1, UserID: 1}

	sm.SetState(key, StateReplyingFeedback)
	sm.SetData(key, DataFeedbackID, int64(42))

	c.Add(59 * time.Second)
	assert.Equal(t, StateReplyingFeedback, sm.GetState(key))
	id, ok := sm.GetData(key, DataFeedbackID)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	c.Add(time.Second)
	assert.Equal(t, StateNone, sm.GetState(key))
	_, ok = sm.GetData(key, DataFeedbackID)
	assert.False(t, ok)

	assert.Equal(t, 1, sm.Cleanup())
	assert.Zero(t, sm.Len())
}

func TestManager_KeyedByChatAndUser(t *testing.T) {
	c := clock.NewManual(time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC))
	sm := NewManager(0, c)

	private := Key{ChatID: 7, UserID: 7}
	group := Key{ChatID: -100, UserID: 7}

	sm.SetState(private, StateAwaitingFeedback)
	assert.Equal(t, StateNone, sm.GetState(group))

	sm.SetData(group, DataFeedbackID, int64(1))
	_, ok := sm.GetData(group, DataFeedbackID)
	assert.False(t, ok, "data without an active dialog is dropped")

	assert.Equal(t, StateAwaitingFeedback, sm.ClearState(private))
	assert.Equal(t, StateNone, sm.ClearState(private))
}

func TestManager_SetStateRefreshesTTL(t *testing.T) {
	c := clock.NewManual(time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC))
	sm := NewManager(DefaultTTL, c)
	key := Key{ChatID: 1, UserID: 2}

	sm.SetState(key, StateAwaitingCompareGroups)
	c.Add(40 * time.Second)
	sm.SetState(key, StateAwaitingCompareGroups)
	c.Add(40 * time.Second)
	assert.Equal(t, StateAwaitingCompareGroups, sm.GetState(key))

	sm.SetState(key, StateNone)
	assert.Zero(t, sm.Len())
}
