package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/queue"
)

func TestKeyboardCleaner_Sweep(t *testing.T) {
	c := clock.NewManual(wednesday)
	q := &fakeQueue{}
	messenger := &fakeMessenger{}
	cleaner := NewKeyboardCleaner(q, messenger, time.Hour, c, zap.NewNop())

	cleaner.Track(1, 100)
	c.Add(30 * time.Minute)
	cleaner.Track(1, 101)
	cleaner.Track(2, 200)
	cleaner.Forget(2, 200)
	assert.Equal(t, 2, cleaner.Tracked())

	assert.Zero(t, cleaner.Sweep())

	c.Add(30 * time.Minute)
	assert.Equal(t, 1, cleaner.Sweep())
	require.Len(t, q.jobs, 1)
	assert.Equal(t, queue.PriorityLow, q.jobs[0].priority)

	q.drain(context.Background())
	assert.Equal(t, []int{100}, messenger.cleared)
	assert.Equal(t, 1, cleaner.Tracked())

	c.Add(time.Hour)
	assert.Equal(t, 1, cleaner.Sweep())
	assert.Zero(t, cleaner.Tracked())
}

func TestKeyboardCleaner_Disabled(t *testing.T) {
	cleaner := NewKeyboardCleaner(&fakeQueue{}, &fakeMessenger{}, 0, clock.NewManual(wednesday), zap.NewNop())
	cleaner.Track(1, 100)
	assert.Zero(t, cleaner.Tracked())

	var nilCleaner *KeyboardCleaner
	assert.NotPanics(t, func() { nilCleaner.Track(1, 1) })
}
