package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
)

func TestDuePredicates(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 10, 13, h, m, 0, 0, time.UTC) }

	assert.True(t, At(0, 1)(at(0, 1)))
	assert.False(t, At(0, 1)(at(1, 1)))
	assert.False(t, At(3, 0)(at(3, 1)))

	assert.True(t, EveryMinutes(5)(at(10, 25)))
	assert.False(t, EveryMinutes(5)(at(10, 26)))
	assert.True(t, EveryMinutes(60)(at(14, 0)))
	assert.False(t, EveryMinutes(60)(at(14, 30)))

	assert.True(t, EveryMinute(at(7, 13)))
}

func TestScheduler_Tick(t *testing.T) {
	var ran []string
	record := func(name string) func(context.Context, time.Time) {
		return func(context.Context, time.Time) { ran = append(ran, name) }
	}

	s := NewScheduler([]Job{
		{Name: "minute", Due: EveryMinute, Run: record("minute")},
		{Name: "night", Due: At(3, 0), Run: record("night")},
		{Name: "broken", Due: EveryMinute, Run: func(context.Context, time.Time) { panic("boom") }},
	}, clock.NewManual(time.Time{}), zap.NewNop())

	n := s.Tick(context.Background(), time.Date(2025, 10, 13, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"minute", "night"}, ran)

	ran = nil
	s.Tick(context.Background(), time.Date(2025, 10, 13, 3, 1, 0, 0, time.UTC))
	assert.Equal(t, []string{"minute"}, ran)
}

func TestScheduler_RunOnStart(t *testing.T) {
	started := make(chan struct{}, 1)
	s := NewScheduler([]Job{{
		Name:       "sync",
		Due:        func(time.Time) bool { return false },
		RunOnStart: true,
		Run:        func(context.Context, time.Time) { started <- struct{}{} },
	}}, clock.Real{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("job was not run on start")
	}
	cancel()
	assert.NoError(t, <-done)
}

func TestUntilNextMinute(t *testing.T) {
	now := time.Date(2025, 10, 13, 10, 15, 45, 0, time.UTC)
	assert.Equal(t, 15*time.Second, untilNextMinute(now))
}
