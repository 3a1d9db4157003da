package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(workers int) Config {
	return Config{
		Workers:       workers,
		RatePerSecond: 1000,
		MaxAttempts:   3,
		RetryDelay:    time.Millisecond,
		FloodDelay:    time.Millisecond,
	}
}

func runQueue(t *testing.T, q *Queue) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestQueue_PriorityOrder(t *testing.T) {
	q := New(testConfig(1), nil, zap.NewNop())

	var (
		mu    sync.Mutex
		order []string
		wg    sync.WaitGroup
	)
	record := func(name string) SendFunc {
		wg.Add(1)
		return func(context.Context) error {
			defer wg.Done()
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	q.Enqueue(PriorityLow, 1, record("low-1"))
	q.Enqueue(PriorityNormal, 2, record("normal-1"))
	q.Enqueue(PriorityHigh, 3, record("high-1"))
	q.Enqueue(PriorityNormal, 4, record("normal-2"))
	q.Enqueue(PriorityHigh, 5, record("high-2"))

	stop := runQueue(t, q)
	defer stop()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"high-1", "high-2", "normal-1", "normal-2", "low-1"}, order)
	assert.Equal(t, int64(5), q.Stats().Sent)
}

func TestQueue_RetriesTransientErrors(t *testing.T) {
	q := New(testConfig(2), nil, zap.NewNop())

	var (
		mu    sync.Mutex
		calls int
	)
	done := make(chan struct{})
	q.Enqueue(PriorityNormal, 1, func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return errors.New("Bad Gateway")
		}
		close(done)
		return nil
	})

	stop := runQueue(t, q)
	defer stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}

	require.Eventually(t, func() bool { return q.Stats().Sent == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), q.Stats().Retried)
}

func TestQueue_GivesUpAfterMaxAttempts(t *testing.T) {
	q := New(testConfig(1), nil, zap.NewNop())

	var (
		mu    sync.Mutex
		calls int
	)
	q.Enqueue(PriorityNormal, 1, func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("internal server error")
	})

	stop := runQueue(t, q)
	defer stop()

	require.Eventually(t, func() bool { return q.Stats().Failed == 1 }, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
}

func TestQueue_BlockedIsNotRetried(t *testing.T) {
	q := New(testConfig(1), nil, zap.NewNop())

	blocked := make(chan int64, 1)
	q.OnBlocked(func(chatID int64) { blocked <- chatID })

	var (
		mu    sync.Mutex
		calls int
	)
	q.Enqueue(PriorityHigh, 42, func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("Forbidden: bot was blocked by the user")
	})

	stop := runQueue(t, q)
	defer stop()

	select {
	case id := <-blocked:
		assert.Equal(t, int64(42), id)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked hook was not called")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), q.Stats().Blocked)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{errors.New("Forbidden: bot was blocked by the user"), ErrorBlocked},
		{errors.New("Forbidden: user is deactivated"), ErrorBlocked},
		{errors.New("Bad Request: chat not found"), ErrorBlocked},
		{errors.New("Too Many Requests: retry after 5"), ErrorFlood},
		{&bot.TooManyRequestsError{Message: "Too Many Requests", RetryAfter: 3}, ErrorFlood},
		{fmt.Errorf("send: %w", &bot.TooManyRequestsError{Message: "Too Many Requests", RetryAfter: 3}), ErrorFlood},
		{fmt.Errorf("%w, %s", bot.ErrorForbidden, "Forbidden: bot is not a member of the channel chat"), ErrorBlocked},
		{errors.New("Bad Request: message is not modified"), ErrorNotModified},
		{errors.New("connection reset"), ErrorOther},
		{nil, ErrorOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, Classify(tt.err), "%v", tt.err)
	}
}

func TestNew_FillsDelayDefaults(t *testing.T) {
	q := New(Config{Workers: 1, RatePerSecond: 30}, nil, zap.NewNop())

	def := DefaultConfig()
	assert.Equal(t, def.MaxAttempts, q.cfg.MaxAttempts)
	assert.Equal(t, def.RetryDelay, q.cfg.RetryDelay)
	assert.Equal(t, def.FloodDelay, q.cfg.FloodDelay)
	assert.Equal(t, 5*time.Second, q.cfg.RetryDelay)
}

func TestQueue_RetryWaitsBetweenAttempts(t *testing.T) {
	const delay = 40 * time.Millisecond
	q := New(Config{Workers: 1, RatePerSecond: 1000, RetryDelay: delay}, nil, zap.NewNop())

	var (
		mu    sync.Mutex
		calls []time.Time
	)
	q.Enqueue(PriorityNormal, 1, func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, time.Now())
		return errors.New("Bad Gateway")
	})

	stop := runQueue(t, q)
	defer stop()

	require.Eventually(t, func() bool { return q.Stats().Failed == 1 }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 3)
	assert.GreaterOrEqual(t, calls[1].Sub(calls[0]), delay)
	assert.GreaterOrEqual(t, calls[2].Sub(calls[1]), 2*delay)
}

func TestFloodWait(t *testing.T) {
	fallback := 5 * time.Second

	assert.Equal(t, 2*time.Second, floodWait(&bot.TooManyRequestsError{Message: "Too Many Requests", RetryAfter: 2}, fallback))
	assert.Equal(t, 7*time.Second, floodWait(fmt.Errorf("edit: %w", &bot.TooManyRequestsError{RetryAfter: 7}), fallback))
	assert.Equal(t, fallback, floodWait(&bot.TooManyRequestsError{Message: "Too Many Requests"}, fallback))
	assert.Equal(t, fallback, floodWait(errors.New("Too Many Requests: retry after 5"), fallback))
}
