// Package queue приоритетная очередь исходящих сообщений с ограничением частоты отправки
package queue

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Freeeeeet/poly_schedule_bot/internal/metrics"
)

// Priority приоритет сообщения
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// SendFunc выполняет один запрос к Telegram
type SendFunc func(ctx context.Context) error

type job struct {
	id       string
	chatID   int64
	priority Priority
	seq      uint64
	send     SendFunc
}

// jobHeap: старший приоритет первым, внутри приоритета FIFO
type jobHeap []*job

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)   { *h = append(*h, x.(*job)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

type Config struct {
	Workers       int
	RatePerSecond int
	MaxAttempts   int
	RetryDelay    time.Duration
	FloodDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:       5,
		RatePerSecond: 30,
		MaxAttempts:   3,
		RetryDelay:    5 * time.Second,
		FloodDelay:    5 * time.Second,
	}
}

// Stats счётчики очереди
type Stats struct {
	Queued  int
	Sent    int64
	Failed  int64
	Retried int64
	Blocked int64
	Workers int
}

type Queue struct {
	cfg     Config
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu   sync.Mutex
	jobs jobHeap
	seq  uint64
	wake chan struct{}

	onBlocked func(chatID int64)

	sent    atomic.Int64
	failed  atomic.Int64
	retried atomic.Int64
	blocked atomic.Int64
}

func New(cfg Config, m *metrics.Metrics, logger *zap.Logger) *Queue {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = def.RatePerSecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.FloodDelay <= 0 {
		cfg.FloodDelay = def.FloodDelay
	}
	return &Queue{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RatePerSecond),
		metrics: m,
		logger:  logger,
		wake:    make(chan struct{}, cfg.Workers),
	}
}

// OnBlocked задаёт обработчик для чатов, где бот заблокирован; вызывать до Run
func (q *Queue) OnBlocked(fn func(chatID int64)) {
	q.onBlocked = fn
}

// Enqueue ставит отправку в очередь и возвращает id задания
func (q *Queue) Enqueue(p Priority, chatID int64, send SendFunc) string {
	j := &job{
		id:       uuid.NewString(),
		chatID:   chatID,
		priority: p,
		send:     send,
	}

	q.mu.Lock()
	q.seq++
	j.seq = q.seq
	heap.Push(&q.jobs, j)
	depth := q.jobs.Len()
	q.mu.Unlock()

	q.metrics.QueueDepth(depth)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return j.id
}

func (q *Queue) pop() *job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.jobs.Len() == 0 {
		return nil
	}
	j := heap.Pop(&q.jobs).(*job)
	q.metrics.QueueDepth(q.jobs.Len())
	return j
}

// Len количество ожидающих заданий
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.jobs.Len()
}

func (q *Queue) Stats() Stats {
	return Stats{
		Queued:  q.Len(),
		Sent:    q.sent.Load(),
		Failed:  q.failed.Load(),
		Retried: q.retried.Load(),
		Blocked: q.blocked.Load(),
		Workers: q.cfg.Workers,
	}
}

// Run запускает воркеров и блокируется до отмены ctx; оставшиеся задания отбрасываются
func (q *Queue) Run(ctx context.Context) error {
	q.logger.Info("📮 Message queue started",
		zap.Int("workers", q.cfg.Workers),
		zap.Int("rate_per_second", q.cfg.RatePerSecond),
	)

	var wg sync.WaitGroup
	for i := 0; i < q.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.worker(ctx, id)
		}(i)
	}
	wg.Wait()

	s := q.Stats()
	q.logger.Info("Message queue stopped",
		zap.Int64("sent", s.Sent),
		zap.Int64("failed", s.Failed),
		zap.Int64("retried", s.Retried),
		zap.Int("dropped", s.Queued),
	)
	return nil
}

func (q *Queue) worker(ctx context.Context, id int) {
	idle := time.NewTicker(time.Second)
	defer idle.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if j := q.pop(); j != nil {
			q.deliver(ctx, j)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		case <-idle.C:
		}
	}
}

func (q *Queue) backoff() retry.Backoff {
	attempt := 0
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return q.cfg.RetryDelay * time.Duration(attempt), false
	})
	return retry.WithMaxRetries(uint64(q.cfg.MaxAttempts-1), linear)
}

func (q *Queue) deliver(ctx context.Context, j *job) {
	attempt := 0
	err := retry.Do(ctx, q.backoff(), func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			q.retried.Add(1)
		}
		if err := q.limiter.Wait(ctx); err != nil {
			return err
		}

		err := j.send(ctx)
		if err == nil {
			return nil
		}

		switch kind := Classify(err); kind {
		case ErrorNotModified:
			q.logger.Debug("Ignoring noop edit", zap.Int64("chat_id", j.chatID))
			return nil
		case ErrorBlocked:
			return err
		case ErrorFlood:
			wait := floodWait(err, q.cfg.FloodDelay)
			q.logger.Warn("Telegram rate limit hit",
				zap.Int64("chat_id", j.chatID),
				zap.Duration("wait", wait),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			return retry.RetryableError(err)
		default:
			q.logger.Warn("Send failed, will retry",
				zap.String("job_id", j.id),
				zap.Int64("chat_id", j.chatID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
	})

	if err == nil {
		q.sent.Add(1)
		q.metrics.MessageSent()
		return
	}

	kind := Classify(err)
	q.failed.Add(1)
	q.metrics.MessageFailed(kind.String())

	if kind == ErrorBlocked {
		q.blocked.Add(1)
		q.logger.Warn("Chat unavailable, message dropped",
			zap.Int64("chat_id", j.chatID),
			zap.Error(err),
		)
		if q.onBlocked != nil {
			q.onBlocked(j.chatID)
		}
		return
	}

	q.logger.Error("Message delivery failed",
		zap.String("job_id", j.id),
		zap.Int64("chat_id", j.chatID),
		zap.String("priority", j.priority.String()),
		zap.Int("attempts", attempt),
		zap.Error(err),
	)
}
