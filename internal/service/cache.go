package service

import (
	"sync"
	"time"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache потокобезопасный кэш со сроком жизни записей
type TTLCache[V any] struct {
	mu     sync.RWMutex
	items  map[string]cacheEntry[V]
	clock  clock.Clock
	hits   uint64
	misses uint64
}

func NewTTLCache[V any](c clock.Clock) *TTLCache[V] {
	return &TTLCache[V]{
		items: make(map[string]cacheEntry[V]),
		clock: c,
	}
}

// Get возвращает значение, если запись ещё не истекла
func (c *TTLCache[V]) Get(key string) (V, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	if !now.Before(entry.expiresAt) {
		delete(c.items, key)
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return entry.value, true
}

// Set сохраняет значение на ttl
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheEntry[V]{value: value, expiresAt: c.clock.Now().Add(ttl)}
}

// Clear очищает кэш
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheEntry[V])
}

// Len количество записей, включая истёкшие
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats попадания и промахи кэша
func (c *TTLCache[V]) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
