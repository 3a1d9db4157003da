package state

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
)

// Manager управляет состояниями пользователей
type Manager struct {
	mu     sync.RWMutex
	states map[Key]*UserData
	ttl    time.Duration
	clock  clock.Clock
}

// NewManager создаёт новый менеджер состояний
func NewManager(ttl time.Duration, c clock.Clock) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		states: make(map[Key]*UserData),
		ttl:    ttl,
		clock:  c,
	}
}

// live возвращает запись, если она есть и не истекла; вызывается под блокировкой
func (sm *Manager) live(key Key) (*UserData, bool) {
	userData, exists := sm.states[key]
	if !exists || !sm.clock.Now().Before(userData.ExpiresAt) {
		return nil, false
	}
	return userData, true
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(key Key) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.live(key); ok {
		return userData.State
	}
	return StateNone
}

// SetState устанавливает состояние и продлевает его жизнь
func (sm *Manager) SetState(key Key, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, key)
		return
	}

	userData, ok := sm.live(key)
	if !ok {
		userData = &UserData{Data: make(map[string]interface{})}
		sm.states[key] = userData
	}
	userData.State = state
	userData.ExpiresAt = sm.clock.Now().Add(sm.ttl)
}

// GetData получает временные данные пользователя
func (sm *Manager) GetData(key Key, name string) (interface{}, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.live(key); ok {
		value, found := userData.Data[name]
		return value, found
	}
	return nil, false
}

// SetData сохраняет данные в активный диалог; без состояния данные не сохраняются
func (sm *Manager) SetData(key Key, name string, value interface{}) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if userData, ok := sm.live(key); ok {
		userData.Data[name] = value
	}
}

// ClearState очищает состояние и возвращает то, что было активно
func (sm *Manager) ClearState(key Key) UserState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	prev := StateNone
	if userData, ok := sm.live(key); ok {
		prev = userData.State
	}
	delete(sm.states, key)
	return prev
}

// Cleanup удаляет истёкшие состояния
func (sm *Manager) Cleanup() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.clock.Now()
	removed := 0
	for key, userData := range sm.states {
		if !now.Before(userData.ExpiresAt) {
			delete(sm.states, key)
			removed++
		}
	}
	return removed
}

// Len количество хранимых состояний
func (sm *Manager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.states)
}

// Run периодически чистит истёкшие состояния до отмены ctx
func (sm *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.Cleanup()
		}
	}
}
