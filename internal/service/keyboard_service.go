package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/queue"
)

type trackedKeyboard struct {
	chatID    int64
	messageID int
	expires   time.Time
}

// KeyboardCleaner снимает inline-клавиатуры с сообщений бота по истечении TTL
type KeyboardCleaner struct {
	queue     Enqueuer
	messenger Messenger
	ttl       time.Duration
	clock     clock.Clock
	logger    *zap.Logger

	mu        sync.Mutex
	keyboards map[string]trackedKeyboard
}

func NewKeyboardCleaner(q Enqueuer, messenger Messenger, ttl time.Duration, c clock.Clock, logger *zap.Logger) *KeyboardCleaner {
	return &KeyboardCleaner{
		queue:     q,
		messenger: messenger,
		ttl:       ttl,
		clock:     c,
		logger:    logger,
		keyboards: make(map[string]trackedKeyboard),
	}
}

func keyboardKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%d:%d", chatID, messageID)
}

// Track регистрирует сообщение с клавиатурой; повторный вызов продлевает TTL
func (k *KeyboardCleaner) Track(chatID int64, messageID int) {
	if k == nil || k.ttl <= 0 || messageID == 0 {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keyboards[keyboardKey(chatID, messageID)] = trackedKeyboard{
		chatID:    chatID,
		messageID: messageID,
		expires:   k.clock.Now().Add(k.ttl),
	}
}

// Forget убирает сообщение из отслеживания (например, после удаления)
func (k *KeyboardCleaner) Forget(chatID int64, messageID int) {
	if k == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keyboards, keyboardKey(chatID, messageID))
}

// Tracked количество отслеживаемых клавиатур
func (k *KeyboardCleaner) Tracked() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.keyboards)
}

// Sweep ставит в очередь снятие просроченных клавиатур
func (k *KeyboardCleaner) Sweep() int {
	now := k.clock.Now()

	k.mu.Lock()
	var expired []trackedKeyboard
	for key, kb := range k.keyboards {
		if !now.Before(kb.expires) {
			expired = append(expired, kb)
			delete(k.keyboards, key)
		}
	}
	k.mu.Unlock()

	for _, kb := range expired {
		kb := kb
		k.queue.Enqueue(queue.PriorityLow, kb.chatID, func(ctx context.Context) error {
			return k.messenger.ClearKeyboard(ctx, kb.chatID, kb.messageID)
		})
	}

	if len(expired) > 0 {
		k.logger.Debug("Expired keyboards queued for cleanup", zap.Int("count", len(expired)))
	}
	return len(expired)
}
