package queue

import (
	"errors"
	"strings"
	"time"

	"github.com/go-telegram/bot"

	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

// ErrorKind класс ошибки отправки
type ErrorKind int

const (
	ErrorOther ErrorKind = iota
	// ErrorBlocked пользователь заблокировал бота, удалён или чат не найден
	ErrorBlocked
	// ErrorFlood Telegram просит подождать
	ErrorFlood
	// ErrorNotModified редактирование без изменений
	ErrorNotModified
)

var (
	blockedMarkers  = []string{"blocked", "user is deactivated", "chat not found", "bot was kicked"}
	floodMarkers    = []string{"too many requests", "retry after", "retry_after"}
	notModifiedMark = "message is not modified"
)

// Classify определяет класс ошибки Telegram: сначала по типу, затем по тексту ответа
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorOther
	}

	var flood *bot.TooManyRequestsError
	switch {
	case errors.As(err, &flood), errors.Is(err, bot.ErrorTooManyRequests):
		return ErrorFlood
	case errors.Is(err, bot.ErrorForbidden):
		return ErrorBlocked
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, notModifiedMark):
		return ErrorNotModified
	case textutil.ContainsAny(text, blockedMarkers):
		return ErrorBlocked
	case textutil.ContainsAny(text, floodMarkers):
		return ErrorFlood
	default:
		return ErrorOther
	}
}

// floodWait пауза перед повтором: retry_after из ответа Telegram, иначе fallback
func floodWait(err error, fallback time.Duration) time.Duration {
	var flood *bot.TooManyRequestsError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return fallback
}

func (k ErrorKind) String() string {
	switch k {
	case ErrorBlocked:
		return "blocked"
	case ErrorFlood:
		return "flood"
	case ErrorNotModified:
		return "not_modified"
	default:
		return "other"
	}
}
