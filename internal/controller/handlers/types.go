package handlers

import (
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/messenger"
	"github.com/Freeeeeet/poly_schedule_bot/internal/metrics"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

// Deps зависимости обработчиков команд
type Deps struct {
	Users      *service.UserService
	Schedules  *service.ScheduleService
	Bans       *service.BanService
	Access     *service.AccessService
	Patterns   *service.PatternService
	Holidays   *service.HolidayService
	Feedback   *service.FeedbackService
	Broadcasts *service.BroadcastService
	Stats      *service.StatsService
	Keyboards  *service.KeyboardCleaner
	Messenger  *messenger.Messenger
	States     callbacktypes.StateManager
	Metrics    *metrics.Metrics
	Clock      clock.Clock
	Location   *time.Location
	Logger     *zap.Logger

	// BotUsername без @, нужен для распознавания ответов боту в группах
	BotUsername string
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	users      *service.UserService
	schedules  *service.ScheduleService
	bans       *service.BanService
	access     *service.AccessService
	patterns   *service.PatternService
	holidays   *service.HolidayService
	feedback   *service.FeedbackService
	broadcasts *service.BroadcastService
	stats      *service.StatsService
	keyboards  *service.KeyboardCleaner
	messenger  *messenger.Messenger
	states     callbacktypes.StateManager
	metrics    *metrics.Metrics
	clock      clock.Clock
	loc        *time.Location
	logger     *zap.Logger

	botUsername string
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(d Deps) *Handlers {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{
		users:       d.Users,
		schedules:   d.Schedules,
		bans:        d.Bans,
		access:      d.Access,
		patterns:    d.Patterns,
		holidays:    d.Holidays,
		feedback:    d.Feedback,
		broadcasts:  d.Broadcasts,
		stats:       d.Stats,
		keyboards:   d.Keyboards,
		messenger:   d.Messenger,
		states:      d.States,
		metrics:     d.Metrics,
		clock:       d.Clock,
		loc:         loc,
		logger:      d.Logger,
		botUsername: d.BotUsername,
	}
}

// SetBotUsername задаёт username бота после getMe
func (h *Handlers) SetBotUsername(username string) {
	h.botUsername = username
}

func (h *Handlers) now() time.Time {
	return h.clock.Now().In(h.loc)
}
