package callbacktypes

import (
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/messenger"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/metrics"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

// StateManager интерфейс для управления состоянием пользователей
type StateManager interface {
	GetState(key state.Key) state.UserState
	SetState(key state.Key, s state.UserState)
	GetData(key state.Key, name string) (interface{}, bool)
	SetData(key state.Key, name string, value interface{})
	ClearState(key state.Key) state.UserState
}

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService     *service.UserService
	FeedbackService *service.FeedbackService
	AccessService   *service.AccessService
	Keyboards       *service.KeyboardCleaner
	Messenger       *messenger.Messenger
	StateManager    StateManager
	Metrics         *metrics.Metrics
	Clock           clock.Clock
	Logger          *zap.Logger
}
