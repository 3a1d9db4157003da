package common

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

// HandlerContext содержит общие данные для обработки callback
type HandlerContext struct {
	Ctx        context.Context
	Bot        *bot.Bot
	Callback   *models.CallbackQuery
	Handler    *callbacktypes.Handler
	Message    *models.Message
	TelegramID int64
	ChatID     int64
	ThreadID   int
	GroupChat  bool
}

// NewHandlerContext создаёт новый контекст обработчика
func NewHandlerContext(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
) *HandlerContext {
	hc := &HandlerContext{
		Ctx:        ctx,
		Bot:        b,
		Callback:   callback,
		Handler:    h,
		Message:    GetMessageFromCallback(callback),
		TelegramID: callback.From.ID,
	}
	if hc.Message != nil {
		hc.ChatID = hc.Message.Chat.ID
		hc.ThreadID = hc.Message.MessageThreadID
		hc.GroupChat = IsGroupChat(hc.Message.Chat)
	}
	return hc
}

// StateKey ключ состояния нажавшего пользователя в этом чате
func (hc *HandlerContext) StateKey() state.Key {
	return state.Key{ChatID: hc.ChatID, UserID: hc.TelegramID}
}

// Username username нажавшего пользователя
func (hc *HandlerContext) Username() string {
	return hc.Callback.From.Username
}

// HasPermission проверяет право администратора
func (hc *HandlerContext) HasPermission(perm model.Permission) bool {
	return hc.Handler.AccessService.HasPermission(hc.Ctx, hc.TelegramID, perm)
}

// Answer отвечает на callback query
func (hc *HandlerContext) Answer(text string) {
	hc.Handler.Messenger.AnswerCallback(hc.Ctx, hc.Callback.ID, text, false)
}

// AnswerAlert отвечает на callback query с alert
func (hc *HandlerContext) AnswerAlert(text string) {
	hc.Handler.Messenger.AnswerCallback(hc.Ctx, hc.Callback.ID, text, true)
}

// EditMessage редактирует сообщение с кнопками и продлевает его жизнь
func (hc *HandlerContext) EditMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	if hc.Message == nil {
		return ErrNoMessage
	}
	if err := hc.Handler.Messenger.EditKeyboard(hc.Ctx, hc.ChatID, hc.Message.ID, text, keyboard); err != nil {
		return err
	}
	if keyboard != nil && len(keyboard.InlineKeyboard) > 0 {
		hc.Handler.Keyboards.Track(hc.ChatID, hc.Message.ID)
	} else {
		hc.Handler.Keyboards.Forget(hc.ChatID, hc.Message.ID)
	}
	return nil
}

// EditMessageText редактирует только текст сообщения, убирая кнопки
func (hc *HandlerContext) EditMessageText(text string) error {
	return hc.EditMessage(text, nil)
}

// DeleteMessage удаляет сообщение
func (hc *HandlerContext) DeleteMessage() error {
	if hc.Message == nil {
		return ErrNoMessage
	}
	hc.Handler.Keyboards.Forget(hc.ChatID, hc.Message.ID)
	return hc.Handler.Messenger.DeleteMessage(hc.Ctx, hc.ChatID, hc.Message.ID)
}

// SendMessage отправляет новое сообщение в чат нажатия
func (hc *HandlerContext) SendMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	if keyboard == nil {
		return hc.Handler.Messenger.SendText(hc.Ctx, hc.ChatID, hc.ThreadID, text)
	}
	id, err := hc.Handler.Messenger.SendKeyboard(hc.Ctx, hc.ChatID, hc.ThreadID, text, keyboard)
	if err != nil {
		return err
	}
	hc.Handler.Keyboards.Track(hc.ChatID, id)
	return nil
}

// ClearState очищает состояние пользователя
func (hc *HandlerContext) ClearState() {
	hc.Handler.StateManager.ClearState(hc.StateKey())
}

// SetState устанавливает состояние пользователя
func (hc *HandlerContext) SetState(s state.UserState) {
	hc.Handler.StateManager.SetState(hc.StateKey(), s)
}

// SetData устанавливает данные в state
func (hc *HandlerContext) SetData(key string, value interface{}) {
	hc.Handler.StateManager.SetData(hc.StateKey(), key, value)
}
