package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

// request данные входящего сообщения, нужные обработчикам
type request struct {
	msg      *models.Message
	chatID   int64
	threadID int
	userID   int64
	username string
	group    bool
}

func newRequest(msg *models.Message) request {
	r := request{
		msg:      msg,
		chatID:   msg.Chat.ID,
		threadID: msg.MessageThreadID,
		group:    common.IsGroupChat(msg.Chat),
	}
	if msg.From != nil {
		r.userID = msg.From.ID
		r.username = msg.From.Username
	}
	return r
}

func (r request) stateKey() state.Key {
	return state.Key{ChatID: r.chatID, UserID: r.userID}
}

// text текст или подпись к медиа
func (r request) text() string {
	if r.msg.Text != "" {
		return r.msg.Text
	}
	return r.msg.Caption
}

// reply отправляет ответ в тот же чат и топик
func (h *Handlers) reply(ctx context.Context, r request, text string) {
	if err := h.messenger.SendText(ctx, r.chatID, r.threadID, text); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", r.chatID),
			zap.Error(err),
		)
	}
}

// replyKeyboard отправляет сообщение с inline-кнопками и ставит их на автоочистку
func (h *Handlers) replyKeyboard(ctx context.Context, r request, text string, kb *models.InlineKeyboardMarkup) {
	id, err := h.messenger.SendKeyboard(ctx, r.chatID, r.threadID, text, kb)
	if err != nil {
		h.logger.Error("Failed to send keyboard",
			zap.Int64("chat_id", r.chatID),
			zap.Error(err),
		)
		return
	}
	h.keyboards.Track(r.chatID, id)
}

// replyError логирует ошибку и отвечает пользователю понятным текстом
func (h *Handlers) replyError(ctx context.Context, r request, err error, operation string) {
	h.logger.Error("Operation failed",
		zap.String("operation", operation),
		zap.Int64("user_id", r.userID),
		zap.Int64("chat_id", r.chatID),
		zap.Error(err),
	)
	h.reply(ctx, r, common.ErrorMessage(err))
}

// resolveGroup группа для команды расписания: явный аргумент, иначе группа чата или пользователя.
// При ok=false ответ пользователю уже отправлен
func (h *Handlers) resolveGroup(ctx context.Context, r request, explicit string) (string, int, bool) {
	group, subgroup, err := h.users.ResolveGroup(ctx, r.chatID, r.userID, r.group)
	if explicit != "" {
		if err != nil && !errors.Is(err, service.ErrGroupNotSet) {
			h.logger.Warn("Failed to resolve subgroup", zap.Int64("user_id", r.userID), zap.Error(err))
		}
		return explicit, subgroup, true
	}

	if errors.Is(err, service.ErrGroupNotSet) || (err == nil && group == "") {
		h.reply(ctx, r, common.NoGroupText)
		return "", 0, false
	}
	if err != nil {
		h.replyError(ctx, r, err, "resolve_group")
		return "", 0, false
	}
	return group, subgroup, true
}

// parseDate разбирает ДД.ММ.ГГГГ в часовом поясе бота
func (h *Handlers) parseDate(s string) (time.Time, error) {
	if !textutil.ValidDate(s) {
		return time.Time{}, service.ErrInvalidDate
	}
	d, err := time.ParseInLocation("02.01.2006", s, h.loc)
	if err != nil {
		return time.Time{}, service.ErrInvalidDate
	}
	return d, nil
}

// splitTrailingDate отделяет дату в конце аргументов: "Иванов И.И. 15.10.2025"
func splitTrailingDate(args []string) ([]string, string) {
	if len(args) == 0 {
		return args, ""
	}
	last := args[len(args)-1]
	if textutil.ValidDate(last) {
		return args[:len(args)-1], last
	}
	return args, ""
}

// mediaOf file_id вложений сообщения; для фото берётся самый большой размер
func mediaOf(msg *models.Message) model.FeedbackMedia {
	var m model.FeedbackMedia
	if n := len(msg.Photo); n > 0 {
		m.Photo = msg.Photo[n-1].FileID
	}
	if msg.Document != nil {
		m.Document = msg.Document.FileID
	}
	if msg.Video != nil {
		m.Video = msg.Video.FileID
	}
	return m
}
