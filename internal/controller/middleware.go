package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/messenger"
	"github.com/Freeeeeet/poly_schedule_bot/internal/metrics"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

const (
	spamDetectedText = "🚫️ Поли заметил спам... Ты временно заблокирован. Попробуй чуть позже!"
	bannedTextFormat = "🚫 Поли заметил слишком много сообщений подряд... Ты временно заблокирован до %s. Дай системе передохнуть!"
)

// updateKind тип апдейта для логов и метрик
func updateKind(update *models.Update) string {
	switch {
	case update.Message != nil:
		return "message"
	case update.CallbackQuery != nil:
		return "callback_query"
	case update.EditedMessage != nil:
		return "edited_message"
	case update.MyChatMember != nil:
		return "my_chat_member"
	default:
		return "other"
	}
}

// Middlewares цепочка обработки апдейтов: логирование, антиспам, регистрация.
// Сервисы появляются после создания бота, поэтому цепочка собирается заранее и связывается через Bind
type Middlewares struct {
	users    *service.UserService
	bans     *service.BanService
	send     *messenger.Messenger
	metrics  *metrics.Metrics
	location *time.Location
	logger   *zap.Logger
}

func NewMiddlewares(m *metrics.Metrics, loc *time.Location, logger *zap.Logger) *Middlewares {
	if loc == nil {
		loc = time.UTC
	}
	return &Middlewares{metrics: m, location: loc, logger: logger}
}

// Bind подключает сервисы; вызывается до старта бота
func (mw *Middlewares) Bind(users *service.UserService, bans *service.BanService, send *messenger.Messenger) {
	mw.users = users
	mw.bans = bans
	mw.send = send
}

// Chain middleware в порядке выполнения
func (mw *Middlewares) Chain() []bot.Middleware {
	return []bot.Middleware{mw.logging, mw.rateLimit, mw.registration}
}

func (mw *Middlewares) logging(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		kind := updateKind(update)
		mw.metrics.Update(kind)

		fields := []zap.Field{zap.Int64("update_id", update.ID), zap.String("kind", kind)}
		if msg := update.Message; msg != nil {
			fields = append(fields, zap.Int64("chat_id", msg.Chat.ID))
			if msg.From != nil {
				fields = append(fields, zap.Int64("user_id", msg.From.ID))
			}
			fields = append(fields, zap.String("text", textutil.Truncate(msg.Text, 50)))
		}
		if cq := update.CallbackQuery; cq != nil {
			fields = append(fields, zap.Int64("user_id", cq.From.ID), zap.String("data", cq.Data))
		}

		start := time.Now()
		next(ctx, b, update)
		mw.logger.Debug("Update handled", append(fields, zap.Duration("elapsed", time.Since(start)))...)
	}
}

// rateLimit ограничивает частоту сообщений; нажатия кнопок не считаются
func (mw *Middlewares) rateLimit(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil || mw.bans == nil {
			next(ctx, b, update)
			return
		}

		decision, err := mw.bans.Check(ctx, msg.From.ID)
		if err != nil {
			// при недоступной БД пропускаем сообщение
			mw.logger.Error("Rate limit check failed", zap.Int64("user_id", msg.From.ID), zap.Error(err))
			next(ctx, b, update)
			return
		}

		switch {
		case decision.Allowed:
			next(ctx, b, update)
		case decision.JustBanned:
			mw.send.Reply(ctx, msg, spamDetectedText)
		default:
			until := textutil.FormatDateTime(decision.Until.In(mw.location))
			mw.send.Reply(ctx, msg, fmt.Sprintf(bannedTextFormat, until))
		}
	}
}

// registration заводит пользователя или чат при первом обращении
func (mw *Middlewares) registration(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if mw.users == nil {
			next(ctx, b, update)
			return
		}

		var (
			chat *models.Chat
			from *models.User
		)
		switch {
		case update.Message != nil:
			chat, from = &update.Message.Chat, update.Message.From
		case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
			chat, from = &update.CallbackQuery.Message.Message.Chat, &update.CallbackQuery.From
		}

		if chat != nil && from != nil && !from.IsBot {
			if common.IsGroupChat(*chat) {
				if _, err := mw.users.RegisterChat(ctx, chat.ID); err != nil {
					mw.logger.Error("Failed to register chat", zap.Int64("chat_id", chat.ID), zap.Error(err))
				}
			} else {
				if _, err := mw.users.RegisterUser(ctx, from.ID, from.Username); err != nil {
					mw.logger.Error("Failed to register user", zap.Int64("user_id", from.ID), zap.Error(err))
				}
				mw.users.Unblocked(ctx, from.ID)
			}
		}

		next(ctx, b, update)
	}
}
