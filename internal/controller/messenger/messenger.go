// Package messenger отправка сообщений через Telegram Bot API
package messenger

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/queue"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

// MaxMessageLength лимит Telegram на длину текста сообщения
const MaxMessageLength = 4096

// Messenger обёртка над *bot.Bot для сервисов и обработчиков
type Messenger struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func New(b *bot.Bot, logger *zap.Logger) *Messenger {
	return &Messenger{bot: b, logger: logger}
}

// Bot исходный клиент
func (m *Messenger) Bot() *bot.Bot {
	return m.bot
}

// SendText отправляет текст, разбивая его на части по строкам
func (m *Messenger) SendText(ctx context.Context, chatID int64, threadID int, text string) error {
	for _, part := range textutil.SplitPreservingLines(text, MaxMessageLength) {
		_, err := m.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          chatID,
			MessageThreadID: threadID,
			Text:            part,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Reply отправляет текст в ответ на входящее сообщение; ошибки только логируются
func (m *Messenger) Reply(ctx context.Context, msg *models.Message, text string) {
	if msg == nil {
		return
	}
	if err := m.SendText(ctx, msg.Chat.ID, msg.MessageThreadID, text); err != nil {
		m.logFailure("Failed to send reply", msg.Chat.ID, err)
	}
}

// SendKeyboard отправляет сообщение с inline-клавиатурой и возвращает его ID
func (m *Messenger) SendKeyboard(ctx context.Context, chatID int64, threadID int, text string, markup *models.InlineKeyboardMarkup) (int, error) {
	params := &bot.SendMessageParams{
		ChatID:          chatID,
		MessageThreadID: threadID,
		Text:            text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	sent, err := m.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, err
	}
	return sent.ID, nil
}

// EditKeyboard заменяет текст и клавиатуру сообщения; nil убирает кнопки
func (m *Messenger) EditKeyboard(ctx context.Context, chatID int64, messageID int, text string, markup *models.InlineKeyboardMarkup) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	_, err := m.bot.EditMessageText(ctx, params)
	if err != nil && queue.Classify(err) == queue.ErrorNotModified {
		return nil
	}
	return err
}

// SendPhoto отправляет PNG-изображение с подписью
func (m *Messenger) SendPhoto(ctx context.Context, chatID int64, threadID int, filename string, data []byte, caption string) error {
	_, err := m.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:          chatID,
		MessageThreadID: threadID,
		Photo:           &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		Caption:         caption,
	})
	return err
}

// SendMedia пересылает вложения фидбека по file_id
func (m *Messenger) SendMedia(ctx context.Context, chatID int64, media model.FeedbackMedia) error {
	if media.Photo != "" {
		if _, err := m.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID: chatID,
			Photo:  &models.InputFileString{Data: media.Photo},
		}); err != nil {
			return fmt.Errorf("send photo: %w", err)
		}
	}
	if media.Video != "" {
		if _, err := m.bot.SendVideo(ctx, &bot.SendVideoParams{
			ChatID: chatID,
			Video:  &models.InputFileString{Data: media.Video},
		}); err != nil {
			return fmt.Errorf("send video: %w", err)
		}
	}
	if media.Document != "" {
		if _, err := m.bot.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:   chatID,
			Document: &models.InputFileString{Data: media.Document},
		}); err != nil {
			return fmt.Errorf("send document: %w", err)
		}
	}
	return nil
}

// CopyMessage копирует сообщение; replyTo > 0 делает копию ответом
func (m *Messenger) CopyMessage(ctx context.Context, chatID int64, threadID int, fromChatID int64, messageID int, replyTo int) error {
	params := &bot.CopyMessageParams{
		ChatID:          chatID,
		MessageThreadID: threadID,
		FromChatID:      fromChatID,
		MessageID:       messageID,
	}
	if replyTo > 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo}
	}
	_, err := m.bot.CopyMessage(ctx, params)
	return err
}

// ClearKeyboard снимает inline-клавиатуру с сообщения
func (m *Messenger) ClearKeyboard(ctx context.Context, chatID int64, messageID int) error {
	_, err := m.bot.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
	})
	if err != nil && queue.Classify(err) == queue.ErrorNotModified {
		return nil
	}
	return err
}

// DeleteMessage удаляет сообщение
func (m *Messenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := m.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	return err
}

// AnswerCallback отвечает на нажатие кнопки
func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) {
	_, err := m.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		m.logger.Debug("Failed to answer callback", zap.String("callback_id", callbackID), zap.Error(err))
	}
}

// IsChatAdmin проверяет, что пользователь администратор или создатель чата
func (m *Messenger) IsChatAdmin(ctx context.Context, chatID, userID int64) bool {
	member, err := m.bot.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		m.logger.Warn("Failed to get chat member",
			zap.Int64("chat_id", chatID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return false
	}
	return member.Type == models.ChatMemberTypeAdministrator || member.Type == models.ChatMemberTypeOwner
}

func (m *Messenger) logFailure(msg string, chatID int64, err error) {
	if queue.Classify(err) == queue.ErrorBlocked {
		m.logger.Info(msg+": user blocked the bot", zap.Int64("chat_id", chatID))
		return
	}
	m.logger.Error(msg, zap.Int64("chat_id", chatID), zap.Error(err))
}
