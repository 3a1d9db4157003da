package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

// FeedbackPageSize фидбеков на странице /asks
const FeedbackPageSize = 10

// FeedbackStore хранилище обратной связи
type FeedbackStore interface {
	Create(ctx context.Context, f *model.FeedbackMessage) error
	GetByID(ctx context.Context, id int64) (*model.FeedbackMessage, error)
	ListPage(ctx context.Context, limit, offset int) ([]*model.FeedbackMessage, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}

// UserLookup поиск пользователя по id
type UserLookup interface {
	GetByID(ctx context.Context, userID int64) (*model.User, error)
}

// NewFeedback входящее сообщение обратной связи
type NewFeedback struct {
	UserID    int64
	MessageID int
	Text      string
	Media     model.FeedbackMedia
}

// FeedbackPage страница списка фидбеков
type FeedbackPage struct {
	Items []*model.FeedbackMessage
	Total int
	Page  int
	Pages int
}

// Header заголовок страницы
func (p *FeedbackPage) Header() string {
	return fmt.Sprintf("Непрочитанные фидбеки: %d\nСтраница %d из %d", p.Total, p.Page+1, p.Pages)
}

// FeedbackCard карточка фидбека для администратора
type FeedbackCard struct {
	ID    int64
	Text  string
	Media model.FeedbackMedia
}

type FeedbackService struct {
	store     FeedbackStore
	users     UserLookup
	messenger Messenger
	logger    *zap.Logger
}

func NewFeedbackService(store FeedbackStore, users UserLookup, messenger Messenger, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{
		store:     store,
		users:     users,
		messenger: messenger,
		logger:    logger,
	}
}

// Submit сохраняет фидбек пользователя
func (s *FeedbackService) Submit(ctx context.Context, in NewFeedback) (*model.FeedbackMessage, error) {
	text := strings.TrimSpace(in.Text)
	hasMedia := in.Media != (model.FeedbackMedia{})
	if text == "" && !hasMedia {
		return nil, ErrEmptyFeedback
	}

	f := &model.FeedbackMessage{UserID: in.UserID}
	if in.MessageID != 0 {
		msgID := in.MessageID
		f.UserMessageID = &msgID
	}
	if text != "" {
		f.Text = &text
	}
	if hasMedia {
		raw, err := json.Marshal(in.Media)
		if err != nil {
			return nil, fmt.Errorf("encode feedback media: %w", err)
		}
		media := string(raw)
		f.MediaIDs = &media
	}

	if err := s.store.Create(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("Feedback received",
		zap.Int64("feedback_id", f.ID),
		zap.Int64("user_id", f.UserID),
		zap.Bool("media", hasMedia),
	)
	return f, nil
}

// Page страница списка; page начинается с нуля
func (s *FeedbackService) Page(ctx context.Context, page int) (*FeedbackPage, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	pages := (total + FeedbackPageSize - 1) / FeedbackPageSize
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}

	items, err := s.store.ListPage(ctx, FeedbackPageSize, page*FeedbackPageSize)
	if err != nil {
		return nil, err
	}
	return &FeedbackPage{Items: items, Total: total, Page: page, Pages: pages}, nil
}

// Pending количество необработанных фидбеков
func (s *FeedbackService) Pending(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Card карточка фидбека
func (s *FeedbackService) Card(ctx context.Context, id int64) (*FeedbackCard, error) {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrFeedbackNotFound
	}

	author := fmt.Sprintf("ID %d", f.UserID)
	if u, err := s.users.GetByID(ctx, f.UserID); err == nil && u != nil && u.Username != "" {
		author = "@" + u.Username
	}

	body := "(пусто)"
	if f.Text != nil && *f.Text != "" {
		body = *f.Text
	}

	card := &FeedbackCard{
		ID: f.ID,
		Text: fmt.Sprintf("🧾 Фидбек №%d\n👤 От пользователя: %s\n🕒 Время: %s\n\n%s",
			f.ID, author, f.Timestamp.Format("2006-01-02 15:04"), body),
	}
	if f.MediaIDs != nil {
		if err := json.Unmarshal([]byte(*f.MediaIDs), &card.Media); err != nil {
			s.logger.Warn("Invalid feedback media", zap.Int64("feedback_id", f.ID), zap.Error(err))
		}
	}
	return card, nil
}

// Reply копирует ответ администратора пользователю и удаляет фидбек.
// delivered=false, если сообщение не дошло; фидбек удаляется в любом случае
func (s *FeedbackService) Reply(ctx context.Context, id int64, adminTag string, fromChatID int64, messageID int) (bool, error) {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if f == nil {
		return false, ErrFeedbackNotFound
	}

	delivered := s.deliverReply(ctx, f, adminTag, fromChatID, messageID)

	if err := s.store.Delete(ctx, f.ID); err != nil {
		return delivered, err
	}

	s.logger.Info("Feedback answered",
		zap.Int64("feedback_id", f.ID),
		zap.Int64("user_id", f.UserID),
		zap.Bool("delivered", delivered),
	)
	return delivered, nil
}

func (s *FeedbackService) deliverReply(ctx context.Context, f *model.FeedbackMessage, adminTag string, fromChatID int64, messageID int) bool {
	header := fmt.Sprintf("Ответ на твой фидбек #%d от %s:", f.ID, adminTag)
	if err := s.messenger.SendText(ctx, f.UserID, 0, header); err != nil {
		s.logger.Warn("Failed to send feedback reply header", zap.Int64("user_id", f.UserID), zap.Error(err))
		return false
	}

	replyTo := 0
	if f.UserMessageID != nil {
		replyTo = *f.UserMessageID
	}
	err := s.messenger.CopyMessage(ctx, f.UserID, 0, fromChatID, messageID, replyTo)
	if err == nil {
		return true
	}
	if replyTo == 0 {
		s.logger.Error("Failed to deliver feedback reply", zap.Int64("user_id", f.UserID), zap.Error(err))
		return false
	}

	// исходное сообщение могло быть удалено
	s.logger.Warn("Failed to reply to original message", zap.Int64("user_id", f.UserID), zap.Error(err))
	if err := s.messenger.CopyMessage(ctx, f.UserID, 0, fromChatID, messageID, 0); err != nil {
		s.logger.Error("Failed to deliver feedback reply", zap.Int64("user_id", f.UserID), zap.Error(err))
		return false
	}
	return true
}
