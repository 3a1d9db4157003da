package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

type UserStore interface {
	Create(ctx context.Context, userID int64, username string) (*model.User, error)
	GetByID(ctx context.Context, userID int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Touch(ctx context.Context, userID int64, username string, at time.Time) error
	SetGroup(ctx context.Context, userID int64, group string) error
	SetRole(ctx context.Context, userID int64, role model.Role) error
	SetDailyNotify(ctx context.Context, userID int64, enabled bool) error
	SetNotifyOnline(ctx context.Context, userID int64, enabled bool) error
	SetNotificationTime(ctx context.Context, userID int64, hhmm string) error
	SetSubgroup(ctx context.Context, userID int64, subgroup *int) error
	SetTutorialCompleted(ctx context.Context, userID int64) error
}

type ChatStore interface {
	Create(ctx context.Context, chatID int64) (bool, error)
	GetByID(ctx context.Context, chatID int64) (*model.Chat, error)
	SetGroup(ctx context.Context, chatID int64, group string, threadID *int64) error
	SetDailyNotify(ctx context.Context, chatID int64, enabled bool) error
	SetNotifyOnline(ctx context.Context, chatID int64, enabled bool) error
	SetNotificationTime(ctx context.Context, chatID int64, hhmm string) error
	Delete(ctx context.Context, chatID int64) error
}

// BlockedStore отметки о пользователях, заблокировавших бота
type BlockedStore interface {
	Add(ctx context.Context, userID int64, username string, at time.Time) error
	Remove(ctx context.Context, userID int64) error
}

// GroupValidator проверка группы по каталогу
type GroupValidator interface {
	IsKnown(ctx context.Context, group string) bool
}

type UserService struct {
	users   UserStore
	chats   ChatStore
	blocked BlockedStore
	groups  GroupValidator
	clock   clock.Clock
	logger  *zap.Logger
}

func NewUserService(
	users UserStore,
	chats ChatStore,
	blocked BlockedStore,
	groups GroupValidator,
	c clock.Clock,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:   users,
		chats:   chats,
		blocked: blocked,
		groups:  groups,
		clock:   c,
		logger:  logger,
	}
}

// RegisterUser регистрирует пользователя или обновляет время его активности
func (s *UserService) RegisterUser(ctx context.Context, userID int64, username string) (*model.User, error) {
	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	if existing != nil {
		if err := s.users.Touch(ctx, userID, username, s.clock.Now()); err != nil {
			return nil, fmt.Errorf("touch user: %w", err)
		}
		return existing, nil
	}

	user, err := s.users.Create(ctx, userID, username)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("New user registered",
		zap.Int64("user_id", userID),
		zap.String("username", username),
	)
	return user, nil
}

// Unblocked снимает отметку о блокировке, когда пользователь снова пишет боту
func (s *UserService) Unblocked(ctx context.Context, userID int64) {
	if err := s.blocked.Remove(ctx, userID); err != nil {
		s.logger.Warn("Failed to clear blocked mark", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// MarkBlocked отмечает, что пользователь заблокировал бота
func (s *UserService) MarkBlocked(ctx context.Context, userID int64) {
	username := ""
	if u, err := s.users.GetByID(ctx, userID); err == nil && u != nil {
		username = u.Username
	}
	if err := s.blocked.Add(ctx, userID, username, s.clock.Now()); err != nil {
		s.logger.Error("Failed to mark user as blocked", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	s.logger.Info("User blocked the bot", zap.Int64("user_id", userID))
}

// ForgetChat удаляет групповой чат, из которого бота исключили
func (s *UserService) ForgetChat(ctx context.Context, chatID int64) {
	if err := s.chats.Delete(ctx, chatID); err != nil {
		s.logger.Error("Failed to delete chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	s.logger.Info("Chat removed", zap.Int64("chat_id", chatID))
}

// RegisterChat регистрирует групповой чат
func (s *UserService) RegisterChat(ctx context.Context, chatID int64) (bool, error) {
	created, err := s.chats.Create(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("register chat: %w", err)
	}
	if created {
		s.logger.Info("New chat registered", zap.Int64("chat_id", chatID))
	}
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *UserService) GetChat(ctx context.Context, chatID int64) (*model.Chat, error) {
	return s.chats.GetByID(ctx, chatID)
}

func (s *UserService) validateGroup(ctx context.Context, group string) error {
	if s.groups != nil && !s.groups.IsKnown(ctx, group) {
		return ErrUnknownGroup
	}
	return nil
}

// SetUserGroup сохраняет группу пользователя; возвращает true, если обучение ещё не пройдено
func (s *UserService) SetUserGroup(ctx context.Context, userID int64, username, group string) (bool, error) {
	if err := s.validateGroup(ctx, group); err != nil {
		return false, err
	}

	user, err := s.RegisterUser(ctx, userID, username)
	if err != nil {
		return false, err
	}
	if err := s.users.SetGroup(ctx, userID, group); err != nil {
		return false, fmt.Errorf("set user group: %w", err)
	}

	s.logger.Info("User group set",
		zap.Int64("user_id", userID),
		zap.String("group", group),
	)
	return !user.TutorialCompleted, nil
}

// SetChatGroup сохраняет группу чата и топик для рассылок
func (s *UserService) SetChatGroup(ctx context.Context, chatID int64, group string, threadID *int64) error {
	if err := s.validateGroup(ctx, group); err != nil {
		return err
	}
	if err := s.chats.SetGroup(ctx, chatID, group, threadID); err != nil {
		return fmt.Errorf("set chat group: %w", err)
	}
	s.logger.Info("Chat group set",
		zap.Int64("chat_id", chatID),
		zap.String("group", group),
	)
	return nil
}

// SetRole сохраняет роль, создавая пользователя при необходимости
func (s *UserService) SetRole(ctx context.Context, userID int64, username string, role model.Role) error {
	if _, err := s.RegisterUser(ctx, userID, username); err != nil {
		return err
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

func (s *UserService) CompleteTutorial(ctx context.Context, userID int64) error {
	return s.users.SetTutorialCompleted(ctx, userID)
}

// ResolveGroup группа и подгруппа для команд расписания: группы чата или пользователя
func (s *UserService) ResolveGroup(ctx context.Context, chatID, userID int64, isGroupChat bool) (string, int, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", 0, fmt.Errorf("get user: %w", err)
	}

	if isGroupChat {
		chat, err := s.chats.GetByID(ctx, chatID)
		if err != nil {
			return "", 0, fmt.Errorf("get chat: %w", err)
		}
		if chat == nil || chat.Group == "" {
			return "", 0, ErrGroupNotSet
		}
		return chat.Group, user.SubgroupValue(), nil
	}

	if !user.HasGroup() {
		return "", 0, ErrGroupNotSet
	}
	return user.Group, user.SubgroupValue(), nil
}

// Settings настройки уведомлений; ErrGroupNotSet, если группа не выбрана
func (s *UserService) Settings(ctx context.Context, chatID, userID int64, isGroupChat bool) (*model.NotifySettings, error) {
	if isGroupChat {
		chat, err := s.chats.GetByID(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("get chat: %w", err)
		}
		if chat == nil || chat.Group == "" {
			return nil, ErrGroupNotSet
		}
		return &model.NotifySettings{
			IsChat:           true,
			Group:            chat.Group,
			DailyNotify:      chat.DailyNotifyEnabled,
			NotificationTime: chat.NotificationTime,
			NotifyOnline:     chat.NotifyOnline,
		}, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.HasGroup() {
		return nil, ErrGroupNotSet
	}
	return &model.NotifySettings{
		Group:            user.Group,
		DailyNotify:      user.DailyNotifyEnabled,
		NotificationTime: user.NotificationTime,
		NotifyOnline:     user.NotifyOnline,
		Subgroup:         user.Subgroup,
	}, nil
}

// ToggleDaily переключает ежедневную рассылку и возвращает новое значение
func (s *UserService) ToggleDaily(ctx context.Context, chatID, userID int64, isGroupChat bool) (bool, error) {
	settings, err := s.Settings(ctx, chatID, userID, isGroupChat)
	if err != nil {
		return false, err
	}
	value := !settings.DailyNotify
	if isGroupChat {
		err = s.chats.SetDailyNotify(ctx, chatID, value)
	} else {
		err = s.users.SetDailyNotify(ctx, userID, value)
	}
	if err != nil {
		return false, fmt.Errorf("toggle daily notify: %w", err)
	}
	return value, nil
}

// ToggleOnline переключает напоминания об онлайн-парах
func (s *UserService) ToggleOnline(ctx context.Context, chatID, userID int64, isGroupChat bool) (bool, error) {
	settings, err := s.Settings(ctx, chatID, userID, isGroupChat)
	if err != nil {
		return false, err
	}
	value := !settings.NotifyOnline
	if isGroupChat {
		err = s.chats.SetNotifyOnline(ctx, chatID, value)
	} else {
		err = s.users.SetNotifyOnline(ctx, userID, value)
	}
	if err != nil {
		return false, fmt.Errorf("toggle online notify: %w", err)
	}
	return value, nil
}

// SetNotificationTime сохраняет время ежедневной рассылки в формате HH:MM
func (s *UserService) SetNotificationTime(ctx context.Context, chatID, userID int64, isGroupChat bool, hhmm string) error {
	if !textutil.ValidTime(hhmm) {
		return ErrInvalidTime
	}
	var err error
	if isGroupChat {
		err = s.chats.SetNotificationTime(ctx, chatID, hhmm)
	} else {
		err = s.users.SetNotificationTime(ctx, userID, hhmm)
	}
	if err != nil {
		return fmt.Errorf("set notification time: %w", err)
	}
	return nil
}

// SetSubgroup сохраняет подгруппу; 0 снимает фильтр
func (s *UserService) SetSubgroup(ctx context.Context, userID int64, subgroup int) error {
	var value *int
	switch subgroup {
	case 0:
	case 1, 2:
		value = &subgroup
	default:
		return ErrInvalidSubgroup
	}
	if err := s.users.SetSubgroup(ctx, userID, value); err != nil {
		return fmt.Errorf("set subgroup: %w", err)
	}
	return nil
}
