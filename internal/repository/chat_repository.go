package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/repository/base"
)

const chatColumns = `chatid, thread_id, group_name, daily_notify_enabled, notification_time, notify_online, created_at`

type ChatRepository struct {
	db *base.Repository
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: base.NewRepository(pool)}
}

func scanChat(row pgx.Row) (*model.Chat, error) {
	var chat model.Chat
	err := row.Scan(
		&chat.ChatID,
		&chat.ThreadID,
		&chat.Group,
		&chat.DailyNotifyEnabled,
		&chat.NotificationTime,
		&chat.NotifyOnline,
		&chat.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// Create регистрирует чат, если его ещё нет; возвращает true для нового чата
func (r *ChatRepository) Create(ctx context.Context, chatID int64) (bool, error) {
	affected, err := r.db.ExecAffected(ctx,
		`INSERT INTO chats (chatid) VALUES ($1) ON CONFLICT (chatid) DO NOTHING`, chatID)
	if err != nil {
		return false, fmt.Errorf("create chat: %w", err)
	}
	return affected > 0, nil
}

// GetByID получает чат по ID
func (r *ChatRepository) GetByID(ctx context.Context, chatID int64) (*model.Chat, error) {
	chat, err := scanChat(r.db.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats WHERE chatid = $1`, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat by id: %w", err)
	}
	return chat, nil
}

// SetGroup сохраняет группу и топик, в который отправляется рассылка
func (r *ChatRepository) SetGroup(ctx context.Context, chatID int64, group string, threadID *int64) error {
	query := `
		INSERT INTO chats (chatid, group_name, thread_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (chatid) DO UPDATE SET group_name = EXCLUDED.group_name, thread_id = EXCLUDED.thread_id
	`
	if _, err := r.db.ExecAffected(ctx, query, chatID, group, threadID); err != nil {
		return fmt.Errorf("set chat group: %w", err)
	}
	return nil
}

// SetDailyNotify включает или выключает ежедневную рассылку в чате
func (r *ChatRepository) SetDailyNotify(ctx context.Context, chatID int64, enabled bool) error {
	return r.update(ctx, "set chat daily notify", `UPDATE chats SET daily_notify_enabled = $2 WHERE chatid = $1`, chatID, enabled)
}

// SetNotifyOnline включает или выключает напоминания об онлайн-парах в чате
func (r *ChatRepository) SetNotifyOnline(ctx context.Context, chatID int64, enabled bool) error {
	return r.update(ctx, "set chat notify online", `UPDATE chats SET notify_online = $2 WHERE chatid = $1`, chatID, enabled)
}

// SetNotificationTime сохраняет время рассылки в чате
func (r *ChatRepository) SetNotificationTime(ctx context.Context, chatID int64, hhmm string) error {
	return r.update(ctx, "set chat notification time", `UPDATE chats SET notification_time = $2 WHERE chatid = $1`, chatID, hhmm)
}

func (r *ChatRepository) update(ctx context.Context, op, query string, args ...interface{}) error {
	affected, err := r.db.ExecAffected(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// Delete удаляет чат (бот удалён из группы)
func (r *ChatRepository) Delete(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecAffected(ctx, `DELETE FROM chats WHERE chatid = $1`, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

// ListForNotificationTime чаты с ежедневной рассылкой на время hhmm
func (r *ChatRepository) ListForNotificationTime(ctx context.Context, hhmm string) ([]*model.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE daily_notify_enabled = TRUE AND notification_time = $1 AND group_name <> ''
		ORDER BY chatid
	`
	return r.list(ctx, "list chats for notification", query, hhmm)
}

// ListOnlineSubscribers чаты с группой и напоминаниями об онлайн-парах
func (r *ChatRepository) ListOnlineSubscribers(ctx context.Context) ([]*model.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE notify_online = TRUE AND group_name <> ''
		ORDER BY chatid
	`
	return r.list(ctx, "list online chats", query)
}

func (r *ChatRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*model.Chat, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var chats []*model.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

// AllIDs id всех чатов
func (r *ChatRepository) AllIDs(ctx context.Context) ([]int64, error) {
	return collectIDs(ctx, r.db, "list chat ids", `SELECT chatid FROM chats ORDER BY chatid`)
}

// Count общее количество чатов
func (r *ChatRepository) Count(ctx context.Context) (int, error) {
	n, err := r.db.Count(ctx, `SELECT COUNT(*) FROM chats`)
	if err != nil {
		return 0, fmt.Errorf("count chats: %w", err)
	}
	return n, nil
}
