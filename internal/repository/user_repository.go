package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/repository/base"
)

const userColumns = `userid, group_name, role, daily_notify_enabled, notification_time, notify_online,
	COALESCE(username, ''), tutorial_completed, subgroup, created_at, last_activity`

type UserRepository struct {
	db *base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: base.NewRepository(pool)}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user model.User
		role *string
	)
	err := row.Scan(
		&user.UserID,
		&user.Group,
		&role,
		&user.DailyNotifyEnabled,
		&user.NotificationTime,
		&user.NotifyOnline,
		&user.Username,
		&user.TutorialCompleted,
		&user.Subgroup,
		&user.CreatedAt,
		&user.LastActivity,
	)
	if err != nil {
		return nil, err
	}
	if role != nil {
		r := model.Role(*role)
		user.Role = &r
	}
	return &user, nil
}

// Create создаёт пользователя, если его ещё нет
func (r *UserRepository) Create(ctx context.Context, userID int64, username string) (*model.User, error) {
	query := `
		INSERT INTO users (userid, username, last_activity)
		VALUES ($1, NULLIF($2, ''), NOW())
		ON CONFLICT (userid) DO UPDATE SET username = COALESCE(EXCLUDED.username, users.username)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, userID, username))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetByID получает пользователя по Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE userid = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByUsername ищет пользователя по username без учёта регистра
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

// Touch обновляет username и время последней активности
func (r *UserRepository) Touch(ctx context.Context, userID int64, username string, at time.Time) error {
	query := `
		UPDATE users
		SET last_activity = $2, username = COALESCE(NULLIF($3, ''), username)
		WHERE userid = $1
	`
	if _, err := r.db.ExecAffected(ctx, query, userID, at, username); err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}

// SetGroup сохраняет группу пользователя
func (r *UserRepository) SetGroup(ctx context.Context, userID int64, group string) error {
	return r.update(ctx, "set group", `UPDATE users SET group_name = $2 WHERE userid = $1`, userID, group)
}

// SetRole сохраняет роль пользователя
func (r *UserRepository) SetRole(ctx context.Context, userID int64, role model.Role) error {
	return r.update(ctx, "set role", `UPDATE users SET role = $2 WHERE userid = $1`, userID, string(role))
}

// SetDailyNotify включает или выключает ежедневную рассылку
func (r *UserRepository) SetDailyNotify(ctx context.Context, userID int64, enabled bool) error {
	return r.update(ctx, "set daily notify", `UPDATE users SET daily_notify_enabled = $2 WHERE userid = $1`, userID, enabled)
}

// SetNotifyOnline включает или выключает напоминания об онлайн-парах
func (r *UserRepository) SetNotifyOnline(ctx context.Context, userID int64, enabled bool) error {
	return r.update(ctx, "set notify online", `UPDATE users SET notify_online = $2 WHERE userid = $1`, userID, enabled)
}

// SetNotificationTime сохраняет время рассылки HH:MM
func (r *UserRepository) SetNotificationTime(ctx context.Context, userID int64, hhmm string) error {
	return r.update(ctx, "set notification time", `UPDATE users SET notification_time = $2 WHERE userid = $1`, userID, hhmm)
}

// SetSubgroup сохраняет подгруппу; nil снимает фильтр
func (r *UserRepository) SetSubgroup(ctx context.Context, userID int64, subgroup *int) error {
	return r.update(ctx, "set subgroup", `UPDATE users SET subgroup = $2 WHERE userid = $1`, userID, subgroup)
}

// SetTutorialCompleted отмечает пройденное обучение
func (r *UserRepository) SetTutorialCompleted(ctx context.Context, userID int64) error {
	return r.update(ctx, "set tutorial", `UPDATE users SET tutorial_completed = TRUE WHERE userid = $1`, userID)
}

func (r *UserRepository) update(ctx context.Context, op, query string, args ...interface{}) error {
	affected, err := r.db.ExecAffected(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListForNotificationTime пользователи с ежедневной рассылкой на время hhmm
func (r *UserRepository) ListForNotificationTime(ctx context.Context, hhmm string) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE daily_notify_enabled = TRUE AND notification_time = $1 AND group_name <> ''
			AND userid NOT IN (SELECT userid FROM blocked_users)
		ORDER BY userid
	`
	return r.list(ctx, "list users for notification", query, hhmm)
}

// ListOnlineSubscribers пользователи с группой и включёнными напоминаниями об онлайн-парах
func (r *UserRepository) ListOnlineSubscribers(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE notify_online = TRUE AND group_name <> ''
			AND userid NOT IN (SELECT userid FROM blocked_users)
		ORDER BY userid
	`
	return r.list(ctx, "list online subscribers", query)
}

func (r *UserRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*model.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// AllIDs id всех пользователей, кроме заблокировавших бота
func (r *UserRepository) AllIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT userid FROM users WHERE userid NOT IN (SELECT userid FROM blocked_users) ORDER BY userid`
	return collectIDs(ctx, r.db, "list user ids", query)
}

// Count общее количество пользователей
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	n, err := r.db.Count(ctx, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountWithGroup количество пользователей с выбранной группой
func (r *UserRepository) CountWithGroup(ctx context.Context) (int, error) {
	n, err := r.db.Count(ctx, `SELECT COUNT(*) FROM users WHERE group_name <> ''`)
	if err != nil {
		return 0, fmt.Errorf("count users with group: %w", err)
	}
	return n, nil
}

// CountActiveSince количество пользователей, активных после since
func (r *UserRepository) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	n, err := r.db.Count(ctx, `SELECT COUNT(*) FROM users WHERE last_activity >= $1`, since)
	if err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}

func collectIDs(ctx context.Context, db *base.Repository, op, query string, args ...interface{}) ([]int64, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}
