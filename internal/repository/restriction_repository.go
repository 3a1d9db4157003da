package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/repository/base"
)

type BanRepository struct {
	db *base.Repository
}

func NewBanRepository(pool *pgxpool.Pool) *BanRepository {
	return &BanRepository{db: base.NewRepository(pool)}
}

// Get получает бан пользователя
func (r *BanRepository) Get(ctx context.Context, userID int64) (*model.Ban, error) {
	var ban model.Ban
	err := r.db.QueryRow(ctx, `SELECT userid, ban_until FROM bans WHERE userid = $1`, userID).
		Scan(&ban.UserID, &ban.BanUntil)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ban: %w", err)
	}
	return &ban, nil
}

// Upsert создаёт или продлевает бан
func (r *BanRepository) Upsert(ctx context.Context, ban *model.Ban) error {
	query := `
		INSERT INTO bans (userid, ban_until) VALUES ($1, $2)
		ON CONFLICT (userid) DO UPDATE SET ban_until = EXCLUDED.ban_until
	`
	if _, err := r.db.ExecAffected(ctx, query, ban.UserID, ban.BanUntil); err != nil {
		return fmt.Errorf("upsert ban: %w", err)
	}
	return nil
}

// Delete снимает бан; возвращает false, если бана не было
func (r *BanRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM bans WHERE userid = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete ban: %w", err)
	}
	return affected > 0, nil
}

// ListActive баны, действующие на момент now
func (r *BanRepository) ListActive(ctx context.Context, now time.Time) ([]*model.Ban, error) {
	rows, err := r.db.Query(ctx,
		`SELECT userid, ban_until FROM bans WHERE ban_until > $1 ORDER BY ban_until`, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list active bans: %w", err)
	}
	defer rows.Close()

	var bans []*model.Ban
	for rows.Next() {
		var ban model.Ban
		if err := rows.Scan(&ban.UserID, &ban.BanUntil); err != nil {
			return nil, fmt.Errorf("scan ban: %w", err)
		}
		bans = append(bans, &ban)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bans: %w", err)
	}
	return bans, nil
}

// DeleteExpired удаляет истёкшие баны
func (r *BanRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM bans WHERE ban_until <= $1`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired bans: %w", err)
	}
	return affected, nil
}

type BlockedUserRepository struct {
	db *base.Repository
}

func NewBlockedUserRepository(pool *pgxpool.Pool) *BlockedUserRepository {
	return &BlockedUserRepository{db: base.NewRepository(pool)}
}

// Add отмечает, что пользователь заблокировал бота
func (r *BlockedUserRepository) Add(ctx context.Context, userID int64, username string, at time.Time) error {
	query := `
		INSERT INTO blocked_users (userid, username, blocked_at)
		VALUES ($1, NULLIF($2, ''), $3)
		ON CONFLICT (userid) DO UPDATE SET blocked_at = EXCLUDED.blocked_at
	`
	if _, err := r.db.ExecAffected(ctx, query, userID, username, at); err != nil {
		return fmt.Errorf("add blocked user: %w", err)
	}
	return nil
}

// Remove снимает отметку, когда пользователь снова пишет боту
func (r *BlockedUserRepository) Remove(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecAffected(ctx, `DELETE FROM blocked_users WHERE userid = $1`, userID); err != nil {
		return fmt.Errorf("remove blocked user: %w", err)
	}
	return nil
}

// IsBlocked проверяет отметку о блокировке
func (r *BlockedUserRepository) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	n, err := r.db.Count(ctx, `SELECT COUNT(*) FROM blocked_users WHERE userid = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("check blocked user: %w", err)
	}
	return n > 0, nil
}

// ListRecent последние заблокировавшие бота пользователи
func (r *BlockedUserRepository) ListRecent(ctx context.Context, limit int) ([]*model.BlockedUser, error) {
	rows, err := r.db.Query(ctx, `
		SELECT userid, COALESCE(username, ''), blocked_at
		FROM blocked_users
		ORDER BY blocked_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	defer rows.Close()

	var users []*model.BlockedUser
	for rows.Next() {
		var u model.BlockedUser
		if err := rows.Scan(&u.UserID, &u.Username, &u.BlockedAt); err != nil {
			return nil, fmt.Errorf("scan blocked user: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocked users: %w", err)
	}
	return users, nil
}

// Count количество заблокировавших бота
func (r *BlockedUserRepository) Count(ctx context.Context) (int, error) {
	n, err := r.db.Count(ctx, `SELECT COUNT(*) FROM blocked_users`)
	if err != nil {
		return 0, fmt.Errorf("count blocked users: %w", err)
	}
	return n, nil
}

// DeleteOlderThan удаляет отметки старше before
func (r *BlockedUserRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM blocked_users WHERE blocked_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("cleanup blocked users: %w", err)
	}
	return affected, nil
}
