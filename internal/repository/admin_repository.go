package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/repository/base"
)

type AdminRepository struct {
	db *base.Repository
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: base.NewRepository(pool)}
}

// Grant выдаёт право, создавая админа при необходимости
func (r *AdminRepository) Grant(ctx context.Context, userID int64, username string, perm model.Permission) error {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin grant: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO admin_users (userid, username) VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (userid) DO UPDATE SET username = COALESCE(EXCLUDED.username, admin_users.username)
	`, userID, username)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO admin_permissions (userid, command) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, string(perm))
	if err != nil {
		return fmt.Errorf("insert permission: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit grant: %w", err)
	}
	return nil
}

// Revoke забирает одно право
func (r *AdminRepository) Revoke(ctx context.Context, userID int64, perm model.Permission) (bool, error) {
	affected, err := r.db.ExecAffected(ctx,
		`DELETE FROM admin_permissions WHERE userid = $1 AND command = $2`, userID, string(perm))
	if err != nil {
		return false, fmt.Errorf("revoke permission: %w", err)
	}
	return affected > 0, nil
}

// Remove удаляет админа вместе со всеми правами
func (r *AdminRepository) Remove(ctx context.Context, userID int64) (bool, error) {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM admin_users WHERE userid = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("remove admin: %w", err)
	}
	return affected > 0, nil
}

// HasPermission проверяет наличие права
func (r *AdminRepository) HasPermission(ctx context.Context, userID int64, perm model.Permission) (bool, error) {
	n, err := r.db.Count(ctx,
		`SELECT COUNT(*) FROM admin_permissions WHERE userid = $1 AND command = $2`, userID, string(perm))
	if err != nil {
		return false, fmt.Errorf("check permission: %w", err)
	}
	return n > 0, nil
}

// Permissions права админа
func (r *AdminRepository) Permissions(ctx context.Context, userID int64) ([]model.Permission, error) {
	rows, err := r.db.Query(ctx,
		`SELECT command FROM admin_permissions WHERE userid = $1 ORDER BY command`, userID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Permission, error) {
		var s string
		err := row.Scan(&s)
		return model.Permission(s), err
	})
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// List все делегированные админы с правами
func (r *AdminRepository) List(ctx context.Context) ([]*model.AdminUser, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.userid, COALESCE(a.username, ''), a.created_at, COALESCE(p.command, '')
		FROM admin_users a
		LEFT JOIN admin_permissions p ON p.userid = a.userid
		ORDER BY a.userid, p.command
	`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var (
		admins []*model.AdminUser
		last   *model.AdminUser
	)
	for rows.Next() {
		var (
			a    model.AdminUser
			perm string
		)
		if err := rows.Scan(&a.UserID, &a.Username, &a.CreatedAt, &perm); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		if last == nil || last.UserID != a.UserID {
			last = &a
			admins = append(admins, last)
		}
		if perm != "" {
			last.Permissions = append(last.Permissions, model.Permission(perm))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}
	return admins, nil
}
