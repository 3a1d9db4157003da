package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/repository/base"
)

type PatternRepository struct {
	db *base.Repository
}

func NewPatternRepository(pool *pgxpool.Pool) *PatternRepository {
	return &PatternRepository{db: base.NewRepository(pool)}
}

// Create добавляет правило автоответа
func (r *PatternRepository) Create(ctx context.Context, p *model.Pattern) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO patterns (pattern, response) VALUES ($1, $2) RETURNING id`,
		p.Pattern, p.Response,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("create pattern: %w", err)
	}
	return nil
}

// List все правила в порядке добавления
func (r *PatternRepository) List(ctx context.Context) ([]*model.Pattern, error) {
	rows, err := r.db.Query(ctx, `SELECT id, pattern, response FROM patterns ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	var patterns []*model.Pattern
	for rows.Next() {
		var p model.Pattern
		if err := rows.Scan(&p.ID, &p.Pattern, &p.Response); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		patterns = append(patterns, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}
	return patterns, nil
}

// Delete удаляет правило по id
func (r *PatternRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM patterns WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete pattern: %w", err)
	}
	return affected > 0, nil
}

type PersonalizedNameRepository struct {
	db *base.Repository
}

func NewPersonalizedNameRepository(pool *pgxpool.Pool) *PersonalizedNameRepository {
	return &PersonalizedNameRepository{db: base.NewRepository(pool)}
}

// Create добавляет имя; ErrAlreadyExists для дубликата
func (r *PersonalizedNameRepository) Create(ctx context.Context, name string) (*model.PersonalizedName, error) {
	n := &model.PersonalizedName{Name: name}
	err := r.db.QueryRow(ctx, `INSERT INTO personalized_names (name) VALUES ($1) RETURNING id`, name).Scan(&n.ID)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create personalized name: %w", err)
	}
	return n, nil
}

// DeleteByName удаляет имя без учёта регистра
func (r *PersonalizedNameRepository) DeleteByName(ctx context.Context, name string) (bool, error) {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM personalized_names WHERE LOWER(name) = LOWER($1)`, name)
	if err != nil {
		return false, fmt.Errorf("delete personalized name: %w", err)
	}
	return affected > 0, nil
}

// List все имена
func (r *PersonalizedNameRepository) List(ctx context.Context) ([]*model.PersonalizedName, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM personalized_names ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list personalized names: %w", err)
	}
	defer rows.Close()

	var names []*model.PersonalizedName
	for rows.Next() {
		var n model.PersonalizedName
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, fmt.Errorf("scan personalized name: %w", err)
		}
		names = append(names, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate personalized names: %w", err)
	}
	return names, nil
}
