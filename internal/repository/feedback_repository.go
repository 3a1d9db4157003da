package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/repository/base"
)

const feedbackColumns = `id, user_id, user_message_id, media_ids, text, timestamp`

type FeedbackRepository struct {
	db *base.Repository
}

func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: base.NewRepository(pool)}
}

func scanFeedback(row pgx.Row) (*model.FeedbackMessage, error) {
	var f model.FeedbackMessage
	if err := row.Scan(&f.ID, &f.UserID, &f.UserMessageID, &f.MediaIDs, &f.Text, &f.Timestamp); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create сохраняет фидбек
func (r *FeedbackRepository) Create(ctx context.Context, f *model.FeedbackMessage) error {
	query := `
		INSERT INTO feedback_messages (user_id, user_message_id, media_ids, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp
	`
	err := r.db.QueryRow(ctx, query, f.UserID, f.UserMessageID, f.MediaIDs, f.Text).Scan(&f.ID, &f.Timestamp)
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// GetByID получает фидбек по id
func (r *FeedbackRepository) GetByID(ctx context.Context, id int64) (*model.FeedbackMessage, error) {
	f, err := scanFeedback(r.db.QueryRow(ctx, `SELECT `+feedbackColumns+` FROM feedback_messages WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return f, nil
}

// ListPage страница фидбеков по возрастанию id
func (r *FeedbackRepository) ListPage(ctx context.Context, limit, offset int) ([]*model.FeedbackMessage, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+feedbackColumns+` FROM feedback_messages ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var items []*model.FeedbackMessage
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return items, nil
}

// Count количество необработанных фидбеков
func (r *FeedbackRepository) Count(ctx context.Context) (int, error) {
	n, err := r.db.Count(ctx, `SELECT COUNT(*) FROM feedback_messages`)
	if err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

// Delete удаляет фидбек после ответа
func (r *FeedbackRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecAffected(ctx, `DELETE FROM feedback_messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return nil
}
