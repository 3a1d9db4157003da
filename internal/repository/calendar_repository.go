package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/repository/base"
)

const dateLayout = "2006-01-02"

type HolidayRepository struct {
	db *base.Repository
}

func NewHolidayRepository(pool *pgxpool.Pool) *HolidayRepository {
	return &HolidayRepository{db: base.NewRepository(pool)}
}

// Create добавляет период без занятий
func (r *HolidayRepository) Create(ctx context.Context, h *model.Holiday) error {
	query := `
		INSERT INTO holidays (group_name, start_date, end_date, type)
		VALUES ($1, $2::date, $3::date, $4)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		h.Group,
		h.StartDate.Format(dateLayout),
		h.EndDate.Format(dateLayout),
		h.Type,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// FindForDate ищет праздник группы (или всех групп), покрывающий дату
func (r *HolidayRepository) FindForDate(ctx context.Context, group string, date time.Time) (*model.Holiday, error) {
	query := `
		SELECT id, group_name, start_date, end_date, type
		FROM holidays
		WHERE (group_name = $1 OR group_name = 'all')
			AND start_date <= $2::date AND end_date >= $2::date
		ORDER BY (group_name = 'all'), start_date DESC
		LIMIT 1
	`
	var h model.Holiday
	err := r.db.QueryRow(ctx, query, group, date.Format(dateLayout)).
		Scan(&h.ID, &h.Group, &h.StartDate, &h.EndDate, &h.Type)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find holiday: %w", err)
	}
	return &h, nil
}

// List все праздники по дате начала
func (r *HolidayRepository) List(ctx context.Context) ([]*model.Holiday, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, group_name, start_date, end_date, type
		FROM holidays
		ORDER BY start_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []*model.Holiday
	for rows.Next() {
		var h model.Holiday
		if err := rows.Scan(&h.ID, &h.Group, &h.StartDate, &h.EndDate, &h.Type); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		holidays = append(holidays, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holidays: %w", err)
	}
	return holidays, nil
}

// Delete удаляет праздник по id
func (r *HolidayRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete holiday: %w", err)
	}
	return affected > 0, nil
}

type SemesterRepository struct {
	db *base.Repository
}

func NewSemesterRepository(pool *pgxpool.Pool) *SemesterRepository {
	return &SemesterRepository{db: base.NewRepository(pool)}
}

// Get границы семестра группы
func (r *SemesterRepository) Get(ctx context.Context, group string) (*model.SemesterBoundary, error) {
	var s model.SemesterBoundary
	err := r.db.QueryRow(ctx, `
		SELECT group_name, first_date, last_date, updated_at
		FROM semester_boundaries
		WHERE group_name = $1
	`, group).Scan(&s.Group, &s.FirstDate, &s.LastDate, &s.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get semester boundary: %w", err)
	}
	return &s, nil
}

// Upsert сохраняет пересчитанные границы семестра
func (r *SemesterRepository) Upsert(ctx context.Context, s *model.SemesterBoundary) error {
	query := `
		INSERT INTO semester_boundaries (group_name, first_date, last_date, updated_at)
		VALUES ($1, $2::date, $3::date, $4)
		ON CONFLICT (group_name) DO UPDATE
		SET first_date = EXCLUDED.first_date, last_date = EXCLUDED.last_date, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecAffected(ctx, query, s.Group, dateOrNil(s.FirstDate), dateOrNil(s.LastDate), s.UpdatedAt); err != nil {
		return fmt.Errorf("upsert semester boundary: %w", err)
	}
	return nil
}

func dateOrNil(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

type GlobalGroupRepository struct {
	db *base.Repository
}

func NewGlobalGroupRepository(pool *pgxpool.Pool) *GlobalGroupRepository {
	return &GlobalGroupRepository{db: base.NewRepository(pool)}
}

// UpsertMany добавляет группы или обновляет их updated_at
func (r *GlobalGroupRepository) UpsertMany(ctx context.Context, names []string, at time.Time) error {
	if len(names) == 0 {
		return nil
	}
	query := `
		INSERT INTO global_groups (group_name, updated_at)
		SELECT DISTINCT name, $2::timestamptz FROM unnest($1::text[]) AS name
		ON CONFLICT (group_name) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecAffected(ctx, query, names, at); err != nil {
		return fmt.Errorf("upsert global groups: %w", err)
	}
	return nil
}

// Exists проверяет наличие группы в каталоге
func (r *GlobalGroupRepository) Exists(ctx context.Context, name string) (bool, error) {
	n, err := r.db.Count(ctx, `SELECT COUNT(*) FROM global_groups WHERE group_name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("check global group: %w", err)
	}
	return n > 0, nil
}

// Count размер каталога
func (r *GlobalGroupRepository) Count(ctx context.Context) (int, error) {
	n, err := r.db.Count(ctx, `SELECT COUNT(*) FROM global_groups`)
	if err != nil {
		return 0, fmt.Errorf("count global groups: %w", err)
	}
	return n, nil
}

// LastUpdated время последней синхронизации каталога; nil для пустого каталога
func (r *GlobalGroupRepository) LastUpdated(ctx context.Context) (*time.Time, error) {
	var t *time.Time
	if err := r.db.QueryRow(ctx, `SELECT MAX(updated_at) FROM global_groups`).Scan(&t); err != nil {
		return nil, fmt.Errorf("last global groups update: %w", err)
	}
	return t, nil
}

// PruneOlderThan удаляет группы, не обновлявшиеся с before
func (r *GlobalGroupRepository) PruneOlderThan(ctx context.Context, before time.Time) (int64, error) {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM global_groups WHERE updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune global groups: %w", err)
	}
	return affected, nil
}

type AlertedLessonRepository struct {
	db *base.Repository
}

func NewAlertedLessonRepository(pool *pgxpool.Pool) *AlertedLessonRepository {
	return &AlertedLessonRepository{db: base.NewRepository(pool)}
}

// Mark отмечает напоминание; false означает, что оно уже было отправлено
func (r *AlertedLessonRepository) Mark(ctx context.Context, a *model.AlertedLesson) (bool, error) {
	query := `
		INSERT INTO alerted_lessons (chatid, date, start_time, sbj)
		VALUES ($1, $2::date, $3, $4)
		ON CONFLICT ON CONSTRAINT alerted_lessons_unique DO NOTHING
	`
	affected, err := r.db.ExecAffected(ctx, query, a.ChatID, a.Date.Format(dateLayout), a.StartTime, a.Subject)
	if err != nil {
		return false, fmt.Errorf("mark alerted lesson: %w", err)
	}
	return affected > 0, nil
}

// Clear очищает отметки о напоминаниях
func (r *AlertedLessonRepository) Clear(ctx context.Context) (int64, error) {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM alerted_lessons`)
	if err != nil {
		return 0, fmt.Errorf("clear alerted lessons: %w", err)
	}
	return affected, nil
}
