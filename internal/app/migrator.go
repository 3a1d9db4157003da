package app

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator обёртка над goose, работающая со встроенными миграциями
type Migrator struct {
	db     *sql.DB
	fsys   fs.FS
	logger *zap.Logger
}

// MigrationInfo описание файла миграции
type MigrationInfo struct {
	Version int64
	Source  string
}

// NewMigrator создаёт новый мигратор
func NewMigrator(pool *pgxpool.Pool, fsys fs.FS, logger *zap.Logger) (*Migrator, error) {
	// Устанавливаем диалект для PostgreSQL
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{logger.Sugar()})

	// Goose работает с *sql.DB, поэтому создаём его из конфига пула
	db := stdlib.OpenDBFromPool(pool)

	return &Migrator{
		db:     db,
		fsys:   fsys,
		logger: logger,
	}, nil
}

// Up применяет все pending миграции
func (mg *Migrator) Up(ctx context.Context) error {
	mg.logger.Info("🔄 Applying database migrations...")

	if err := goose.UpContext(ctx, mg.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	mg.logger.Info("✅ Migrations applied successfully")
	return nil
}

// UpTo применяет миграции до указанной версии включительно
func (mg *Migrator) UpTo(ctx context.Context, version int64) error {
	if err := goose.UpToContext(ctx, mg.db, ".", version); err != nil {
		return fmt.Errorf("apply migrations up to %d: %w", version, err)
	}
	return nil
}

// Down откатывает последнюю миграцию
func (mg *Migrator) Down(ctx context.Context) error {
	if err := goose.DownContext(ctx, mg.db, "."); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// DownTo откатывает миграции до указанной версии
func (mg *Migrator) DownTo(ctx context.Context, version int64) error {
	if err := goose.DownToContext(ctx, mg.db, ".", version); err != nil {
		return fmt.Errorf("rollback migrations to %d: %w", version, err)
	}
	return nil
}

// Status выводит историю миграций через логгер goose
func (mg *Migrator) Status(ctx context.Context) error {
	if err := goose.StatusContext(ctx, mg.db, "."); err != nil {
		return fmt.Errorf("migrations status: %w", err)
	}
	return nil
}

// Version показывает текущую версию миграций
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Heads возвращает последнюю известную миграцию
func (mg *Migrator) Heads() ([]MigrationInfo, error) {
	all, err := mg.collect(0)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1:], nil
}

// PendingSQL возвращает SQL секций Up для ещё не применённых миграций
func (mg *Migrator) PendingSQL(ctx context.Context) (string, error) {
	current, err := mg.Version(ctx)
	if err != nil {
		return "", err
	}

	pending, err := mg.collect(current)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, m := range pending {
		raw, err := fs.ReadFile(mg.fsys, m.Source)
		if err != nil {
			return "", fmt.Errorf("read migration %s: %w", m.Source, err)
		}
		fmt.Fprintf(&b, "-- Running upgrade -> %d (%s)\n", m.Version, m.Source)
		b.WriteString(UpSection(string(raw)))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Create создаёт новый файл SQL миграции в каталоге dir на диске
func (mg *Migrator) Create(dir, name string) error {
	goose.SetBaseFS(nil)
	defer goose.SetBaseFS(mg.fsys)

	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return fmt.Errorf("create migration: %w", err)
	}
	return nil
}

// Close закрывает соединение мигратора
func (mg *Migrator) Close() error {
	// Закрываем sql.DB, но не пул (он управляется в main)
	if mg.db != nil {
		return mg.db.Close()
	}
	return nil
}

func (mg *Migrator) collect(after int64) ([]MigrationInfo, error) {
	migrations, err := goose.CollectMigrations(".", after, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}

	infos := make([]MigrationInfo, 0, len(migrations))
	for _, m := range migrations {
		if m.Version <= after {
			continue
		}
		infos = append(infos, MigrationInfo{Version: m.Version, Source: path.Base(m.Source)})
	}
	return infos, nil
}

// UpSection вырезает из файла goose часть между аннотациями Up и Down
func UpSection(src string) string {
	var (
		b    strings.Builder
		inUp bool
	)
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-- +goose Up"):
			inUp = true
			continue
		case strings.HasPrefix(trimmed, "-- +goose Down"):
			inUp = false
			continue
		case strings.HasPrefix(trimmed, "-- +goose"):
			continue
		}
		if inUp {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.s.Infof(strings.TrimRight(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.s.Fatalf(strings.TrimRight(format, "\n"), v...)
}
