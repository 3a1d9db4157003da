// Command migrate управляет схемой БД бота через встроенные миграции goose.
//
//	migrate upgrade [version]
//	migrate downgrade [version]
//	migrate history | current | heads | sql
//	migrate autogenerate <name>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/app"
	"github.com/Freeeeeet/poly_schedule_bot/internal/config"
	"github.com/Freeeeeet/poly_schedule_bot/migrations"
)

const usage = `Usage: migrate [-dir migrations] <command> [args]

Commands:
  upgrade [version]    apply pending migrations (up to version)
  downgrade [version]  roll back the last migration (down to version)
  history              show applied and pending migrations
  current              print the current schema version
  heads                print the latest known migration
  sql                  print SQL of pending migrations without applying
  autogenerate <name>  create a new SQL migration file
`

func main() {
	dir := flag.String("dir", "migrations", "directory for new migration files")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := app.NewLogger(cfg.Environment, "")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *dir, args[0], args[1:]); err != nil {
		logger.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, dir, cmd string, args []string) error {
	pool, err := app.NewPool(ctx, cfg.DSN(), app.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	version, hasVersion := optionalVersion(args)

	switch cmd {
	case "upgrade":
		if hasVersion {
			return migrator.UpTo(ctx, version)
		}
		return migrator.Up(ctx)
	case "downgrade":
		if hasVersion {
			return migrator.DownTo(ctx, version)
		}
		return migrator.Down(ctx)
	case "history":
		return migrator.Status(ctx)
	case "current":
		v, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case "heads":
		heads, err := migrator.Heads()
		if err != nil {
			return err
		}
		for _, h := range heads {
			fmt.Printf("%d (head) %s\n", h.Version, h.Source)
		}
		return nil
	case "sql":
		sql, err := migrator.PendingSQL(ctx)
		if err != nil {
			return err
		}
		fmt.Print(sql)
		return nil
	case "autogenerate":
		if len(args) != 1 {
			return fmt.Errorf("autogenerate requires a migration name")
		}
		return migrator.Create(dir, args[0])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// optionalVersion разбирает необязательный номер версии для upgrade/downgrade
func optionalVersion(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	v, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
