package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/poly_schedule_bot/internal/app"
	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/config"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/handlers"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/messenger"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/metrics"
	"github.com/Freeeeeet/poly_schedule_bot/internal/queue"
	"github.com/Freeeeeet/poly_schedule_bot/internal/raspyx"
	"github.com/Freeeeeet/poly_schedule_bot/internal/repository"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
	"github.com/Freeeeeet/poly_schedule_bot/migrations"
)

const stateCleanupInterval = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogFile)
	defer logger.Sync()

	logger.Sugar().Infow("Starting schedule bot",
		"environment", cfg.Environment,
		"token_length", len(cfg.TelegramToken),
		"timezone", cfg.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("👋 Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	loc := cfg.Location()
	clk := clock.Real{Loc: loc}

	pool, err := app.NewPool(ctx, cfg.DSN(), app.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("✅ Connected to database", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	if cfg.MigrationsAuto {
		migrator, err := app.NewMigrator(pool, migrations.FS, logger)
		if err != nil {
			return err
		}
		err = migrator.Up(ctx)
		migrator.Close()
		if err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Репозитории
	users := repository.NewUserRepository(pool)
	chats := repository.NewChatRepository(pool)
	bans := repository.NewBanRepository(pool)
	blocked := repository.NewBlockedUserRepository(pool)
	holidays := repository.NewHolidayRepository(pool)
	semesters := repository.NewSemesterRepository(pool)
	groups := repository.NewGlobalGroupRepository(pool)
	alerts := repository.NewAlertedLessonRepository(pool)
	feedback := repository.NewFeedbackRepository(pool)
	admins := repository.NewAdminRepository(pool)
	patterns := repository.NewPatternRepository(pool)
	names := repository.NewPersonalizedNameRepository(pool)

	api := raspyx.NewClient(cfg.APIBaseURL, cfg.APIUsername, cfg.APIPassword, logger.Named("raspyx"),
		raspyx.WithObserver(m.APIRequest),
		raspyx.WithClock(clk.Now),
	)
	if err := api.Login(ctx); err != nil {
		logger.Warn("Raspyx login failed, will retry on first request", zap.Error(err))
	}

	// Цепочка middleware нужна до создания бота, сервисы подключаются позже
	middlewares := controller.NewMiddlewares(m, loc, logger)
	b, err := bot.New(cfg.TelegramToken,
		bot.WithMiddlewares(middlewares.Chain()...),
		bot.WithErrorsHandler(func(err error) {
			logger.Error("Telegram polling error", zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}
	send := messenger.New(b, logger)

	queueCfg := queue.DefaultConfig()
	queueCfg.Workers = cfg.QueueMaxWorkers
	queueCfg.RatePerSecond = cfg.QueueRateLimit
	outbox := queue.New(queueCfg, m, logger.Named("queue"))

	// Сервисы
	catalogService := service.NewGroupCatalogService(groups, api, clk, logger)
	userService := service.NewUserService(users, chats, blocked, catalogService, clk, logger)
	banService := service.NewBanService(bans, service.RateLimitConfig{
		Messages:    cfg.RateLimitMessages,
		Window:      time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		BanDuration: time.Duration(cfg.BanDurationMinutes) * time.Minute,
	}, clk, m, logger)
	accessService := service.NewAccessService(admins, cfg.AdminUserIDs, logger)
	patternService := service.NewPatternService(patterns, names, logger)
	holidayService := service.NewHolidayService(holidays, loc, logger)
	semesterService := service.NewSemesterService(semesters, clk, logger)
	scheduleService := service.NewScheduleService(api, holidays, semesterService, clk, logger)
	feedbackService := service.NewFeedbackService(feedback, users, send, logger)
	keyboardCleaner := service.NewKeyboardCleaner(outbox, send,
		time.Duration(cfg.InlineKeyboardTTLSeconds)*time.Second, clk, logger)
	broadcastService := service.NewBroadcastService(users, chats, outbox, send, service.BroadcastConfig{
		BatchSize: cfg.BroadcastBatchSize,
		Interval:  time.Duration(cfg.BroadcastIntervalSeconds) * time.Second,
	}, logger)
	statsService := service.NewStatsService(users, chats, blocked, feedback, outbox, scheduleService, m, clk, logger)
	notificationService := service.NewNotificationService(users, chats, alerts, blocked, scheduleService, outbox, send, clk, logger)

	if err := patternService.Reload(ctx); err != nil {
		logger.Warn("Failed to load auto-reply patterns", zap.Error(err))
	}

	outbox.OnBlocked(func(chatID int64) {
		if chatID > 0 {
			userService.MarkBlocked(context.Background(), chatID)
			return
		}
		userService.ForgetChat(context.Background(), chatID)
	})

	middlewares.Bind(userService, banService, send)

	states := state.NewManager(state.DefaultTTL, clk)
	botController := controller.NewBotController(b, handlers.Deps{
		Users:      userService,
		Schedules:  scheduleService,
		Bans:       banService,
		Access:     accessService,
		Patterns:   patternService,
		Holidays:   holidayService,
		Feedback:   feedbackService,
		Broadcasts: broadcastService,
		Stats:      statsService,
		Keyboards:  keyboardCleaner,
		Messenger:  send,
		States:     states,
		Metrics:    m,
		Clock:      clk,
		Location:   loc,
		Logger:     logger,
	})
	if err := botController.RegisterHandlers(ctx); err != nil {
		return err
	}

	scheduler := app.NewScheduler(app.DefaultJobs(app.JobDeps{
		Notifications: notificationService,
		Catalog:       catalogService,
		Stats:         statsService,
		Bans:          banService,
		Keyboards:     keyboardCleaner,
	}, logger.Named("scheduler")), clk, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return outbox.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error {
		states.Run(gctx, stateCleanupInterval)
		return nil
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.MetricsAddr, metrics.NewRouter(pool, registry, logger), logger)
		})
	}
	g.Go(func() error { return botController.Start(gctx) })

	logger.Info("🚀 Bot is running")
	return g.Wait()
}
