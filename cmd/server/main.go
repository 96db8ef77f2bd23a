// Package main is the entry point for the Solo Rising server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"solo-rising/internal/api"
	"solo-rising/internal/bot"
	"solo-rising/internal/cache"
	"solo-rising/internal/config"
	"solo-rising/internal/cron"
	"solo-rising/internal/llm"
	"solo-rising/internal/notify"
	"solo-rising/internal/pkg/db"
	"solo-rising/internal/pkg/lock"
	"solo-rising/internal/repository"
	"solo-rising/internal/reward"
	"solo-rising/internal/scoring"
	"solo-rising/internal/service"
)

func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if strings.EqualFold(cfg.Format, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func main() {
	configPath := flag.String("config", "config", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg.Log)
	log.Info().Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		return err
	}

	ledgerCache, err := cache.New(ctx, cfg.Cache, cfg.Redis)
	if err != nil {
		return err
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	workoutRepo := repository.NewWorkoutRepository(dbPool.Pool)
	ledgerRepo := repository.NewLedgerRepository(dbPool.Pool)
	rewardRepo := repository.NewRewardRepository(dbPool.Pool)
	taskRepo := repository.NewTaskRepository(dbPool.Pool)
	inventoryRepo := repository.NewInventoryRepository(dbPool.Pool)

	// Notification channels
	hub := notify.NewHub()
	senders := []notify.Sender{hub}

	telegramBot, err := bot.New(cfg)
	switch {
	case errors.Is(err, bot.ErrNoToken):
		log.Info().Msg("Telegram bot disabled")
		telegramBot = nil
	case err != nil:
		log.Error().Err(err).Msg("Failed to start Telegram bot, continuing without it")
		telegramBot = nil
	default:
		senders = append(senders, notify.NewTelegram(telegramBot.Tele()))
	}
	notifier := notify.NewNotifier(senders...)

	chatClient, err := llm.NewClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Chat provider unavailable")
		chatClient = nil
	} else if err := chatClient.IsModelAvailable(ctx); err != nil {
		log.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("Chat model not reachable yet")
	}

	// Services
	userLock := lock.NewUserLock()
	loc := cfg.Ledger.Location()
	rewardService := service.NewRewardService(dbPool.Pool, userRepo, workoutRepo, ledgerRepo, rewardRepo,
		userLock, ledgerCache, notifier, cfg.Ledger.LockTimeout)
	if err := rewardService.Seed(ctx, reward.DefaultCatalog); err != nil {
		return err
	}

	workoutService := service.NewWorkoutService(dbPool.Pool, userRepo, workoutRepo, ledgerRepo,
		scoring.NewDefaultRegistry(), rewardService, userLock, ledgerCache, cfg.Ledger)
	profileService := service.NewProfileService(dbPool.Pool, userRepo, ledgerRepo, ledgerCache)
	taskService := service.NewTaskService(dbPool.Pool, userRepo, taskRepo, workoutService, cfg.Tasks.DailyLimit)
	storeService := service.NewStoreService(dbPool.Pool, userRepo, ledgerRepo, inventoryRepo,
		userLock, ledgerCache, cfg.Ledger.LockTimeout)
	rankingService := service.NewRankingService(userRepo, ledgerRepo, loc)
	sweepService := service.NewSweepService(userRepo, ledgerCache, loc, cfg.Sweep.PageSize)
	chatService := service.NewChatService(chatClient, profileService)

	router := api.NewRouter(&api.Dependencies{
		Auth:     api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Admin.IDs),
		Health:   dbPool.HealthCheck,
		Profiles: profileService,
		Workouts: workoutService,
		Rewards:  rewardService,
		Rankings: rankingService,
		Tasks:    taskService,
		Store:    storeService,
		Chat:     chatService,
		Sweeper:  sweepService,
		Stream:   hub,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(gctx) })

	if cfg.Sweep.Enabled {
		cronManager := cron.NewManager()
		cronManager.Register(cron.NewStreakSweepJob(sweepService, loc, true))
		g.Go(func() error { return cronManager.Start(gctx) })
	}

	if telegramBot != nil {
		telegramBot.Register(&bot.Dependencies{
			Profiles: profileService,
			Rankings: rankingService,
			Store:    storeService,
			Sweeper:  sweepService,
		})
		g.Go(func() error { return telegramBot.Start(gctx) })
	}

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
