package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/colloqui/internal/app"
	"github.com/Freeeeeet/colloqui/internal/colloqui"
	"github.com/Freeeeeet/colloqui/internal/config"
	"github.com/Freeeeeet/colloqui/internal/controller"
	"github.com/Freeeeeet/colloqui/internal/metrics"
	"github.com/Freeeeeet/colloqui/internal/notify"
	"github.com/Freeeeeet/colloqui/internal/repository"
	"github.com/Freeeeeet/colloqui/migrations"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}
	logger.Info("Service stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting colloqui service",
		zap.String("environment", cfg.Environment),
		zap.String("meetings_end", cfg.School.MeetingsEndDate().Format("2006-01-02")))

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	// Репозитории
	blocks := repository.NewMeetingBlockRepository(pool)
	requests := repository.NewAppointmentRequestRepository(pool)
	assignments := repository.NewAssignmentRepository(pool)
	teachers := repository.NewTeacherRepository(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	clock := colloqui.SystemClock{Location: cfg.Location}

	var (
		telegram *bot.Bot
		notifier *notify.TelegramNotifier
	)
	if cfg.TelegramToken != "" {
		telegram, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		notifier = notify.NewTelegramNotifier(telegram, teachers, logger)
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, notifications disabled")
	}

	var bookingNotifier colloqui.Notifier
	if notifier != nil {
		bookingNotifier = notifier
	}
	booking := colloqui.NewBookingService(blocks, requests, assignments, cfg.School, clock, bookingNotifier, m, logger)

	if telegram != nil {
		controller.NewBotController(telegram, teachers, booking, logger).RegisterHandlers()
		go telegram.Start(ctx)

		jobs := app.NewScheduler(booking, notifier, m, cfg.Location, logger)
		if err := jobs.Start(cfg.DigestSpec); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			jobs.Stop(stopCtx)
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Metrics listener started", zap.String("addr", cfg.MetricsAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
