package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vludko/workformat-bot/internal/bot"
	"github.com/vludko/workformat-bot/internal/config"
	"github.com/vludko/workformat-bot/internal/dates"
	"github.com/vludko/workformat-bot/internal/metrics"
	"github.com/vludko/workformat-bot/internal/repository"
	"github.com/vludko/workformat-bot/internal/scheduler"
	"github.com/vludko/workformat-bot/internal/server"
	"github.com/vludko/workformat-bot/internal/tracker"
)

// Constants for different environment types.
const (
	envLocal   = "local"
	envDev     = "development"
	envProd    = "production"
	serverPort = 8080
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the database connection.
	dtb, err := repository.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	// Apply pending schema migrations over a stdlib connection from the pool.
	migrateDB := stdlib.OpenDBFromPool(dtb)
	if err = repository.RunMigrations(migrateDB, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err = migrateDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", "error", err)
	}

	// Create a new repository instance using the database connection.
	repo := repository.NewRepository(dtb)

	// The date engine pins all calendar math to the configured timezone.
	engine, err := dates.NewEngine(cfg.Timezone)
	if err != nil {
		log.Fatalf("Failed to initialize date engine: %v", err)
	}

	// Initialize the attendance tracker and seed the configured accounts.
	trk := tracker.New(logger, repo, engine, cfg.AdminHandles, cfg.TestHandles)
	if err = trk.Bootstrap(ctx, cfg.Schedule.MorningTime, cfg.Schedule.AfternoonTime); err != nil {
		log.Fatalf("Failed to bootstrap accounts: %v", err)
	}

	// Initialize the bot with logger, tracker, repository, token, and poller timeout.
	workBot, err := bot.NewBot(logger, trk, repo, appMetrics, cfg.Token, cfg.PollerTimeout)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	// Initialize and start the daily trigger scheduler.
	sched, err := scheduler.New(logger, repo, trk, workBot, appMetrics, cfg.Timezone)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	if err = sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	workBot.BindScheduler(sched)

	defer stop() // Ensure stop is called to release resources related to signal handling.
	defer dtb.Close()

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the bot in a goroutine to allow main to listen for signals.
	go workBot.Start()

	// Start the monitoring server
	go server.StartMonitoringServer(ctx, logger, reg, dtb, serverPort)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Stop the bot and the scheduler gracefully.
	workBot.Stop()
	sched.Shutdown()

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
