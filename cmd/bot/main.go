// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/bot"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/commerce"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/config"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/core"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/discord"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/entitlement"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/health"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/middleware"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/server"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to optional YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			for _, problem := range cfgErr.Problems {
				slog.Error("configuration error", "problem", problem)
			}
		}
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	metrics := core.NewMetrics()

	shop, err := commerce.NewClient(commerce.ClientConfig{
		CommerceConfig: cfg.Commerce,
		Debug:          cfg.IsDevelopment(),
		Logger:         logger.With("component", "commerce"),
		Metrics:        metrics,
	})
	if err != nil {
		return err
	}
	logger.Info("commerce client initialized",
		"base_url", cfg.Commerce.BaseURL,
		"debug", cfg.IsDevelopment(),
	)

	gateway, err := discord.NewGateway(cfg.Discord, logger.With("component", "discord"))
	if err != nil {
		return err
	}

	platform := discord.NewPlatform(gateway.Session())

	dispatcher := bot.NewDispatcher(bot.DispatcherConfig{
		Responder:      platform,
		Guilds:         platform,
		Entitlements:   entitlement.NewService(shop),
		Sync:           cfg.Sync,
		CommandTimeout: cfg.Bot.CommandTimeout,
		Logger:         logger,
		Metrics:        metrics,
	})

	if err := gateway.Start(ctx, dispatcher); err != nil {
		return err
	}
	logger.Info("discord gateway opened",
		"product_id", cfg.Sync.ProductID,
		"role_id", cfg.Sync.RoleID,
	)

	var srv *server.Server
	errChan := make(chan error, 1)

	if cfg.Server.Enabled {
		healthHandler := health.NewHandler(map[string]health.Checker{
			"discord": gateway,
		})

		srv = server.New(server.Config{
			ServerConfig:  cfg.Server,
			HealthHandler: healthHandler,
			Logger:        logger,
		})

		router := srv.Router()
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(logger))

		healthHandler.RegisterRoutes(router)
		router.Handle("/metrics", metrics.Handler())

		go func() {
			errChan <- srv.Start()
		}()
	}

	select {
	case err := <-errChan:
		if closeErr := gateway.Close(); closeErr != nil {
			logger.Error("discord close error", "error", closeErr)
		}
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}

	if err := gateway.Close(); err != nil {
		logger.Error("discord close error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
