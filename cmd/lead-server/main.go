// cmd/lead-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"franchise-leads/internal/common/aws"
	"franchise-leads/internal/common/config"
	"franchise-leads/internal/common/database"
	"franchise-leads/internal/common/email"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/common/observability"
	"franchise-leads/internal/server"
	"franchise-leads/internal/store"
	sln "franchise-leads/internal/workers/notification/send-lead-notifications"

	"github.com/redis/go-redis/v9"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lead-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output).
		WithFields(map[string]interface{}{"service": cfg.App.Name, "environment": cfg.App.Environment})
	log.Info("Starting lead server...", map[string]interface{}{"version": cfg.App.Version})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		return err
	}
	defer obs.Shutdown(context.Background())

	// --- Lead store ---
	leadStore, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Export cache (optional) ---
	var cache redis.Cmdable
	if cfg.Database.Redis.Enabled() {
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, phone export will read storage directly until it recovers", map[string]interface{}{"error": err})
		} else {
			log.Info("Redis connected successfully", nil)
		}
		cache = rc.Client
	}

	// --- Notifications ---
	notifier := sln.NewHandler(
		sln.LoadConfig(cfg.Notifications),
		newMailer(ctx, cfg.Notifications, log),
		newSMSSender(ctx, cfg.Notifications, log),
		log,
	)

	srv, err := server.New(server.LoadConfig(cfg), server.Dependencies{
		Store:         store.WithMetrics(leadStore),
		Notifier:      notifier,
		Cache:         cache,
		Observability: obs,
	}, log)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn("using in-memory lead store; leads are lost on restart", nil)
		return store.NewMemoryStore(cfg.Storage.LeadsCollection), func() {}, nil
	}

	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		if pg != nil {
			pg.Close()
		}
		return nil, nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)

	if cfg.Storage.AutoMigrate {
		stmts := store.MigrationStatements(cfg.Storage.LeadsCollection, cfg.Storage.LegacyCollection)
		if err := pg.ExecAll(ctx, stmts...); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}

	closeFn := func() {
		if err := pg.Close(); err != nil {
			log.Warn("postgres close failed", map[string]interface{}{"error": err})
		}
	}
	return store.NewPostgresStore(pg.DB, cfg.Storage.LeadsCollection, log), closeFn, nil
}

// newMailer returns nil when email is disabled or the provider cannot be
// initialised; submissions still succeed without notifications.
func newMailer(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) email.Sender {
	if !cfg.Email.Enabled {
		return nil
	}
	if cfg.Email.FromEmail == "" {
		log.Warn("notifications.email.from_email not set, emails disabled", nil)
		return nil
	}

	switch cfg.Email.Provider {
	case "smtp":
		return email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			UseTLS:   cfg.SMTP.UseTLS,
		})
	default:
		ses, err := aws.NewSESSender(ctx, cfg.AWS.Region)
		if err != nil {
			log.Error("SES client init failed, emails disabled", map[string]interface{}{"error": err})
			return nil
		}
		return ses
	}
}

func newSMSSender(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) sln.SMSSender {
	if !cfg.SMS.Enabled {
		return nil
	}
	sns, err := aws.NewSNSSender(ctx, cfg.AWS.Region, cfg.SMS.SenderID)
	if err != nil {
		log.Error("SNS client init failed, SMS disabled", map[string]interface{}{"error": err})
		return nil
	}
	return sns
}
