package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lead-verify/internal/application/notify"
	"github.com/lead-verify/internal/config"
	"github.com/lead-verify/internal/infrastructure/dynamo"
	"github.com/lead-verify/internal/infrastructure/postgres"
	"github.com/lead-verify/internal/infrastructure/smtp"
	"github.com/lead-verify/internal/infrastructure/sns"
	"github.com/lead-verify/internal/infrastructure/whatsms"
	transporthttp "github.com/lead-verify/internal/transport/http"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	leadRepo, err := openLeadStore(ctx, cfg)
	if err != nil {
		slog.Error("lead store unavailable", "store", cfg.LeadStore, "err", err)
		os.Exit(1)
	}

	deps := &transporthttp.Deps{
		LeadRepo:   leadRepo,
		Mailer:     smtp.NewMailer(cfg),
		SMSGateway: newSMSGateway(ctx, cfg),
		Redis:      newRedis(ctx, cfg),
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.LeadStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openLeadStore connects the backend named by LEAD_STORE and prepares its schema.
func openLeadStore(ctx context.Context, cfg *config.Config) (transporthttp.LeadRepository, error) {
	switch cfg.LeadStore {
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// Creates the leads table if it doesn't exist.
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return dynamo.NewLeadRepo(client, cfg.DynamoTables.Leads), nil
	case config.StorePostgres:
		db, err := postgres.Open(cfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.NewLeadRepo(db), nil
	default:
		return nil, fmt.Errorf("unknown LEAD_STORE %q", cfg.LeadStore)
	}
}

// newSMSGateway picks the OTP delivery provider. Without credentials it falls
// back to a gateway that only logs, so local runs never text real numbers.
func newSMSGateway(ctx context.Context, cfg *config.Config) notify.SMSGateway {
	switch cfg.SMSProvider {
	case config.SMSProviderSNS:
		sender, err := sns.NewSender(ctx, cfg)
		if err == nil {
			return sender
		}
		slog.Warn("SNS sender not available, logging OTPs instead", "err", err)
	case config.SMSProviderWhatSMS:
		if cfg.WhatSMSToken != "" && cfg.WhatSMSDeviceID != "" {
			return whatsms.NewClient(cfg)
		}
		slog.Warn("WhatSMS credentials missing, logging OTPs instead")
	default:
		slog.Warn("unknown SMS_PROVIDER, logging OTPs instead", "provider", cfg.SMSProvider)
	}
	return notify.NewLogGateway(slog.Default())
}

// newRedis connects to REDIS_URL when set. A bad URL or unreachable server
// leaves rate limiting in-process.
func newRedis(ctx context.Context, cfg *config.Config) redis.UniversalClient {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Warn("invalid REDIS_URL, using in-process rate limiter", "err", err)
		return nil
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, using in-process rate limiter", "err", err)
		_ = client.Close()
		return nil
	}
	return client
}
