package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/msomdec/passgate/internal/config"
	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/handler"
	"github.com/msomdec/passgate/internal/mailer"
	"github.com/msomdec/passgate/internal/repository"
	"github.com/msomdec/passgate/internal/service"
	"github.com/msomdec/passgate/internal/storage"
	"github.com/msomdec/passgate/internal/telemetry"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "passgate", cfg.OTelEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	store, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("database migrations applied", "driver", cfg.DatabaseDriver)

	var mail domain.Mailer = mailer.LogMailer{}
	if cfg.Email.Host != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.User,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		})
	} else {
		slog.Warn("EMAIL_HOST not set, email will be logged instead of sent")
	}

	var uploader domain.ImageUploader = storage.Disabled{}
	if cfg.S3.Bucket != "" {
		s3u, err := storage.NewS3Uploader(ctx, storage.Config(cfg.S3))
		if err != nil {
			slog.Error("failed to configure S3", "error", err)
			os.Exit(1)
		}
		uploader = s3u
	} else {
		slog.Warn("S3_BUCKET not set, profile picture uploads are disabled")
	}

	hasher := service.NewHasher(cfg.BcryptCost)
	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, time.Now)
	if err != nil {
		slog.Error("failed to create token service", "error", err)
		os.Exit(1)
	}
	otps := service.NewOTPIssuer(store.Accounts(), hasher, cfg.OTPTTL, time.Now)
	dispatcher := service.NewDispatcher(mail, cfg.Email.Timeout)

	accountService := service.NewAccountService(store.Accounts(), hasher, otps, tokens, dispatcher)
	profileService := service.NewProfileService(store.Accounts(), uploader, cfg.MaxUploadBytes)
	walletService := service.NewWalletService(store.Accounts(), store.Wallets(), cfg.WalletCountryCode)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, accountService, profileService, walletService, tokens)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.SecurityHeaders(telemetry.Middleware(otel.GetTracerProvider(), mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	// Let in-flight notification emails finish before exiting.
	dispatcher.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
