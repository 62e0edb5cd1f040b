package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"eventticketing/config"
	_ "eventticketing/docs"
	"eventticketing/internal/adapters/auth"
	"eventticketing/internal/adapters/email"
	"eventticketing/internal/adapters/qr"
	httpDelivery "eventticketing/internal/delivery/http"
	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
	"eventticketing/internal/metrics"
	"eventticketing/internal/repository/postgres"
	redisrepo "eventticketing/internal/repository/redis"
	"eventticketing/internal/services"
)

const shutdownTimeout = 10 * time.Second

// @title Event Ticketing API
// @version 1.0
// @description Registration forms, emailed QR tickets and door check-in.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready")

	health := httpDelivery.NewHealthHandler(logger)
	health.Register("postgres", db.PingContext)

	var cache domain.CheckInCache = redisrepo.NoopCheckInCache{}
	redisClient, err := redisrepo.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = redisrepo.NewCheckInCache(redisClient, cfg.CheckInCacheTTL)
		health.Register("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		logger.Info("check-in cache enabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
		SMTP: email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	tokens := auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer)

	eventRepo := postgres.NewEventRepository(db)
	formRepo := postgres.NewFormRepository(db)
	responseRepo := postgres.NewResponseRepository(db)
	checkInRepo := postgres.NewCheckInRepository(db)
	gate := services.NewAccessGate(postgres.NewMembershipRepository(db))
	issuer := services.NewTicketIssuer(mailer, renderer, qr.NewEncoder())

	formService := services.NewFormService(eventRepo, formRepo, gate, cfg.RequestTimeout)
	registrationService := services.NewRegistrationService(eventRepo, formRepo, responseRepo, issuer, gate, m, logger, cfg.RequestTimeout, cfg.TicketSendTimeout)
	checkInService := services.NewCheckInService(eventRepo, formRepo, responseRepo, checkInRepo, cache, gate, m, logger, cfg.RequestTimeout)

	router := httpDelivery.NewRouter(httpDelivery.RouterConfig{
		Forms:         controllers.NewFormController(logger, formService),
		Registrations: controllers.NewRegistrationController(logger, registrationService),
		CheckIns:      controllers.NewCheckInController(logger, checkInService),
		Verifier:      tokens,
		Logger:        logger,
		Gatherer:      reg,
		Health:        health,
	})
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
