package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ecstatics-spaces/backoffice/internal/app"
	"github.com/ecstatics-spaces/backoffice/internal/customers"
	"github.com/ecstatics-spaces/backoffice/internal/mail"
	"github.com/ecstatics-spaces/backoffice/internal/otp"
	"github.com/ecstatics-spaces/backoffice/internal/pdf"
	"github.com/ecstatics-spaces/backoffice/internal/platform/db"
	"github.com/ecstatics-spaces/backoffice/internal/projects"
	"github.com/ecstatics-spaces/backoffice/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	validate := validator.New()

	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger)
	emailLogs := mail.NewLogRepository(pool)

	store, err := pdf.NewStore(cfg.UploadsDir)
	if err != nil {
		logger.Error("init pdf store", slog.Any("error", err))
		os.Exit(1)
	}
	assets := pdf.NewAssets(pdf.AssetConfig{
		UploadsDir: cfg.UploadsDir,
		PublicDir:  cfg.PublicDir,
		APIBaseURL: cfg.APIBaseURL,
	}, logger)
	renderer, err := pdf.NewRenderer()
	if err != nil {
		logger.Error("init pdf renderer", slog.Any("error", err))
		os.Exit(1)
	}
	browser := pdf.NewBrowser(cfg.ChromePath, logger)
	defer browser.Shutdown()
	generator := pdf.NewGenerator(pdf.NewBuilder(assets), renderer, browser, store, cfg.PDFTimeout, logger)

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	statsCache := projects.NewCache(redisClient, cfg.StatsCacheTTL, logger)
	mailer := projects.NewMailer(sender, emailLogs, logger)
	projectService := projects.NewService(
		projects.NewRepository(pool), queue, generator, store, statsCache, mailer, logger)
	projectHandler := projects.NewHandler(logger, projectService, validate)

	customerService := customers.NewService(customers.NewRepository(pool))
	customerHandler := customers.NewHandler(logger, customerService, validate)

	otpService := otp.NewService(otp.NewRepository(pool), sender, emailLogs, otp.Config{
		Expiry:      cfg.OTPExpiry,
		Cooldown:    cfg.OTPCooldown,
		MaxPerHour:  cfg.OTPMaxPerHour,
		MaxAttempts: cfg.OTPMaxTries,
	}, logger)
	otpHandler := otp.NewHandler(logger, otpService, validate)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		ProjectsHandler:  projectHandler,
		CustomersHandler: customerHandler,
		OTPHandler:       otpHandler,
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
