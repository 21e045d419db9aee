package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ecstatics-spaces/backoffice/internal/app"
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

	statsCache := projects.NewCache(redisClient, cfg.StatsCacheTTL, logger)
	mailer := projects.NewMailer(sender, emailLogs, logger)

	// The worker renders synchronously; no enqueuer to avoid re-queueing
	// from inside job handlers.
	projectService := projects.NewService(
		projects.NewRepository(pool), nil, generator, store, statsCache, mailer, logger)

	otpService := otp.NewService(otp.NewRepository(pool), sender, emailLogs, otp.Config{
		Expiry:      cfg.OTPExpiry,
		Cooldown:    cfg.OTPCooldown,
		MaxPerHour:  cfg.OTPMaxPerHour,
		MaxAttempts: cfg.OTPMaxTries,
	}, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeProjectPDF, Handler: jobs.NewProjectPDFHandler(projectService, logger)},
			{Type: jobs.TaskTypeOTPExpire, Handler: jobs.NewOTPExpiryHandler(otpService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/5 * * * *", Task: jobs.NewOTPExpireTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
