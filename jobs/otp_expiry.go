package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ecstatics-spaces/backoffice/internal/otp"
)

// NewOTPExpiryHandler returns the cron handler that moves pending OTP
// records past their expiry to expired.
func NewOTPExpiryHandler(svc *otp.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := svc.ExpireStale(ctx)
		if err != nil {
			logger.Error("jobs: otp expiry sweep failed", slog.String("error", err.Error()))
			return err
		}
		if n > 0 {
			logger.Info("jobs: otp records expired", slog.Int64("count", n))
		}
		return nil
	}
}
