package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ecstatics-spaces/backoffice/internal/platform/httpx"
	"github.com/ecstatics-spaces/backoffice/internal/projects"
)

// NewProjectPDFHandler returns the handler that renders a project document
// in the background. Generation errors propagate so Asynq retries per task
// policy; a vanished project skips retry.
func NewProjectPDFHandler(svc *projects.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ProjectPDFPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		path, err := svc.RegeneratePDF(ctx, payload.ProjectID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				logger.Warn("jobs: project gone, skipping pdf generation",
					slog.String("project_id", payload.ProjectID))
				return asynq.SkipRetry
			}
			logger.Error("jobs: pdf generation failed",
				slog.String("project_id", payload.ProjectID),
				slog.String("error", err.Error()))
			return err
		}

		logger.Info("jobs: pdf generated",
			slog.String("project_id", payload.ProjectID),
			slog.String("path", path))
		return nil
	}
}
