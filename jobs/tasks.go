// Package jobs wires background work onto an Asynq queue: document
// generation after project writes and the periodic OTP expiry sweep.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeProjectPDF regenerates one project document.
	TaskTypeProjectPDF = "pdf:generate"
	// TaskTypeOTPExpire sweeps pending OTP records past their expiry.
	TaskTypeOTPExpire = "otp:expire"
)

// ProjectPDFPayload identifies the project to render.
type ProjectPDFPayload struct {
	ProjectID string `json:"project_id"`
}

// NewProjectPDFTask constructs the generation task.
func NewProjectPDFTask(payload ProjectPDFPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeProjectPDF, data), nil
}

// NewOTPExpireTask constructs the sweep task. It carries no payload.
func NewOTPExpireTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOTPExpire, nil)
}
