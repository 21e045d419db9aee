package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Log is one row of the email audit trail. Every outbound send is recorded,
// successful or not.
type Log struct {
	ID            string    `json:"id"`
	ToEmail       string    `json:"toEmail"`
	Subject       string    `json:"subject"`
	Type          string    `json:"type"`
	ReferenceID   *string   `json:"referenceId,omitempty"`
	ReferenceType *string   `json:"referenceType,omitempty"`
	Status        string    `json:"status"`
	SentBy        *string   `json:"sentBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Send statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// LogRepository persists the email audit trail.
type LogRepository interface {
	Record(ctx context.Context, entry Log) error
}

type logRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository constructs a Postgres-backed LogRepository.
func NewLogRepository(pool *pgxpool.Pool) LogRepository {
	return &logRepository{pool: pool}
}

func (r *logRepository) Record(ctx context.Context, entry Log) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_logs (id, to_email, subject, type, reference_id, reference_type, status, sent_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		entry.ID, entry.ToEmail, entry.Subject, entry.Type,
		entry.ReferenceID, entry.ReferenceType, entry.Status, entry.SentBy,
	)
	if err != nil {
		return fmt.Errorf("mail: record log: %w", err)
	}
	return nil
}
