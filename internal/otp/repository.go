package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("otp record not found")

// ListFilter narrows the audit listing.
type ListFilter struct {
	Type   *Type
	Status *Status
	Email  string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type Repository interface {
	Get(ctx context.Context, id string) (*Log, error)
	Create(ctx context.Context, log *Log) error
	HasRecent(ctx context.Context, email string, t Type, since time.Time) (bool, error)
	CountSince(ctx context.Context, email string, t Type, since time.Time) (int, error)
	ExpirePending(ctx context.Context, email string, t Type) error
	SetAttempts(ctx context.Context, id string, attempts int) error
	SetStatus(ctx context.Context, id string, status Status) error
	MarkApproved(ctx context.Context, id, approverID string, at time.Time) error
	MarkRejected(ctx context.Context, id, approverID string) error
	ResetCode(ctx context.Context, id, hash string, expiresAt time.Time) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]Log, int, error)
	ListPending(ctx context.Context, limit, offset int) ([]Log, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const logColumns = `id, type, entity_id, entity_type, email, code_hash, requested_by,
	approved_by, status, attempts, max_attempts, expires_at, approved_at, created_at, updated_at`

func scanLog(row pgx.Row) (*Log, error) {
	var l Log
	err := row.Scan(
		&l.ID, &l.Type, &l.EntityID, &l.EntityType, &l.Email, &l.CodeHash, &l.RequestedBy,
		&l.ApprovedBy, &l.Status, &l.Attempts, &l.MaxAttempts, &l.ExpiresAt, &l.ApprovedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Log, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM otp_logs WHERE id = $1", logColumns), id)
	return scanLog(row)
}

func (r *repository) Create(ctx context.Context, log *Log) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO otp_logs (id, type, entity_id, entity_type, email, code_hash, requested_by,
			status, attempts, max_attempts, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`,
		log.ID, log.Type, log.EntityID, log.EntityType, log.Email, log.CodeHash, log.RequestedBy,
		log.Status, log.Attempts, log.MaxAttempts, log.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("otp: create log: %w", err)
	}
	return nil
}

func (r *repository) HasRecent(ctx context.Context, email string, t Type, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM otp_logs WHERE email = $1 AND type = $2 AND created_at >= $3)",
		email, t, since,
	).Scan(&exists)
	return exists, err
}

func (r *repository) CountSince(ctx context.Context, email string, t Type, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM otp_logs WHERE email = $1 AND type = $2 AND created_at >= $3",
		email, t, since,
	).Scan(&count)
	return count, err
}

func (r *repository) ExpirePending(ctx context.Context, email string, t Type) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE otp_logs SET status = $1, updated_at = now() WHERE email = $2 AND type = $3 AND status = $4",
		StatusExpired, email, t, StatusPending,
	)
	return err
}

func (r *repository) SetAttempts(ctx context.Context, id string, attempts int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE otp_logs SET attempts = $1, updated_at = now() WHERE id = $2",
		attempts, id,
	)
	return err
}

func (r *repository) SetStatus(ctx context.Context, id string, status Status) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE otp_logs SET status = $1, updated_at = now() WHERE id = $2",
		status, id,
	)
	return err
}

func (r *repository) MarkApproved(ctx context.Context, id, approverID string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE otp_logs SET status = $1, approved_by = $2, approved_at = $3, updated_at = now() WHERE id = $4",
		StatusApproved, approverID, at, id,
	)
	return err
}

func (r *repository) MarkRejected(ctx context.Context, id, approverID string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE otp_logs SET status = $1, approved_by = $2, updated_at = now() WHERE id = $3",
		StatusExpired, approverID, id,
	)
	return err
}

func (r *repository) ResetCode(ctx context.Context, id, hash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE otp_logs SET code_hash = $1, attempts = 0, expires_at = $2, updated_at = now() WHERE id = $3",
		hash, expiresAt, id,
	)
	return err
}

func (r *repository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"UPDATE otp_logs SET status = $1, updated_at = now() WHERE status = $2 AND expires_at < $3",
		StatusExpired, StatusPending, now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Log, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, *filter.Type)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Email != "" {
		conditions = append(conditions, fmt.Sprintf("email ILIKE $%d", argPos))
		args = append(args, "%"+filter.Email+"%")
		argPos++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *filter.From)
		argPos++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *filter.To)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM otp_logs %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM otp_logs %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		logColumns, whereClause, argPos, argPos+1,
	)
	args = append(args, filter.Limit, filter.Offset)

	return r.queryLogs(ctx, query, args, total)
}

func (r *repository) ListPending(ctx context.Context, limit, offset int) ([]Log, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM otp_logs WHERE status = $1 AND expires_at > now()",
		StatusPending,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM otp_logs WHERE status = $1 AND expires_at > now() ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		logColumns,
	)
	return r.queryLogs(ctx, query, []interface{}{StatusPending, limit, offset}, total)
}

func (r *repository) queryLogs(ctx context.Context, query string, args []interface{}, total int) ([]Log, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
