package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecstatics-spaces/backoffice/internal/mail"
	"github.com/ecstatics-spaces/backoffice/internal/platform/httpx"
)

// Config tunes issuance and verification behavior.
type Config struct {
	Expiry      time.Duration
	Cooldown    time.Duration
	MaxPerHour  int
	MaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.Expiry <= 0 {
		c.Expiry = 10 * time.Minute
	}
	if c.Cooldown <= 0 {
		c.Cooldown = time.Minute
	}
	if c.MaxPerHour <= 0 {
		c.MaxPerHour = 5
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return c
}

// InvalidCodeError reports a failed verification and how many attempts
// remain before the record expires.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code, %d attempt(s) remaining", e.Remaining)
}

func (e *InvalidCodeError) Unwrap() error { return httpx.ErrValidation }

// RequestInput describes a new issuance.
type RequestInput struct {
	Type        Type
	Email       string
	EntityID    *string
	EntityType  *string
	RequestedBy *string
}

// Service owns the OTP state machine. All transitions are scoped to a
// single row; see the repository for persistence.
type Service struct {
	repo   Repository
	sender mail.Sender
	emails mail.LogRepository
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, sender mail.Sender, emails mail.LogRepository, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		sender: sender,
		emails: emails,
		cfg:    cfg.withDefaults(),
		logger: logger,
		now:    time.Now,
	}
}

// Request issues a fresh code for (email, type). Any other pending record
// for the pair is expired first, keeping at most one active. Email delivery
// is best-effort: a failed send is logged but the code stays valid.
func (s *Service) Request(ctx context.Context, in RequestInput) (*Log, error) {
	now := s.now()

	recent, err := s.repo.HasRecent(ctx, in.Email, in.Type, now.Add(-s.cfg.Cooldown))
	if err != nil {
		return nil, err
	}
	if recent {
		return nil, fmt.Errorf("%w: please wait before requesting another code", httpx.ErrRateLimited)
	}

	count, err := s.repo.CountSince(ctx, in.Email, in.Type, now.Add(-time.Hour))
	if err != nil {
		return nil, err
	}
	if count >= s.cfg.MaxPerHour {
		return nil, fmt.Errorf("%w: hourly request limit reached", httpx.ErrRateLimited)
	}

	if err := s.repo.ExpirePending(ctx, in.Email, in.Type); err != nil {
		return nil, err
	}

	code, err := GenerateCode(CodeLength)
	if err != nil {
		return nil, err
	}
	hash, err := HashCode(code)
	if err != nil {
		return nil, err
	}

	log := &Log{
		Type:        in.Type,
		EntityID:    in.EntityID,
		EntityType:  in.EntityType,
		Email:       in.Email,
		CodeHash:    hash,
		RequestedBy: in.RequestedBy,
		Status:      StatusPending,
		MaxAttempts: s.cfg.MaxAttempts,
		ExpiresAt:   now.Add(s.cfg.Expiry),
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return nil, err
	}

	s.deliver(ctx, log, code)
	return log, nil
}

// Approve verifies a code against a pending record. A wrong code burns an
// attempt; burning the last one expires the record. A correct code approves
// it and stamps the approver.
func (s *Service) Approve(ctx context.Context, id, code, approverID string) (*Log, error) {
	log, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if log.Status != StatusPending {
		return nil, fmt.Errorf("%w: otp is no longer pending", httpx.ErrConflict)
	}

	now := s.now()
	if now.After(log.ExpiresAt) {
		if err := s.repo.SetStatus(ctx, id, StatusExpired); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: otp has expired", httpx.ErrConflict)
	}
	if log.Attempts >= log.MaxAttempts {
		if err := s.repo.SetStatus(ctx, id, StatusExpired); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: maximum attempts exceeded", httpx.ErrConflict)
	}

	if !VerifyCode(code, log.CodeHash) {
		log.Attempts++
		if log.Attempts >= log.MaxAttempts {
			if err := s.repo.SetAttempts(ctx, id, log.Attempts); err != nil {
				return nil, err
			}
			if err := s.repo.SetStatus(ctx, id, StatusExpired); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: maximum attempts exceeded", httpx.ErrConflict)
		}
		if err := s.repo.SetAttempts(ctx, id, log.Attempts); err != nil {
			return nil, err
		}
		return nil, &InvalidCodeError{Remaining: log.MaxAttempts - log.Attempts}
	}

	if err := s.repo.MarkApproved(ctx, id, approverID, now); err != nil {
		return nil, err
	}
	log.Status = StatusApproved
	log.ApprovedBy = &approverID
	log.ApprovedAt = &now
	return log, nil
}

// Reject expires a pending record unconditionally, stamped with the
// rejecting approver.
func (s *Service) Reject(ctx context.Context, id, approverID string) (*Log, error) {
	log, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if log.Status != StatusPending {
		return nil, fmt.Errorf("%w: otp is no longer pending", httpx.ErrConflict)
	}
	if err := s.repo.MarkRejected(ctx, id, approverID); err != nil {
		return nil, err
	}
	log.Status = StatusExpired
	log.ApprovedBy = &approverID
	return log, nil
}

// Resend replaces the code on a pending record: fresh hash, attempts reset,
// expiry extended from now. The record identity is preserved.
func (s *Service) Resend(ctx context.Context, id string) (*Log, error) {
	log, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if log.Status != StatusPending {
		return nil, fmt.Errorf("%w: otp is no longer pending", httpx.ErrConflict)
	}

	code, err := GenerateCode(CodeLength)
	if err != nil {
		return nil, err
	}
	hash, err := HashCode(code)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.cfg.Expiry)
	if err := s.repo.ResetCode(ctx, id, hash, expiresAt); err != nil {
		return nil, err
	}
	log.CodeHash = hash
	log.Attempts = 0
	log.ExpiresAt = expiresAt

	s.deliver(ctx, log, code)
	return log, nil
}

// Get returns a single record.
func (s *Service) Get(ctx context.Context, id string) (*Log, error) {
	log, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return log, nil
}

// List returns the audit trail; code hashes never serialize.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Log, int, error) {
	return s.repo.List(ctx, filter)
}

// ListPending returns pending, unexpired records awaiting a decision.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]Log, int, error) {
	return s.repo.ListPending(ctx, limit, offset)
}

// ExpireStale sweeps pending records past their expiry. Called from the
// scheduler.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	return s.repo.ExpireStale(ctx, s.now())
}

func (s *Service) deliver(ctx context.Context, log *Log, code string) {
	subject := fmt.Sprintf("Your verification code for %s", typeLabel(log.Type))
	msg := mail.Message{
		To:      log.Email,
		Subject: subject,
		HTML:    codeEmailHTML(log, code, s.cfg.Expiry),
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.cfg.Expiry.Minutes())),
	}

	status := mail.StatusSent
	if !s.sender.Send(ctx, msg) {
		status = mail.StatusFailed
		s.logger.Warn("otp: code email delivery failed",
			slog.String("otp_id", log.ID),
			slog.String("type", string(log.Type)),
		)
	}

	entry := mail.Log{
		ToEmail:       log.Email,
		Subject:       subject,
		Type:          "otp",
		ReferenceID:   &log.ID,
		ReferenceType: strPtr("otp_log"),
		Status:        status,
		SentBy:        log.RequestedBy,
	}
	if err := s.emails.Record(ctx, entry); err != nil {
		s.logger.Error("otp: record email log", slog.String("error", err.Error()))
	}
}

func typeLabel(t Type) string {
	switch t {
	case TypeLogin:
		return "login"
	case TypeDiscount:
		return "discount approval"
	case TypeMasterActivation:
		return "master data activation"
	default:
		return string(t)
	}
}

func codeEmailHTML(log *Log, code string, expiry time.Duration) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 480px; margin: 0 auto;">
  <h2 style="color: #1a1a1a;">Verification Code</h2>
  <p>A verification code was requested for <strong>%s</strong>.</p>
  <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 16px; background: #f4f4f4; border-radius: 6px;">%s</p>
  <p>This code expires in %d minutes and allows %d attempts.</p>
  <p style="color: #888; font-size: 12px;">If you did not request this code, you can ignore this email.</p>
</div>`, typeLabel(log.Type), code, int(expiry.Minutes()), log.MaxAttempts)
}

func mapNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: otp record", httpx.ErrNotFound)
	}
	return err
}

func strPtr(s string) *string { return &s }
