package otp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecstatics-spaces/backoffice/internal/mail"
	"github.com/ecstatics-spaces/backoffice/internal/platform/httpx"
)

type fakeRepo struct {
	logs   map[string]*Log
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{logs: map[string]*Log{}}
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Log, error) {
	l, ok := f.logs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeRepo) Create(_ context.Context, log *Log) error {
	if log.ID == "" {
		f.nextID++
		log.ID = "otp-" + strconv.Itoa(f.nextID)
	}
	log.CreatedAt = time.Now()
	cp := *log
	f.logs[log.ID] = &cp
	return nil
}

func (f *fakeRepo) HasRecent(_ context.Context, email string, t Type, since time.Time) (bool, error) {
	for _, l := range f.logs {
		if l.Email == email && l.Type == t && !l.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CountSince(_ context.Context, email string, t Type, since time.Time) (int, error) {
	count := 0
	for _, l := range f.logs {
		if l.Email == email && l.Type == t && !l.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) ExpirePending(_ context.Context, email string, t Type) error {
	for _, l := range f.logs {
		if l.Email == email && l.Type == t && l.Status == StatusPending {
			l.Status = StatusExpired
		}
	}
	return nil
}

func (f *fakeRepo) SetAttempts(_ context.Context, id string, attempts int) error {
	f.logs[id].Attempts = attempts
	return nil
}

func (f *fakeRepo) SetStatus(_ context.Context, id string, status Status) error {
	f.logs[id].Status = status
	return nil
}

func (f *fakeRepo) MarkApproved(_ context.Context, id, approverID string, at time.Time) error {
	l := f.logs[id]
	l.Status = StatusApproved
	l.ApprovedBy = &approverID
	l.ApprovedAt = &at
	return nil
}

func (f *fakeRepo) MarkRejected(_ context.Context, id, approverID string) error {
	l := f.logs[id]
	l.Status = StatusExpired
	l.ApprovedBy = &approverID
	return nil
}

func (f *fakeRepo) ResetCode(_ context.Context, id, hash string, expiresAt time.Time) error {
	l := f.logs[id]
	l.CodeHash = hash
	l.Attempts = 0
	l.ExpiresAt = expiresAt
	return nil
}

func (f *fakeRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, l := range f.logs {
		if l.Status == StatusPending && l.ExpiresAt.Before(now) {
			l.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Log, int, error) {
	var out []Log
	for _, l := range f.logs {
		if filter.Type != nil && l.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (f *fakeRepo) ListPending(_ context.Context, _, _ int) ([]Log, int, error) {
	var out []Log
	for _, l := range f.logs {
		if l.Status == StatusPending && l.ExpiresAt.After(time.Now()) {
			out = append(out, *l)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) pendingFor(email string, t Type) []*Log {
	var out []*Log
	for _, l := range f.logs {
		if l.Email == email && l.Type == t && l.Status == StatusPending {
			out = append(out, l)
		}
	}
	return out
}

type fakeSender struct {
	sent []mail.Message
	fail bool
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) bool {
	f.sent = append(f.sent, msg)
	return !f.fail
}

type fakeEmailLog struct {
	entries []mail.Log
}

func (f *fakeEmailLog) Record(_ context.Context, entry mail.Log) error {
	f.entries = append(f.entries, entry)
	return nil
}

func newTestService(repo *fakeRepo, sender *fakeSender, emails *fakeEmailLog) *Service {
	return NewService(repo, sender, emails, Config{
		Expiry:      10 * time.Minute,
		Cooldown:    time.Minute,
		MaxPerHour:  3,
		MaxAttempts: 3,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// requestAt issues an OTP with the service clock pinned to ts and returns
// the plaintext code captured from the outbound email.
func requestAt(t *testing.T, svc *Service, sender *fakeSender, ts time.Time, email string, typ Type) (*Log, string) {
	t.Helper()
	svc.now = func() time.Time { return ts }
	log, err := svc.Request(context.Background(), RequestInput{Type: typ, Email: email})
	require.NoError(t, err)
	require.NotEmpty(t, sender.sent)
	body := sender.sent[len(sender.sent)-1].Text
	// Text body is "Your verification code is NNNNNN. ..."
	code := body[len("Your verification code is ") : len("Your verification code is ")+CodeLength]
	return log, code
}

func TestRequestIssuesPendingRecord(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	emails := &fakeEmailLog{}
	svc := newTestService(repo, sender, emails)

	base := time.Now()
	log, code := requestAt(t, svc, sender, base, "buyer@example.com", TypeDiscount)

	assert.Equal(t, StatusPending, log.Status)
	assert.Equal(t, 3, log.MaxAttempts)
	assert.Equal(t, 0, log.Attempts)
	assert.Equal(t, base.Add(10*time.Minute), log.ExpiresAt)
	assert.True(t, VerifyCode(code, log.CodeHash))

	require.Len(t, emails.entries, 1)
	assert.Equal(t, mail.StatusSent, emails.entries[0].Status)
	assert.Equal(t, "otp", emails.entries[0].Type)
}

func TestRequestCooldown(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	base := time.Now()
	requestAt(t, svc, sender, base, "buyer@example.com", TypeDiscount)

	svc.now = func() time.Time { return base.Add(30 * time.Second) }
	_, err := svc.Request(context.Background(), RequestInput{Type: TypeDiscount, Email: "buyer@example.com"})
	assert.ErrorIs(t, err, httpx.ErrRateLimited)

	// Different type is not throttled by the same cooldown.
	_, err = svc.Request(context.Background(), RequestInput{Type: TypeLogin, Email: "buyer@example.com"})
	assert.NoError(t, err)
}

func TestRequestHourlyLimit(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	base := time.Now()
	for i := 0; i < 3; i++ {
		requestAt(t, svc, sender, base.Add(time.Duration(i)*2*time.Minute), "buyer@example.com", TypeDiscount)
	}

	svc.now = func() time.Time { return base.Add(10 * time.Minute) }
	_, err := svc.Request(context.Background(), RequestInput{Type: TypeDiscount, Email: "buyer@example.com"})
	assert.ErrorIs(t, err, httpx.ErrRateLimited)
}

func TestRequestSingleActivePerEmailType(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	base := time.Now()
	first, _ := requestAt(t, svc, sender, base, "buyer@example.com", TypeDiscount)
	second, _ := requestAt(t, svc, sender, base.Add(2*time.Minute), "buyer@example.com", TypeDiscount)

	pending := repo.pendingFor("buyer@example.com", TypeDiscount)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
	assert.Equal(t, StatusExpired, repo.logs[first.ID].Status)
}

func TestRequestEmailFailureIsNotFatal(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{fail: true}
	emails := &fakeEmailLog{}
	svc := newTestService(repo, sender, emails)

	log, err := svc.Request(context.Background(), RequestInput{Type: TypeLogin, Email: "buyer@example.com"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, log.Status)

	require.Len(t, emails.entries, 1)
	assert.Equal(t, mail.StatusFailed, emails.entries[0].Status)
}

func TestApproveCorrectCode(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	base := time.Now()
	log, code := requestAt(t, svc, sender, base, "buyer@example.com", TypeDiscount)

	approved, err := svc.Approve(context.Background(), log.ID, code, "approver-1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "approver-1", *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
}

func TestApproveWrongCodeBurnsAttempts(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	base := time.Now()
	log, code := requestAt(t, svc, sender, base, "buyer@example.com", TypeDiscount)
	wrong := "999999"
	if wrong == code {
		wrong = "999998"
	}

	_, err := svc.Approve(context.Background(), log.ID, wrong, "approver-1")
	var invalid *InvalidCodeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.Remaining)

	_, err = svc.Approve(context.Background(), log.ID, wrong, "approver-1")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Remaining)

	// Third wrong attempt reaches the max and expires the record.
	_, err = svc.Approve(context.Background(), log.ID, wrong, "approver-1")
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Equal(t, StatusExpired, repo.logs[log.ID].Status)

	// Even the correct code is refused once the record left pending.
	_, err = svc.Approve(context.Background(), log.ID, code, "approver-1")
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Contains(t, err.Error(), "no longer pending")
}

func TestApproveExpiredRecord(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	base := time.Now()
	log, code := requestAt(t, svc, sender, base, "buyer@example.com", TypeDiscount)

	svc.now = func() time.Time { return base.Add(11 * time.Minute) }
	_, err := svc.Approve(context.Background(), log.ID, code, "approver-1")
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Contains(t, err.Error(), "expired")
	assert.Equal(t, StatusExpired, repo.logs[log.ID].Status)
}

func TestApproveMissingRecord(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeSender{}, &fakeEmailLog{})

	_, err := svc.Approve(context.Background(), "nope", "123456", "approver-1")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestReject(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	log, _ := requestAt(t, svc, sender, time.Now(), "buyer@example.com", TypeMasterActivation)

	rejected, err := svc.Reject(context.Background(), log.ID, "approver-2")
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, rejected.Status)
	require.NotNil(t, rejected.ApprovedBy)
	assert.Equal(t, "approver-2", *rejected.ApprovedBy)

	_, err = svc.Reject(context.Background(), log.ID, "approver-2")
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestResendResetsRecordInPlace(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	base := time.Now()
	log, code := requestAt(t, svc, sender, base, "buyer@example.com", TypeDiscount)

	wrong := "999999"
	if wrong == code {
		wrong = "999998"
	}
	_, err := svc.Approve(context.Background(), log.ID, wrong, "approver-1")
	var invalid *InvalidCodeError
	require.ErrorAs(t, err, &invalid)

	svc.now = func() time.Time { return base.Add(5 * time.Minute) }
	resent, err := svc.Resend(context.Background(), log.ID)
	require.NoError(t, err)

	assert.Equal(t, log.ID, resent.ID)
	assert.Equal(t, 0, resent.Attempts)
	assert.Equal(t, base.Add(15*time.Minute), resent.ExpiresAt)
	assert.NotEqual(t, log.CodeHash, resent.CodeHash)

	// The old code no longer verifies; the freshly mailed one does.
	require.Len(t, sender.sent, 2)
	newCode := sender.sent[1].Text[len("Your verification code is ") : len("Your verification code is ")+CodeLength]
	approved, err := svc.Approve(context.Background(), log.ID, newCode, "approver-1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
}

func TestResendRequiresPending(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	log, code := requestAt(t, svc, sender, time.Now(), "buyer@example.com", TypeDiscount)
	_, err := svc.Approve(context.Background(), log.ID, code, "approver-1")
	require.NoError(t, err)

	_, err = svc.Resend(context.Background(), log.ID)
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestExpireStaleSweep(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender, &fakeEmailLog{})

	base := time.Now()
	stale, _ := requestAt(t, svc, sender, base, "old@example.com", TypeLogin)
	fresh, _ := requestAt(t, svc, sender, base.Add(8*time.Minute), "new@example.com", TypeLogin)

	svc.now = func() time.Time { return base.Add(12 * time.Minute) }
	n, err := svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, StatusExpired, repo.logs[stale.ID].Status)
	assert.Equal(t, StatusPending, repo.logs[fresh.ID].Status)
}

func TestInvalidCodeErrorUnwraps(t *testing.T) {
	err := &InvalidCodeError{Remaining: 2}
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.True(t, errors.As(error(err), new(*InvalidCodeError)))
}
