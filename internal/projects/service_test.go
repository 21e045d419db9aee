package projects

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecstatics-spaces/backoffice/internal/mail"
	"github.com/ecstatics-spaces/backoffice/internal/pdf"
	"github.com/ecstatics-spaces/backoffice/internal/platform/httpx"
)

type fakeRepo struct {
	projects map[string]*Project
	items    map[string][]ProjectItem
	nextID   int
	statusOf map[string]Status
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		projects: map[string]*Project{},
		items:    map[string][]ProjectItem{},
		statusOf: map[string]Status{},
	}
}

func (f *fakeRepo) List(_ context.Context, _ ListFilter) ([]Project, int, error) {
	var out []Project
	for _, p := range f.projects {
		if p.DeletedAt == nil {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Project, error) {
	p, ok := f.projects[id]
	if !ok || p.DeletedAt != nil {
		return nil, ErrNotFound
	}
	cp := *p
	items := append([]ProjectItem(nil), f.items[id]...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	cp.Items = items
	cp.Customer = &CustomerSummary{ID: p.CustomerID, Name: "Acme Interiors", Mobile: "9876543210"}
	if p.SalesPersonID != nil {
		cp.SalesPerson = &PersonSummary{ID: *p.SalesPersonID, Name: "Sales One", Email: "sales@example.com"}
	}
	return &cp, nil
}

func (f *fakeRepo) ProjectNoExists(_ context.Context, projectNo string) (bool, error) {
	for _, p := range f.projects {
		if p.ProjectNo == projectNo {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Create(_ context.Context, p *Project, items []ProjectItem) error {
	if p.ID == "" {
		f.nextID++
		p.ID = "proj-" + strconv.Itoa(f.nextID)
	}
	cp := *p
	f.projects[p.ID] = &cp
	f.items[p.ID] = append([]ProjectItem(nil), items...)
	return nil
}

func (f *fakeRepo) Update(_ context.Context, p *Project, items []ProjectItem) error {
	existing, ok := f.projects[p.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	p.Status = existing.Status
	cp := *p
	f.projects[p.ID] = &cp
	f.items[p.ID] = append([]ProjectItem(nil), items...)
	return nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	p, ok := f.projects[id]
	if !ok || p.DeletedAt != nil {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id string) error {
	p, ok := f.projects[id]
	if !ok || p.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) Stats(_ context.Context) (*Stats, error) {
	s := &Stats{}
	for _, p := range f.projects {
		if p.DeletedAt != nil {
			continue
		}
		s.TotalProjects++
		s.TotalValue += p.GrandTotalWithGST
		switch p.Status {
		case StatusDraft:
			s.DraftCount++
		case StatusSent:
			s.SentCount++
		case StatusApproved:
			s.ApprovedCount++
			s.ApprovedValue += p.GrandTotalWithGST
		case StatusExpired:
			s.ExpiredCount++
		}
	}
	return s, nil
}

type fakeEnqueuer struct {
	enqueued []string
}

func (f *fakeEnqueuer) EnqueueGenerate(_ context.Context, projectID string) error {
	f.enqueued = append(f.enqueued, projectID)
	return nil
}

type fakeStore struct {
	files map[string]bool
}

func newFakeStore() *fakeStore { return &fakeStore{files: map[string]bool{}} }

func (f *fakeStore) Path(id string) string { return "/tmp/pdfs/" + id + ".pdf" }
func (f *fakeStore) Exists(id string) bool { return f.files[id] }
func (f *fakeStore) Delete(id string) error {
	delete(f.files, id)
	return nil
}

type fakeGenerator struct {
	store     *fakeStore
	generated []string
}

func (f *fakeGenerator) Generate(_ context.Context, doc pdf.Document) (string, error) {
	f.generated = append(f.generated, doc.ProjectID)
	f.store.files[doc.ProjectID] = true
	return f.store.Path(doc.ProjectID), nil
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

type fixture struct {
	repo     *fakeRepo
	enqueuer *fakeEnqueuer
	store    *fakeStore
	gen      *fakeGenerator
	sender   *fakeSender
	emails   *fakeEmailLog
	svc      *Service
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newFakeRepo()
	enq := &fakeEnqueuer{}
	store := newFakeStore()
	gen := &fakeGenerator{store: store}
	sender := &fakeSender{}
	emails := &fakeEmailLog{}
	mailer := NewMailer(sender, emails, logger)
	svc := NewService(repo, enq, gen, store, nil, mailer, logger)
	return &fixture{repo: repo, enqueuer: enq, store: store, gen: gen, sender: sender, emails: emails, svc: svc}
}

func validItem(name, code string, price float64, qty int) ItemRequest {
	total := price * float64(qty)
	cgst := total * 0.09
	sgst := total * 0.09
	return ItemRequest{
		QuotationID:   "11111111-2222-4333-8444-555555555555",
		QuotationCode: code,
		QuotationName: name,
		BasePrice:     price,
		FinalPrice:    price,
		Quantity:      qty,
		Total:         total,
		GSTPercent:    18,
		CGST:          cgst,
		SGST:          sgst,
		TotalWithGST:  total + cgst + sgst,
	}
}

func validRequest(items ...ItemRequest) ProjectRequest {
	var grand float64
	var cgst, sgst float64
	for _, it := range items {
		grand += it.Total
		cgst += it.CGST
		sgst += it.SGST
	}
	return ProjectRequest{
		Date:              "2026-08-15",
		CustomerID:        "99999999-8888-4777-8666-555555555555",
		Subtotal:          grand,
		GrandTotal:        grand,
		CGST:              cgst,
		SGST:              sgst,
		GrandTotalWithGST: grand + cgst + sgst,
		Items:             items,
	}
}

var projectNoPattern = regexp.MustCompile(`^PJ\d{10}$`)

func TestCreateAssignsNumbersAndEnqueues(t *testing.T) {
	fx := newFixture()

	p, err := fx.svc.Create(context.Background(), validRequest(
		validItem("Lounge Chair", "LC-01", 25000, 2),
		validItem("Coffee Table", "CT-09", 18000, 1),
	))
	require.NoError(t, err)

	assert.Regexp(t, projectNoPattern, p.ProjectNo)
	assert.Equal(t, StatusDraft, p.Status)
	require.Len(t, p.Items, 2)

	itemNoPattern := regexp.MustCompile(`^` + p.ProjectNo + `Q\d{6}\d$`)
	for i, it := range p.Items {
		assert.Equal(t, i, it.SortOrder)
		assert.Regexp(t, itemNoPattern, it.ProjectQuotationNo)
	}

	require.Len(t, fx.enqueuer.enqueued, 1)
	assert.Equal(t, p.ID, fx.enqueuer.enqueued[0])
}

func TestCreateRejectsBrokenLineTotals(t *testing.T) {
	fx := newFixture()

	bad := validItem("Lounge Chair", "LC-01", 25000, 2)
	bad.Total = 99999 // breaks total = finalPrice * quantity

	_, err := fx.svc.Create(context.Background(), validRequest(bad))
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Empty(t, fx.enqueuer.enqueued)
}

func TestCreateRejectsDiscountMismatch(t *testing.T) {
	fx := newFixture()

	bad := validItem("Lounge Chair", "LC-01", 25000, 1)
	bad.DiscountAmount = 5000 // finalPrice no longer basePrice - discountAmount

	_, err := fx.svc.Create(context.Background(), validRequest(bad))
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateReplacesItemsAndRenumbers(t *testing.T) {
	fx := newFixture()

	p, err := fx.svc.Create(context.Background(), validRequest(validItem("Lounge Chair", "LC-01", 25000, 2)))
	require.NoError(t, err)
	oldItemNo := p.Items[0].ProjectQuotationNo

	updated, err := fx.svc.Update(context.Background(), p.ID, validRequest(
		validItem("Sofa", "SF-03", 80000, 1),
		validItem("Ottoman", "OT-02", 12000, 2),
	))
	require.NoError(t, err)

	assert.Equal(t, p.ProjectNo, updated.ProjectNo)
	require.Len(t, updated.Items, 2)
	assert.NotEqual(t, oldItemNo, updated.Items[0].ProjectQuotationNo)
	assert.Equal(t, "Sofa", updated.Items[0].QuotationName)
	assert.Equal(t, 0, updated.Items[0].SortOrder)
	assert.Equal(t, 1, updated.Items[1].SortOrder)

	// Create and update each enqueue one generation.
	assert.Len(t, fx.enqueuer.enqueued, 2)
}

func TestUpdateStatus(t *testing.T) {
	fx := newFixture()

	p, err := fx.svc.Create(context.Background(), validRequest(validItem("Lounge Chair", "LC-01", 25000, 1)))
	require.NoError(t, err)

	updated, err := fx.svc.UpdateStatus(context.Background(), p.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)

	_, err = fx.svc.UpdateStatus(context.Background(), p.ID, Status("bogus"))
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeleteRemovesDocument(t *testing.T) {
	fx := newFixture()

	p, err := fx.svc.Create(context.Background(), validRequest(validItem("Lounge Chair", "LC-01", 25000, 1)))
	require.NoError(t, err)
	fx.store.files[p.ID] = true

	require.NoError(t, fx.svc.Delete(context.Background(), p.ID))
	assert.False(t, fx.store.Exists(p.ID))

	_, err = fx.svc.Get(context.Background(), p.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDuplicateCreatesFreshDraft(t *testing.T) {
	fx := newFixture()

	p, err := fx.svc.Create(context.Background(), validRequest(
		validItem("Lounge Chair", "LC-01", 25000, 2),
		validItem("Coffee Table", "CT-09", 18000, 1),
	))
	require.NoError(t, err)
	_, err = fx.svc.UpdateStatus(context.Background(), p.ID, StatusApproved)
	require.NoError(t, err)

	dup, err := fx.svc.Duplicate(context.Background(), p.ID)
	require.NoError(t, err)

	assert.NotEqual(t, p.ID, dup.ID)
	assert.NotEqual(t, p.ProjectNo, dup.ProjectNo)
	assert.Regexp(t, projectNoPattern, dup.ProjectNo)
	assert.Equal(t, StatusDraft, dup.Status)
	require.Len(t, dup.Items, 2)
	assert.Equal(t, p.Items[0].QuotationName, dup.Items[0].QuotationName)
	assert.NotEqual(t, p.Items[0].ProjectQuotationNo, dup.Items[0].ProjectQuotationNo)
}

func TestStats(t *testing.T) {
	fx := newFixture()

	p1, err := fx.svc.Create(context.Background(), validRequest(validItem("Lounge Chair", "LC-01", 10000, 1)))
	require.NoError(t, err)
	_, err = fx.svc.Create(context.Background(), validRequest(validItem("Sofa", "SF-03", 20000, 1)))
	require.NoError(t, err)
	_, err = fx.svc.UpdateStatus(context.Background(), p1.ID, StatusApproved)
	require.NoError(t, err)

	stats, err := fx.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProjects)
	assert.Equal(t, 1, stats.ApprovedCount)
	assert.Equal(t, 1, stats.DraftCount)
	assert.InDelta(t, 11800, stats.ApprovedValue, 0.01)
	assert.InDelta(t, 35400, stats.TotalValue, 0.01)
}

func TestSendEmailMovesDraftToSent(t *testing.T) {
	fx := newFixture()

	p, err := fx.svc.Create(context.Background(), validRequest(validItem("Lounge Chair", "LC-01", 25000, 1)))
	require.NoError(t, err)

	after, err := fx.svc.SendEmail(context.Background(), p.ID, SendEmailRequest{To: "client@example.com"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, after.Status)

	require.Len(t, fx.sender.sent, 1)
	assert.Contains(t, fx.sender.sent[0].Subject, p.ProjectNo)
	require.Len(t, fx.emails.entries, 1)
	assert.Equal(t, mail.StatusSent, fx.emails.entries[0].Status)
	assert.Equal(t, "project_sent", fx.emails.entries[0].Type)
}

func TestSendEmailFailureKeepsStatus(t *testing.T) {
	fx := newFixture()
	fx.sender.fail = true

	p, err := fx.svc.Create(context.Background(), validRequest(validItem("Lounge Chair", "LC-01", 25000, 1)))
	require.NoError(t, err)

	_, err = fx.svc.SendEmail(context.Background(), p.ID, SendEmailRequest{To: "client@example.com"}, "user-1")
	require.Error(t, err)

	after, err := fx.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, after.Status)

	// The failed attempt is still in the audit trail.
	require.Len(t, fx.emails.entries, 1)
	assert.Equal(t, mail.StatusFailed, fx.emails.entries[0].Status)
}

func TestEnsurePDFGeneratesOnlyWhenMissing(t *testing.T) {
	fx := newFixture()

	p, err := fx.svc.Create(context.Background(), validRequest(validItem("Lounge Chair", "LC-01", 25000, 1)))
	require.NoError(t, err)

	path, err := fx.svc.EnsurePDF(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.store.Path(p.ID), path)
	assert.Len(t, fx.gen.generated, 1)

	// Second ensure finds the file and skips generation.
	_, err = fx.svc.EnsurePDF(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, fx.gen.generated, 1)
}

func TestDocumentForProjectMapping(t *testing.T) {
	fx := newFixture()

	wood := "Teak"
	special := "Client-approved finish"
	req := validRequest(validItem("Lounge Chair", "LC-01", 25000, 2))
	req.Items[0].WoodName = &wood
	req.Items[0].SpecialNote = &special
	req.Items[0].Notes = []string{"brass legs"}

	p, err := fx.svc.Create(context.Background(), req)
	require.NoError(t, err)

	doc := DocumentForProject(p)
	assert.Equal(t, p.ID, doc.ProjectID)
	assert.Equal(t, p.ProjectNo, doc.ProjectNo)
	assert.Equal(t, "Acme Interiors", doc.CustomerName)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Lounge Chair", doc.Items[0].Name)
	assert.Equal(t, "LC-01", doc.Items[0].Code)
	assert.Equal(t, "Teak", doc.Items[0].WoodName)
	assert.Equal(t, "Client-approved finish", doc.Items[0].SpecialNote)
	assert.Equal(t, []string{"brass legs"}, doc.Items[0].Notes)
	assert.Equal(t, 2, doc.Items[0].Quantity)
	assert.InDelta(t, 50000, doc.Items[0].Total, 0.001)
}
