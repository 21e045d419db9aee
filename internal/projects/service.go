package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ecstatics-spaces/backoffice/internal/pdf"
	"github.com/ecstatics-spaces/backoffice/internal/platform/httpx"
)

// moneyTolerance absorbs float rounding when checking the line-total
// identities.
const moneyTolerance = 0.01

// PDFEnqueuer schedules background document generation. Enqueue failures
// never fail the business request; the document is recoverable via
// ensure-on-read.
type PDFEnqueuer interface {
	EnqueueGenerate(ctx context.Context, projectID string) error
}

// DocumentGenerator renders one document synchronously.
type DocumentGenerator interface {
	Generate(ctx context.Context, doc pdf.Document) (string, error)
}

// FileStore locates generated documents on disk.
type FileStore interface {
	Path(projectID string) string
	Exists(projectID string) bool
	Delete(projectID string) error
}

// StatsCache caches the dashboard aggregate.
type StatsCache interface {
	Get(ctx context.Context) (*Stats, bool)
	Set(ctx context.Context, s *Stats)
	Invalidate(ctx context.Context)
}

type Service struct {
	repo      Repository
	enqueuer  PDFEnqueuer
	generator DocumentGenerator
	store     FileStore
	cache     StatsCache
	mailer    *projectMailer
	logger    *slog.Logger
	ensure    singleflight.Group
	now       func() time.Time
}

func NewService(
	repo Repository,
	enqueuer PDFEnqueuer,
	generator DocumentGenerator,
	store FileStore,
	cache StatsCache,
	mailer *projectMailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		enqueuer:  enqueuer,
		generator: generator,
		store:     store,
		cache:     cache,
		mailer:    mailer,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Project, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return p, nil
}

// Create persists the project and its items in one transaction, then
// enqueues document generation. The response never waits on the PDF.
func (s *Service) Create(ctx context.Context, req ProjectRequest) (*Project, error) {
	if err := validateItemTotals(req.Items); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", httpx.ErrValidation)
	}

	projectNo, err := s.nextProjectNo(ctx)
	if err != nil {
		return nil, err
	}

	p := projectFromRequest(req, date)
	p.ProjectNo = projectNo
	p.Status = StatusDraft

	items, err := itemsFromRequest(projectNo, req.Items)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p, items); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, p.ID)
	return s.Get(ctx, p.ID)
}

// Update replaces the header and the full item list, re-numbering lines,
// then enqueues regeneration.
func (s *Service) Update(ctx context.Context, id string, req ProjectRequest) (*Project, error) {
	if err := validateItemTotals(req.Items); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", httpx.ErrValidation)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p := projectFromRequest(req, date)
	p.ID = id
	p.ProjectNo = existing.ProjectNo

	items, err := itemsFromRequest(existing.ProjectNo, req.Items)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p, items); err != nil {
		return nil, mapNotFound(err)
	}

	s.afterWrite(ctx, id)
	return s.Get(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Project, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, mapNotFound(err)
	}

	s.afterWrite(ctx, id)
	return s.Get(ctx, id)
}

// Delete soft-deletes the project, hard-deletes its items and removes the
// rendered document.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	if err := s.store.Delete(id); err != nil {
		s.logger.Warn("projects: delete pdf failed",
			slog.String("project_id", id), slog.String("error", err.Error()))
	}
	s.invalidateStats(ctx)
	return nil
}

// Duplicate copies the header and items into a fresh draft dated today,
// with new project and line numbers.
func (s *Service) Duplicate(ctx context.Context, id string) (*Project, error) {
	original, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	projectNo, err := s.nextProjectNo(ctx)
	if err != nil {
		return nil, err
	}

	cp := *original
	cp.ID = ""
	cp.ProjectNo = projectNo
	cp.Date = s.now().Truncate(24 * time.Hour)
	cp.Status = StatusDraft
	cp.Customer = nil
	cp.SalesPerson = nil
	cp.Items = nil

	items := make([]ProjectItem, len(original.Items))
	for i, it := range original.Items {
		items[i] = it
		items[i].ID = ""
		items[i].ProjectID = ""
		items[i].SortOrder = i
		no, err := itemNumber(projectNo, i)
		if err != nil {
			return nil, err
		}
		items[i].ProjectQuotationNo = no
	}

	if err := s.repo.Create(ctx, &cp, items); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, cp.ID)
	return s.Get(ctx, cp.ID)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx); ok {
			return cached, nil
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, stats)
	}
	return stats, nil
}

// SendEmail dispatches the project summary to the given recipient and logs
// the attempt. A draft project moves to sent on success; a delivery failure
// is an error to the caller.
func (s *Service) SendEmail(ctx context.Context, id string, req SendEmailRequest, userID string) (*Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.sendSummary(ctx, p, req, userID); err != nil {
		return nil, err
	}

	if p.Status == StatusDraft {
		if err := s.repo.UpdateStatus(ctx, id, StatusSent); err != nil {
			return nil, mapNotFound(err)
		}
		s.invalidateStats(ctx)
	}
	return s.Get(ctx, id)
}

// EnsurePDF returns the document path, generating it synchronously when
// missing. Concurrent calls for the same project share one generation.
func (s *Service) EnsurePDF(ctx context.Context, id string) (string, error) {
	if s.store.Exists(id) {
		return s.store.Path(id), nil
	}

	path, err, _ := s.ensure.Do(id, func() (interface{}, error) {
		if s.store.Exists(id) {
			return s.store.Path(id), nil
		}
		return s.generatePDF(ctx, id)
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

// RegeneratePDF renders the document unconditionally.
func (s *Service) RegeneratePDF(ctx context.Context, id string) (string, error) {
	return s.generatePDF(ctx, id)
}

func (s *Service) generatePDF(ctx context.Context, id string) (string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.generator.Generate(ctx, DocumentForProject(p))
}

// DocumentForProject maps a hydrated project onto the renderer's input.
func DocumentForProject(p *Project) pdf.Document {
	doc := pdf.Document{
		ProjectID:         p.ID,
		ProjectNo:         p.ProjectNo,
		Date:              p.Date,
		GrandTotal:        p.GrandTotal,
		CGST:              p.CGST,
		SGST:              p.SGST,
		GrandTotalWithGST: p.GrandTotalWithGST,
	}
	if p.Customer != nil {
		doc.CustomerName = p.Customer.Name
		doc.CustomerMobile = p.Customer.Mobile
	}
	if p.SalesPerson != nil {
		doc.SalesPersonName = p.SalesPerson.Name
	}

	doc.Items = make([]pdf.DocumentItem, len(p.Items))
	for i, it := range p.Items {
		doc.Items[i] = pdf.DocumentItem{
			Name:            it.QuotationName,
			Code:            it.QuotationCode,
			Images:          it.Images,
			WoodName:        deref(it.WoodName),
			PolishName:      deref(it.PolishName),
			FabricName:      deref(it.FabricName),
			LengthMM:        derefF(it.LengthMM),
			WidthMM:         derefF(it.WidthMM),
			SpecialNote:     deref(it.SpecialNote),
			Notes:           it.Notes,
			BasePrice:       it.BasePrice,
			DiscountPercent: it.DiscountPercent,
			DiscountAmount:  it.DiscountAmount,
			FinalPrice:      it.FinalPrice,
			Quantity:        it.Quantity,
			Total:           it.Total,
			CGST:            it.CGST,
			TotalWithGST:    it.TotalWithGST,
			SortOrder:       it.SortOrder,
		}
	}
	return doc
}

func (s *Service) afterWrite(ctx context.Context, projectID string) {
	s.invalidateStats(ctx)
	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.EnqueueGenerate(ctx, projectID); err != nil {
		s.logger.Error("projects: enqueue pdf generation failed",
			slog.String("project_id", projectID), slog.String("error", err.Error()))
	}
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// validateItemTotals checks the pricing identities on every line:
// finalPrice = basePrice - discountAmount, total = finalPrice * quantity,
// totalWithGst = total + igst + cgst + sgst.
func validateItemTotals(items []ItemRequest) error {
	for i, it := range items {
		if !within(it.FinalPrice, it.BasePrice-it.DiscountAmount) {
			return fmt.Errorf("%w: item %d: finalPrice must equal basePrice - discountAmount", httpx.ErrValidation, i)
		}
		if !within(it.Total, it.FinalPrice*float64(it.Quantity)) {
			return fmt.Errorf("%w: item %d: total must equal finalPrice * quantity", httpx.ErrValidation, i)
		}
		if !within(it.TotalWithGST, it.Total+it.IGST+it.CGST+it.SGST) {
			return fmt.Errorf("%w: item %d: totalWithGst must equal total + taxes", httpx.ErrValidation, i)
		}
	}
	return nil
}

func within(a, b float64) bool {
	return math.Abs(a-b) <= moneyTolerance
}

func projectFromRequest(req ProjectRequest, date time.Time) *Project {
	return &Project{
		Date:              date,
		CustomerID:        req.CustomerID,
		SalesPersonID:     req.SalesPersonID,
		Subtotal:          req.Subtotal,
		TotalDiscount:     req.TotalDiscount,
		IGST:              req.IGST,
		CGST:              req.CGST,
		SGST:              req.SGST,
		GrandTotal:        req.GrandTotal,
		GrandTotalWithGST: req.GrandTotalWithGST,
		ProjectName:       req.ProjectName,
		DeliveryAddress:   req.DeliveryAddress,
		DeliveryLandmark:  req.DeliveryLandmark,
		DeliveryCity:      req.DeliveryCity,
		DeliveryState:     req.DeliveryState,
		DeliveryPincode:   req.DeliveryPincode,
	}
}

func itemsFromRequest(projectNo string, reqs []ItemRequest) ([]ProjectItem, error) {
	items := make([]ProjectItem, len(reqs))
	for i, req := range reqs {
		no, err := itemNumber(projectNo, i)
		if err != nil {
			return nil, err
		}
		items[i] = ProjectItem{
			ProjectQuotationNo: no,
			QuotationID:        req.QuotationID,
			QuotationCode:      req.QuotationCode,
			QuotationName:      req.QuotationName,
			Description:        req.Description,
			SpecialNote:        req.SpecialNote,
			Images:             req.Images,
			WoodID:             req.WoodID,
			WoodName:           req.WoodName,
			PolishID:           req.PolishID,
			PolishName:         req.PolishName,
			FabricID:           req.FabricID,
			FabricName:         req.FabricName,
			LengthMM:           req.LengthMM,
			WidthMM:            req.WidthMM,
			BasePrice:          req.BasePrice,
			DiscountPercent:    req.DiscountPercent,
			DiscountAmount:     req.DiscountAmount,
			FinalPrice:         req.FinalPrice,
			Quantity:           req.Quantity,
			Total:              req.Total,
			GSTPercent:         req.GSTPercent,
			IGST:               req.IGST,
			CGST:               req.CGST,
			SGST:               req.SGST,
			TotalWithGST:       req.TotalWithGST,
			Notes:              req.Notes,
			SortOrder:          i,
		}
	}
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func mapNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: project", httpx.ErrNotFound)
	}
	return err
}
