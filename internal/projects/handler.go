package projects

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ecstatics-spaces/backoffice/internal/platform/httpx"
	"github.com/ecstatics-spaces/backoffice/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := shared.ParsePageRequest(q)

	filter := ListFilter{
		Search:     q.Get("search"),
		CustomerID: q.Get("customerId"),
		Limit:      page.PerPage,
		Offset:     page.Offset(),
	}
	if v := q.Get("status"); v != "" {
		s := Status(v)
		filter.Status = &s
	}
	if v := q.Get("startDate"); v != "" {
		if ts, err := time.Parse("2006-01-02", v); err == nil {
			filter.StartDate = &ts
		}
	}
	if v := q.Get("endDate"); v != "" {
		if ts, err := time.Parse("2006-01-02", v); err == nil {
			filter.EndDate = &ts
		}
	}

	list, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("projects: list failed", slog.String("error", err.Error()))
		httpx.RespondError(w, err)
		return
	}
	httpx.Paginated(w, list, shared.NewPagination(page.Page, page.PerPage, total))
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("projects: stats failed", slog.String("error", err.Error()))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, stats)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	p, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OKMessage(w, http.StatusOK, "project deleted")
}

func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Duplicate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, p)
}

func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	p, err := h.service.SendEmail(r.Context(), chi.URLParam(r, "id"), req, shared.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

// DownloadPDF streams the rendered document, generating it on demand when
// absent.
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	path, err := h.service.EnsurePDF(r.Context(), id)
	if err != nil {
		h.logger.Error("projects: ensure pdf failed",
			slog.String("project_id", id), slog.String("error", err.Error()))
		httpx.Fail(w, http.StatusNotFound, "PDF not found. Please try regenerating.")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		httpx.Fail(w, http.StatusNotFound, "PDF not found. Please try regenerating.")
		return
	}

	filename := p.ProjectNo
	if filename == "" {
		filename = id
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
	http.ServeFile(w, r, path)
}

func (h *Handler) RegeneratePDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.service.RegeneratePDF(r.Context(), id); err != nil {
		h.logger.Error("projects: regenerate pdf failed",
			slog.String("project_id", id), slog.String("error", err.Error()))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"pdfPath": "/uploads/pdfs/" + id + ".pdf"})
}
