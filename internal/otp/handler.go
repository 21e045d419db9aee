package otp

import (
	"log/slog"
	"net/http"
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

func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	var req RequestOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	in := RequestInput{
		Type:       req.Type,
		Email:      req.Email,
		EntityID:   req.EntityID,
		EntityType: req.EntityType,
	}
	if userID := shared.UserIDFromContext(r.Context()); userID != "" {
		in.RequestedBy = &userID
	}

	log, err := h.service.Request(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, log)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req ApproveOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	log, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), req.Code, shared.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, log)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	log, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), shared.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, log)
}

func (h *Handler) Resend(w http.ResponseWriter, r *http.Request) {
	log, err := h.service.Resend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, log)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	log, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, log)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := shared.ParsePageRequest(q)

	filter := ListFilter{
		Email:  q.Get("email"),
		Limit:  page.PerPage,
		Offset: page.Offset(),
	}
	if v := q.Get("type"); v != "" {
		t := Type(v)
		filter.Type = &t
	}
	if v := q.Get("status"); v != "" {
		s := Status(v)
		filter.Status = &s
	}
	if v := q.Get("from"); v != "" {
		if ts, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = &ts
		}
	}
	if v := q.Get("to"); v != "" {
		if ts, err := time.Parse("2006-01-02", v); err == nil {
			end := ts.Add(24*time.Hour - time.Nanosecond)
			filter.To = &end
		}
	}

	logs, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("otp: list failed", slog.String("error", err.Error()))
		httpx.RespondError(w, err)
		return
	}
	httpx.Paginated(w, logs, shared.NewPagination(page.Page, page.PerPage, total))
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r.URL.Query())

	logs, total, err := h.service.ListPending(r.Context(), page.PerPage, page.Offset())
	if err != nil {
		h.logger.Error("otp: list pending failed", slog.String("error", err.Error()))
		httpx.RespondError(w, err)
		return
	}
	httpx.Paginated(w, logs, shared.NewPagination(page.Page, page.PerPage, total))
}
