package otp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the OTP endpoints. The issuance endpoint carries an
// extra per-IP rate limit on top of the service's own cooldown checks.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/otp", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP), httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"success":false,"message":"too many requests"}`, http.StatusTooManyRequests)
			})))
			r.Post("/request", h.Request)
		})
		r.Get("/", h.List)
		r.Get("/pending", h.ListPending)
		r.Get("/{id}", h.Show)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
		r.Post("/{id}/resend", h.Resend)
	})
}
