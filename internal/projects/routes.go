package projects

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/stats", h.Stats)
		r.Get("/{id}", h.Show)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/duplicate", h.Duplicate)
		r.Post("/{id}/send-email", h.SendEmail)
		r.Get("/{id}/pdf", h.DownloadPDF)
		r.Post("/{id}/regenerate-pdf", h.RegeneratePDF)
	})
}
