package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/medguardian/backend/internal/handlers"
	"github.com/medguardian/backend/internal/middleware"
)

func SetupRoutes(r *chi.Mux, h *handlers.Handler) {
	// Auth routes (signin throttled per IP)
	r.With(middleware.LoginRateLimit).Post("/api/auth/signup", h.Signup)
	r.With(middleware.LoginRateLimit).Post("/api/auth/signin", h.Signin)
	r.Post("/api/auth/signout", h.Signout)
	r.Get("/api/auth/me", h.Me)

	// Report routes
	r.Post("/api/reports/predict", h.Predict)
	r.Get("/api/reports", h.ListReports)
	r.Post("/api/reports/delete/request", h.RequestDelete)
	r.Post("/api/reports/delete/confirm", h.ConfirmDelete)
	r.Post("/api/reports/delete/cancel", h.CancelDelete)

	// Chat routes
	r.Post("/api/chat", h.SendChat)
	r.Get("/api/chat/history", h.ChatHistory)
	r.Get("/ws/chat", h.ChatWebSocket)
}
