package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/medguardian/backend/internal/config"
	"github.com/medguardian/backend/internal/scorer"
	"github.com/medguardian/backend/internal/services"
)

// Handler bundles the per-instance state the endpoints share: the session
// slot, the reconciliation engine, and the external capabilities.
type Handler struct {
	Config    *config.Config
	Sessions  *services.SessionManager
	Engine    *services.ReconciliationEngine
	Scorer    scorer.Scorer
	Responder services.Responder
}

func New(cfg *config.Config, sessions *services.SessionManager, engine *services.ReconciliationEngine, sc scorer.Scorer, responder services.Responder) *Handler {
	return &Handler{
		Config:    cfg,
		Sessions:  sessions,
		Engine:    engine,
		Scorer:    sc,
		Responder: responder,
	}
}

// APIResponse is the common JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// extractBearerToken pulls the token out of "Authorization: Bearer <token>".
func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// requireSession validates the request's bearer token against the session
// slot. Writes a 401 and returns nil when there is no live session.
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) *services.Session {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	sess, ok := h.Sessions.Validate(token)
	if !ok {
		http.Error(w, "Session expired or not signed in", http.StatusUnauthorized)
		return nil
	}
	return sess
}
