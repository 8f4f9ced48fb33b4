package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/medguardian/backend/internal/models"
	"github.com/medguardian/backend/internal/services"
)

// Chat Request
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat Response
type ChatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reply   string `json:"reply"`
}

// SendChat appends the user's message, asks the responder for an answer,
// and appends the bot turn. The reply always comes back even when the
// model call fails; a transcript write failure is surfaced instead.
func (h *Handler) SendChat(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	if err := services.AppendChat(r.Context(), sess.User.ID, models.RoleUser, text); err != nil {
		log.Printf("ERROR: chat append failed for %s: %v", sess.User.Username, err)
		http.Error(w, "Failed to record message", http.StatusInternalServerError)
		return
	}

	reply := services.SafeReply(r.Context(), h.Responder, text)

	if err := services.AppendChat(r.Context(), sess.User.ID, models.RoleBot, reply); err != nil {
		// The reply was produced; losing the bot row should not hide it.
		log.Printf("ERROR: bot chat append failed for %s: %v", sess.User.Username, err)
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Success: true,
		Message: "Reply generated",
		Reply:   reply,
	})
}

// ChatHistory returns the transcript ascending by creation time.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}

	limit := h.Config.ChatHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	msgs, err := services.ChatsForUserWithCache(r.Context(), sess.User.ID, limit)
	if err != nil {
		log.Printf("ERROR: chat history failed for %s: %v", sess.User.Username, err)
		http.Error(w, "Failed to load chat history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"messages": msgs,
			"count":    len(msgs),
		},
	})
}
