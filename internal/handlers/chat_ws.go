package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/medguardian/backend/internal/models"
	"github.com/medguardian/backend/internal/services"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// ChatClientMessage represents messages coming from the frontend over WebSocket.
type ChatClientMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text,omitempty"`
}

// ChatServerMessage is what the server pushes back.
type ChatServerMessage struct {
	Type      string    `json:"type"` // "reply", "pong", "error"
	Role      string    `json:"role,omitempty"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatWebSocket runs the assistant chat over a live connection.
// Authentication uses the session token (Authorization: Bearer <token>,
// or ?token= for browser WebSocket clients). Each inbound message counts
// as activity for the inactivity timer.
func (h *Handler) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	sess, ok := h.Sessions.Validate(token)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}
	user := sess.User

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var msg ChatClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		// The token was validated at handshake; revalidate so an expired
		// session drops the connection instead of chatting on.
		if _, ok := h.Sessions.Validate(token); !ok {
			_ = conn.WriteJSON(ChatServerMessage{Type: "error", Text: "session expired", Timestamp: time.Now().UTC()})
			return
		}

		switch msg.Type {
		case "ping":
			_ = conn.WriteJSON(ChatServerMessage{Type: "pong", Timestamp: time.Now().UTC()})
		case "message":
			text := strings.TrimSpace(msg.Text)
			if text == "" {
				continue
			}
			if err := services.AppendChat(r.Context(), user.ID, models.RoleUser, text); err != nil {
				log.Printf("ERROR: ws chat append failed for %s: %v", user.Username, err)
				_ = conn.WriteJSON(ChatServerMessage{Type: "error", Text: "failed to record message", Timestamp: time.Now().UTC()})
				continue
			}

			reply := services.SafeReply(r.Context(), h.Responder, text)
			if err := services.AppendChat(r.Context(), user.ID, models.RoleBot, reply); err != nil {
				log.Printf("ERROR: ws bot append failed for %s: %v", user.Username, err)
			}

			_ = conn.WriteJSON(ChatServerMessage{
				Type:      "reply",
				Role:      string(models.RoleBot),
				Text:      reply,
				Timestamp: time.Now().UTC(),
			})
		}
	}
}
