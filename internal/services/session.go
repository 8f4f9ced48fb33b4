package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/medguardian/backend/internal/models"
)

// Session is the single authenticated slot held by a SessionManager.
// Logging in again replaces whatever was here before.
type Session struct {
	Token        string
	User         *models.User
	LastActivity time.Time
}

// SessionManager tracks at most one logged-in user with inactivity-based
// expiry. It holds no database state; expiry just clears the slot and runs
// the registered clear hooks (transient workspace, chat cache).
type SessionManager struct {
	mu      sync.Mutex
	current *Session
	timeout time.Duration

	// now is swappable in tests.
	now func() time.Time

	clearHooks []func(user *models.User)
}

// NewSessionManager builds a manager with the given inactivity timeout.
// A zero or negative timeout falls back to 15 minutes.
func NewSessionManager(timeout time.Duration) *SessionManager {
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &SessionManager{
		timeout: timeout,
		now:     time.Now,
	}
}

// OnClear registers a hook invoked whenever the session ends, either by
// explicit logout or by inactivity expiry.
func (sm *SessionManager) OnClear(hook func(user *models.User)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.clearHooks = append(sm.clearHooks, hook)
}

// Login stores the user in the session slot and returns a fresh bearer
// token. Any previously active session is replaced, running the clear
// hooks first so no transient state crosses into the new session.
func (sm *SessionManager) Login(user *models.User) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("session: token generation failed: %w", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current != nil {
		sm.clearLocked("replaced")
	}
	sm.current = &Session{
		Token:        token,
		User:         user,
		LastActivity: sm.now(),
	}
	return token, nil
}

// Validate returns the session matching the token, after enforcing the
// inactivity timeout. A hit refreshes LastActivity.
func (sm *SessionManager) Validate(token string) (*Session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.current == nil || token == "" || sm.current.Token != token {
		return nil, false
	}
	if sm.expiredLocked() {
		sm.clearLocked("expired")
		return nil, false
	}
	sm.current.LastActivity = sm.now()
	return sm.current, true
}

// Touch refreshes the activity timestamp without a token check. Used by
// long-lived connections that already validated at handshake time.
func (sm *SessionManager) Touch() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current != nil && !sm.expiredLocked() {
		sm.current.LastActivity = sm.now()
	}
}

// CheckExpiry clears the slot when the inactivity window has elapsed.
// Returns true when a session was expired by this call.
func (sm *SessionManager) CheckExpiry() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.current == nil || !sm.expiredLocked() {
		return false
	}
	sm.clearLocked("expired")
	return true
}

// Logout ends the current session regardless of remaining time.
func (sm *SessionManager) Logout() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current != nil {
		sm.clearLocked("logout")
	}
}

// Active reports whether a non-expired session is present.
func (sm *SessionManager) Active() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current != nil && !sm.expiredLocked()
}

func (sm *SessionManager) expiredLocked() bool {
	return sm.now().Sub(sm.current.LastActivity) > sm.timeout
}

func (sm *SessionManager) clearLocked(reason string) {
	user := sm.current.User
	sm.current = nil
	if user != nil {
		log.Printf("session: cleared for %s (%s)", user.Username, reason)
	}
	for _, hook := range sm.clearHooks {
		hook(user)
	}
}

func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
