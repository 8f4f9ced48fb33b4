package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medguardian/backend/internal/models"
)

func testUser(username string) *models.User {
	return &models.User{ID: uuid.New(), Username: username}
}

// fixedClock lets the tests move time without sleeping.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time          { return c.t }
func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(timeout time.Duration) (*SessionManager, *fixedClock) {
	sm := NewSessionManager(timeout)
	clock := &fixedClock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	sm.now = clock.Now
	return sm, clock
}

func TestSessionLoginAndValidate(t *testing.T) {
	sm, _ := newTestManager(15 * time.Minute)

	token, err := sm.Login(testUser("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("Login returned an empty token")
	}

	sess, ok := sm.Validate(token)
	if !ok {
		t.Fatal("Validate rejected a fresh token")
	}
	if sess.User.Username != "alice" {
		t.Fatalf("session user = %q, want alice", sess.User.Username)
	}

	if _, ok := sm.Validate("not-the-token"); ok {
		t.Fatal("Validate accepted a wrong token")
	}
	if _, ok := sm.Validate(""); ok {
		t.Fatal("Validate accepted an empty token")
	}
}

func TestSessionExpiryBoundary(t *testing.T) {
	sm, clock := newTestManager(15 * time.Minute)
	token, _ := sm.Login(testUser("bob"))

	// 14 minutes idle: still authenticated.
	clock.Advance(14 * time.Minute)
	if expired := sm.CheckExpiry(); expired {
		t.Fatal("session expired at 14 minutes with a 15-minute timeout")
	}
	if _, ok := sm.Validate(token); !ok {
		t.Fatal("Validate rejected a session 14 minutes idle")
	}

	// Validate refreshed the clock; now go 16 minutes idle.
	clock.Advance(16 * time.Minute)
	if expired := sm.CheckExpiry(); !expired {
		t.Fatal("session survived 16 minutes idle")
	}
	if _, ok := sm.Validate(token); ok {
		t.Fatal("Validate accepted an expired token")
	}
	if sm.Active() {
		t.Fatal("manager still active after expiry")
	}
}

func TestSessionValidateExpiresLazily(t *testing.T) {
	sm, clock := newTestManager(15 * time.Minute)
	token, _ := sm.Login(testUser("carol"))

	clock.Advance(16 * time.Minute)
	// No CheckExpiry call; Validate itself enforces the window.
	if _, ok := sm.Validate(token); ok {
		t.Fatal("Validate accepted a stale session without an explicit expiry check")
	}
}

func TestSessionTouchKeepsAlive(t *testing.T) {
	sm, clock := newTestManager(15 * time.Minute)
	token, _ := sm.Login(testUser("dave"))

	for i := 0; i < 4; i++ {
		clock.Advance(10 * time.Minute)
		sm.Touch()
	}
	if _, ok := sm.Validate(token); !ok {
		t.Fatal("regular activity did not keep the session alive")
	}
}

func TestSessionLogoutRunsClearHooks(t *testing.T) {
	sm, _ := newTestManager(15 * time.Minute)

	var cleared *models.User
	sm.OnClear(func(u *models.User) { cleared = u })

	user := testUser("erin")
	token, _ := sm.Login(user)
	sm.Logout()

	if cleared == nil || cleared.ID != user.ID {
		t.Fatal("clear hook did not receive the logged-out user")
	}
	if _, ok := sm.Validate(token); ok {
		t.Fatal("Validate accepted a token after logout")
	}
}

func TestSessionExpiryRunsClearHooks(t *testing.T) {
	sm, clock := newTestManager(15 * time.Minute)

	hookRuns := 0
	sm.OnClear(func(*models.User) { hookRuns++ })

	sm.Login(testUser("frank"))
	clock.Advance(20 * time.Minute)
	sm.CheckExpiry()

	if hookRuns != 1 {
		t.Fatalf("clear hooks ran %d times on expiry, want 1", hookRuns)
	}
	// Nothing left to expire; hooks must not fire again.
	sm.CheckExpiry()
	sm.Logout()
	if hookRuns != 1 {
		t.Fatalf("clear hooks ran %d times after repeat clears, want 1", hookRuns)
	}
}

func TestSessionReplacementClearsTransientState(t *testing.T) {
	sm, _ := newTestManager(15 * time.Minute)
	engine := NewReconciliationEngine(nil)
	sm.OnClear(func(*models.User) { engine.ClearTransient() })

	first := testUser("alice")
	sm.Login(first)
	engine.AddTransient(report(uuid.Nil, "MG-1", "Heart", "2024-01-01"))
	engine.RequestDelete(report(uuid.Nil, "MG-1", "Heart", "2024-01-01"))

	// A second login without logout or expiry must not carry the previous
	// user's unsaved reports or pending deletion into the new session.
	var cleared *models.User
	sm.OnClear(func(u *models.User) { cleared = u })
	sm.Login(testUser("bob"))

	if len(engine.Transient()) != 0 {
		t.Fatalf("previous user's unsaved reports survived a replacing login: %+v", engine.Transient())
	}
	if _, ok := engine.PendingDelete(); ok {
		t.Fatal("previous user's delete candidate survived a replacing login")
	}
	if cleared == nil || cleared.ID != first.ID {
		t.Fatal("clear hooks did not run for the replaced session")
	}
}

func TestSessionSecondLoginReplacesFirst(t *testing.T) {
	sm, _ := newTestManager(15 * time.Minute)

	first, _ := sm.Login(testUser("grace"))
	second, _ := sm.Login(testUser("heidi"))

	if first == second {
		t.Fatal("two logins produced the same token")
	}
	if _, ok := sm.Validate(first); ok {
		t.Fatal("first token still valid after a replacing login")
	}
	sess, ok := sm.Validate(second)
	if !ok || sess.User.Username != "heidi" {
		t.Fatal("second login did not own the session slot")
	}
}
