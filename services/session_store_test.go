package services

import (
	"os"
	"testing"
	"time"

	"main/model"

	"github.com/google/uuid"
)

// newTestSessionStore connects to the Redis named by REDIS_URL and skips
// the test when none is reachable
func newTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	store, err := NewSessionStore(url)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestSession(userID string) *model.Session {
	now := time.Now()
	return &model.Session{
		SessionID:      uuid.New().String(),
		UserID:         userID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Hour),
		LastActivityAt: now,
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := newTestSessionStore(t)

	userID := uuid.New().String()
	session := newTestSession(userID)

	t.Run("SetAndGet", func(t *testing.T) {
		if err := store.SetSession(session); err != nil {
			t.Fatal("set failed:", err)
		}

		loaded, err := store.GetSession(session.SessionID)
		if err != nil {
			t.Fatal("get failed:", err)
		}
		if loaded == nil || loaded.UserID != userID {
			t.Fatal("session did not round trip")
		}
	})

	t.Run("SaveAndGetUser", func(t *testing.T) {
		user := &model.User{
			UserID:   userID,
			Username: "sessionUser",
			Email:    "session@email.com",
			FullName: "Session User",
		}
		if err := store.SaveUser(session.SessionID, user, time.Hour); err != nil {
			t.Fatal("save user failed:", err)
		}

		loggedIn, err := store.IsLoggedIn(session.SessionID)
		if err != nil || !loggedIn {
			t.Fatal("user should be logged in:", err)
		}

		current, err := store.GetCurrentUser(session.SessionID)
		if err != nil {
			t.Fatal("get user failed:", err)
		}
		if current == nil || current.Username != "sessionUser" || current.FullName != "Session User" {
			t.Fatalf("user did not round trip: %+v", current)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		if err := store.Logout(session.SessionID); err != nil {
			t.Fatal("logout failed:", err)
		}

		loaded, err := store.GetSession(session.SessionID)
		if err != nil {
			t.Fatal("get after logout errored:", err)
		}
		if loaded != nil {
			t.Fatal("session survived logout")
		}

		loggedIn, _ := store.IsLoggedIn(session.SessionID)
		if loggedIn {
			t.Fatal("user record survived logout")
		}
	})
}

func TestSessionStoreExpiry(t *testing.T) {
	store := newTestSessionStore(t)

	session := newTestSession(uuid.New().String())
	session.ExpiresAt = time.Now().Add(-time.Minute)

	if err := store.SetSession(session); err == nil {
		t.Fatal("storing an already expired session should fail")
	}
}

func TestSessionStoreEndAllUserSessions(t *testing.T) {
	store := newTestSessionStore(t)

	userID := uuid.New().String()
	first := newTestSession(userID)
	second := newTestSession(userID)
	other := newTestSession(uuid.New().String())

	for _, s := range []*model.Session{first, second, other} {
		if err := store.SetSession(s); err != nil {
			t.Fatal("set failed:", err)
		}
	}
	t.Cleanup(func() { store.Logout(other.SessionID) })

	if err := store.EndAllUserSessions(userID); err != nil {
		t.Fatal("end all failed:", err)
	}

	for _, id := range []string{first.SessionID, second.SessionID} {
		if s, _ := store.GetSession(id); s != nil {
			t.Fatal("session survived end-all:", id)
		}
	}
	if s, _ := store.GetSession(other.SessionID); s == nil {
		t.Fatal("another user's session was removed")
	}
}

func TestGetMissingSession(t *testing.T) {
	store := newTestSessionStore(t)

	loaded, err := store.GetSession(uuid.New().String())
	if err != nil {
		t.Fatal("missing session errored:", err)
	}
	if loaded != nil {
		t.Fatal("found a session that was never stored")
	}
}
