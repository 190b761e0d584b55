package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"main/model"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore is the durable session record backed by Redis. Each
// session keeps two keys: the session envelope itself and a hash with
// the signed-in user. The user hash stores the flattened account fields
// and a full JSON snapshot of the user side by side; the snapshot is
// the preferred read path and the flattened fields are the fallback
// when the snapshot fails to parse.
type SessionStore struct {
	client    *redis.Client
	storeLock sync.RWMutex
}

var GlobalSessionStore *SessionStore

const (
	fieldLoggedIn = "is_logged_in"
	fieldUserID   = "user_id"
	fieldUsername = "username"
	fieldEmail    = "email"
	fieldFullName = "full_name"
	fieldUserJSON = "user"
)

// NewSessionStore creates and initializes a new session store
func NewSessionStore(redisURL string) (*SessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &SessionStore{client: client}, nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func sessionUserKey(sessionID string) string {
	return fmt.Sprintf("session_user:%s", sessionID)
}

// SetSession stores a session envelope with a TTL matching its expiry
func (ss *SessionStore) SetSession(session *model.Session) error {
	if session == nil {
		return fmt.Errorf("cannot store nil session")
	}

	ss.storeLock.Lock()
	defer ss.storeLock.Unlock()

	ctx := context.Background()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %v", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session has already expired")
	}

	if err := ss.client.Set(ctx, sessionKey(session.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %v", err)
	}

	return nil
}

// GetSession retrieves a session envelope, expiring it on read if stale
func (ss *SessionStore) GetSession(sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	ss.storeLock.RLock()
	defer ss.storeLock.RUnlock()

	ctx := context.Background()

	data, err := ss.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %v", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %v", err)
	}

	if time.Now().After(session.ExpiresAt) {
		ss.client.Del(ctx, sessionKey(sessionID), sessionUserKey(sessionID))
		return nil, nil
	}

	return &session, nil
}

// SaveUser records the signed-in user for a session. The flattened
// fields and the JSON snapshot are written together so either can
// reconstruct the account later.
func (ss *SessionStore) SaveUser(sessionID string, user *model.User, ttl time.Duration) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}

	ss.storeLock.Lock()
	defer ss.storeLock.Unlock()

	snapshot, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user snapshot: %v", err)
	}

	ctx := context.Background()
	key := sessionUserKey(sessionID)

	fields := map[string]interface{}{
		fieldLoggedIn: "true",
		fieldUserID:   user.UserID,
		fieldUsername: user.Username,
		fieldEmail:    user.Email,
		fieldFullName: user.FullName,
		fieldUserJSON: string(snapshot),
	}

	pipe := ss.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session user: %v", err)
	}

	return nil
}

// GetCurrentUser returns the signed-in user for a session, or nil when
// nobody is signed in. A corrupt snapshot falls back to the flattened
// fields instead of failing the read.
func (ss *SessionStore) GetCurrentUser(sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	ss.storeLock.RLock()
	defer ss.storeLock.RUnlock()

	ctx := context.Background()

	fields, err := ss.client.HGetAll(ctx, sessionUserKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session user: %v", err)
	}
	if len(fields) == 0 || fields[fieldLoggedIn] != "true" {
		return nil, nil
	}

	if snapshot := fields[fieldUserJSON]; snapshot != "" {
		var user model.User
		if err := json.Unmarshal([]byte(snapshot), &user); err == nil {
			return &user, nil
		}
		log.Printf("Session %s has an unreadable user snapshot, using flattened fields", sessionID)
	}

	return &model.User{
		UserID:   fields[fieldUserID],
		Username: fields[fieldUsername],
		Email:    fields[fieldEmail],
		FullName: fields[fieldFullName],
	}, nil
}

// IsLoggedIn reports whether a session has a signed-in user
func (ss *SessionStore) IsLoggedIn(sessionID string) (bool, error) {
	if sessionID == "" {
		return false, fmt.Errorf("sessionID cannot be empty")
	}

	ctx := context.Background()
	val, err := ss.client.HGet(ctx, sessionUserKey(sessionID), fieldLoggedIn).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check login state: %v", err)
	}
	return val == "true", nil
}

// Logout clears the signed-in user and the session envelope
func (ss *SessionStore) Logout(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	ss.storeLock.Lock()
	defer ss.storeLock.Unlock()

	ctx := context.Background()
	if err := ss.client.Del(ctx, sessionKey(sessionID), sessionUserKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %v", err)
	}

	return nil
}

// DeleteSession removes a session envelope and its user record
func (ss *SessionStore) DeleteSession(sessionID string) error {
	return ss.Logout(sessionID)
}

// EndAllUserSessions walks the session keyspace and removes every
// session belonging to the given user
func (ss *SessionStore) EndAllUserSessions(userID string) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}

	ss.storeLock.Lock()
	defer ss.storeLock.Unlock()

	ctx := context.Background()

	var cursor uint64
	for {
		keys, newCursor, err := ss.client.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan sessions: %v", err)
		}

		for _, key := range keys {
			data, err := ss.client.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}

			var session model.Session
			if err := json.Unmarshal(data, &session); err != nil {
				continue
			}

			if session.UserID == userID {
				ss.client.Del(ctx, key, sessionUserKey(session.SessionID))
			}
		}

		cursor = newCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// CleanupExpiredSessions removes sessions whose expiry has passed.
// Redis drops the keys on TTL anyway; this catches records written
// without one.
func (ss *SessionStore) CleanupExpiredSessions() error {
	ss.storeLock.Lock()
	defer ss.storeLock.Unlock()

	ctx := context.Background()

	var cursor uint64
	for {
		keys, newCursor, err := ss.client.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %v", err)
		}

		for _, key := range keys {
			data, err := ss.client.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}

			var session model.Session
			if err := json.Unmarshal(data, &session); err != nil {
				continue
			}

			if time.Now().After(session.ExpiresAt) {
				ss.client.Del(ctx, key, sessionUserKey(session.SessionID))
			}
		}

		cursor = newCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// StartCleanupTask starts a background task to clean up expired sessions
func (ss *SessionStore) StartCleanupTask() {
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		for range ticker.C {
			if err := ss.CleanupExpiredSessions(); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
		}
	}()
}

func (ss *SessionStore) IsConnected() bool {
	if ss == nil || ss.client == nil {
		return false
	}
	ctx := context.Background()
	return ss.client.Ping(ctx).Err() == nil
}

// Close closes the Redis connection
func (ss *SessionStore) Close() error {
	return ss.client.Close()
}
