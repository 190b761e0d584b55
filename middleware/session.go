package middleware

import (
	"fmt"
	"main/model"
	"main/services"
	"main/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionLifetime = 24 * time.Hour

// SessionMiddleware resolves the session cookie against the session
// store and drops sessions idle for more than 48 hours
func SessionMiddleware(store *services.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie("session_id")
		if err != nil {
			c.Next()
			return
		}

		session, err := store.GetSession(sessionID)
		if err != nil || session == nil || !session.IsActive {
			c.SetCookie("session_id", "", -1, "/", "", true, true)
			c.Next()
			return
		}

		// Check for inactivity timeout (48 hours)
		if time.Since(session.LastActivityAt) > 48*time.Hour {
			store.Logout(sessionID)
			c.SetCookie("session_id", "", -1, "/", "", true, true)
			c.Next()
			return
		}

		// Update last activity time
		session.LastActivityAt = time.Now()
		if err := store.SetSession(session); err != nil {
			utils.TrackError("cache", "session_touch_failed")
		}

		c.Set("session", session)
		c.Set("session_id", session.SessionID)
		c.Next()
	}
}

// CreateSession opens a session for a signed-in user, records the user
// snapshot next to it and sets the cookie
func CreateSession(c *gin.Context, user *model.User, store *services.SessionStore) (*model.Session, error) {
	// Generate session name from user agent and client location
	userAgent := c.Request.UserAgent()
	browser, os, device := utils.ParseUserAgent(userAgent)

	location, _ := utils.GetLocationFromIP(c.ClientIP())
	displayName := utils.GenerateSessionName(userAgent, location)

	session := &model.Session{
		SessionID:      uuid.New().String(),
		UserID:         user.UserID,
		DisplayName:    displayName,
		DeviceInfo:     fmt.Sprintf("%s on %s (%s)", browser, os, device),
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(sessionLifetime),
		LastActivityAt: time.Now(),
		IPAddress:      c.ClientIP(),
		IsActive:       true,
	}

	if err := store.SetSession(session); err != nil {
		return nil, err
	}
	if err := store.SaveUser(session.SessionID, user, sessionLifetime); err != nil {
		return nil, err
	}

	c.SetCookie(
		"session_id",
		session.SessionID,
		int(sessionLifetime.Seconds()),
		"/",
		"",
		true,
		true,
	)

	return session, nil
}
