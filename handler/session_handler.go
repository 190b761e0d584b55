package handler

import (
	"log"

	"main/model"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// GetSessionHandler returns the caller's current session together with
// the stored user record
func GetSessionHandler(c *gin.Context) {
	sessionValue, exists := c.Get("session")
	if !exists {
		utils.NotFound(c, "No active session")
		return
	}
	session, ok := sessionValue.(*model.Session)
	if !ok {
		utils.InternalError(c, "Invalid session state")
		return
	}

	currentUser, err := services.GlobalSessionStore.GetCurrentUser(session.SessionID)
	if err != nil {
		log.Printf("Error loading session user %s: %v", session.SessionID, err)
		utils.InternalError(c, "Failed to load session user")
		return
	}

	response := gin.H{"session": session}
	if currentUser != nil {
		response["user"] = gin.H{
			"id":        currentUser.UserID,
			"username":  currentUser.Username,
			"email":     currentUser.Email,
			"full_name": currentUser.FullName,
		}
	}

	utils.Success(c, response)
}

// EndAllSessionsHandler signs the user out everywhere
func EndAllSessionsHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	if err := services.GlobalSessionStore.EndAllUserSessions(userID.(string)); err != nil {
		log.Printf("Error ending sessions for user %s: %v", userID, err)
		utils.InternalError(c, "Failed to end sessions")
		return
	}

	c.SetCookie("session_id", "", -1, "/", "", true, true)
	utils.Success(c, gin.H{"message": "All sessions ended"})
}
