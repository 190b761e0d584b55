package handler

import (
	"log"

	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// DeleteUserHandler removes the account; notes and attachment rows go
// with it through the cascade, and the notes' attachment directories
// are cleared best-effort afterwards.
func DeleteUserHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	userRepo := repository.GetUserRepo(utils.DB)
	notesRepo := repository.GetNotesRepo(utils.DB)

	// Snapshot the note IDs before the cascade takes the rows away
	notes, err := notesRepo.GetUserNotes(userID.(string))
	if err != nil {
		log.Printf("Error listing notes for user %s: %v", userID, err)
	}

	// End all sessions for the user
	if services.GlobalSessionStore != nil {
		if err := services.GlobalSessionStore.EndAllUserSessions(userID.(string)); err != nil {
			log.Printf("Error ending user sessions: %v", err)
		}
	}

	deletedCount, err := userRepo.DeleteUserByID(userID.(string))
	if err != nil {
		log.Printf("Failed to delete user %s: %v", userID, err)
		utils.InternalError(c, "Failed to delete user")
		return
	}

	if deletedCount == 0 {
		utils.NotFound(c, "User not found")
		return
	}

	if storage := services.GlobalAttachmentStorage; storage != nil {
		for _, note := range notes {
			if err := storage.RemoveNoteDir(note.ID); err != nil {
				log.Printf("Failed to remove attachment directory for note %s: %v", note.ID, err)
			}
		}
	}

	// Clear session cookie
	c.SetCookie("session_id", "", -1, "/", "", true, true)

	log.Printf("User deleted successfully: %s", userID)
	utils.Success(c, gin.H{"message": "User deleted successfully"})
}
