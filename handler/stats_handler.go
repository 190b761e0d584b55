package handler

import (
	"log"

	"main/model"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	userRepo        *repository.UserRepo
	notesRepo       *repository.NotesRepo
	attachmentsRepo *repository.AttachmentsRepo
	sessionStore    *services.SessionStore
}

func NewStatsHandler(
	userRepo *repository.UserRepo,
	notesRepo *repository.NotesRepo,
	attachmentsRepo *repository.AttachmentsRepo,
	sessionStore *services.SessionStore,
) *StatsHandler {
	return &StatsHandler{
		userRepo:        userRepo,
		notesRepo:       notesRepo,
		attachmentsRepo: attachmentsRepo,
		sessionStore:    sessionStore,
	}
}

func (h *StatsHandler) GetUserStats(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	user, err := h.userRepo.FindUser(userID.(string))
	if err != nil {
		log.Printf("Error fetching user %s: %v", userID, err)
		utils.InternalError(c, "Failed to fetch user details")
		return
	}
	if user == nil {
		utils.NotFound(c, "User not found")
		return
	}

	var stats model.UserStats

	totalNotes, err := h.notesRepo.CountUserNotes(userID.(string))
	if err != nil {
		log.Printf("Error counting notes: %v", err)
		utils.InternalError(c, "Failed to count notes")
		return
	}
	stats.NotesStats.Total = int(totalNotes)

	typeCounts, totalBytes, err := h.attachmentsRepo.CountByUser(userID.(string))
	if err != nil {
		log.Printf("Error counting attachments: %v", err)
		utils.InternalError(c, "Failed to count attachments")
		return
	}
	stats.NotesStats.Attachments = typeCounts[model.AttachmentTypeImage] +
		typeCounts[model.AttachmentTypeAudio] +
		typeCounts[model.AttachmentTypeFile]
	stats.AttachmentStats.Images = typeCounts[model.AttachmentTypeImage]
	stats.AttachmentStats.Audio = typeCounts[model.AttachmentTypeAudio]
	stats.AttachmentStats.Files = typeCounts[model.AttachmentTypeFile]
	stats.AttachmentStats.TotalBytes = totalBytes

	stats.ActivityStats.AccountCreated = user.CreatedAt

	if session, exists := c.Get("session"); exists {
		if s, ok := session.(*model.Session); ok {
			stats.ActivityStats.LastActive = s.LastActivityAt
			stats.ActivityStats.TotalSessions = 1
		}
	}

	utils.Success(c, gin.H{
		"stats": stats,
	})
}

// GetSystemStats reports process level health for operators
func (h *StatsHandler) GetSystemStats(c *gin.Context) {
	dbStats, err := utils.DBStats()
	if err != nil {
		utils.InternalError(c, "Failed to read database stats")
		return
	}

	utils.Success(c, gin.H{
		"cpu_percent": utils.GetCPUUsage(),
		"database": gin.H{
			"open_connections": dbStats.OpenConnections,
			"in_use":           dbStats.InUse,
			"idle":             dbStats.Idle,
		},
		"redis_connected": h.sessionStore.IsConnected(),
	})
}
