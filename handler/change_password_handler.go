package handler

import (
	"errors"
	"log"
	"time"

	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" binding:"required"`
}

func ChangePasswordHandler(c *gin.Context) {
	// Get userID from the JWT token (set by AuthMiddleware)
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}

	userRepo := repository.GetUserRepo(utils.DB)

	user, err := userRepo.FindUser(userID.(string))
	if err != nil {
		log.Printf("Error fetching user %s: %v", userID, err)
		utils.NotFound(c, "User not found")
		return
	}
	if user == nil {
		utils.NotFound(c, "User not found")
		return
	}

	// Validate new password format
	if !utils.ValidatePassword(req.NewPassword) {
		utils.BadRequest(c, "New password does not meet requirements")
		return
	}

	// Check if new password is same as current
	if user.PasswordHash != "" && services.ComparePasswords(user.PasswordHash, req.NewPassword) {
		utils.BadRequest(c, "New password cannot be the same as current password")
		return
	}

	// Check rate limit (2 weeks); accounts that never set a password skip it
	twoWeeks := 14 * 24 * time.Hour
	if user.PasswordHash != "" && !user.LastPasswordChange.IsZero() && time.Since(user.LastPasswordChange) < twoWeeks {
		nextAllowedChange := user.LastPasswordChange.Add(twoWeeks)
		utils.TooManyRequests(c, "Password can only be changed every 2 weeks", gin.H{
			"next_allowed_change": nextAllowedChange,
		})
		return
	}

	// The repository verifies the old password, except for accounts with
	// an empty credential record, which get their first password here
	err = userRepo.ChangePassword(userID.(string), req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrWrongPassword):
			utils.Unauthorized(c, "Current password is incorrect")
		case errors.Is(err, repository.ErrUserNotFound):
			utils.NotFound(c, "User not found")
		default:
			log.Printf("Failed to update password for user %s: %v", userID, err)
			utils.InternalError(c, "Failed to update password")
		}
		return
	}

	log.Printf("Password changed successfully for user %s", userID)
	utils.Success(c, gin.H{"message": "Password updated successfully"})
}
