package handler

import (
	"errors"
	"log"

	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type ResetPasswordRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ResetPasswordHandler is the forgot-password flow: the caller proves
// ownership by supplying the matching username and email together.
func ResetPasswordHandler(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format")
		return
	}

	if !utils.ValidatePassword(req.NewPassword) {
		utils.BadRequest(c, "New password does not meet requirements")
		return
	}

	userRepo := repository.GetUserRepo(utils.DB)

	err := userRepo.ResetPassword(req.Username, req.Email, req.NewPassword)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same answer for unknown username and mismatched email
			utils.NotFound(c, "No account matches that username and email")
			return
		}
		log.Printf("Failed to reset password for %q: %v", req.Username, err)
		utils.InternalError(c, "Failed to reset password")
		return
	}

	utils.TrackAuthAttempt("success", "password_reset")
	utils.Success(c, gin.H{"message": "Password reset successfully"})
}
