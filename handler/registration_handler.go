package handler

import (
	"errors"
	"log"

	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type RegistrationRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

func RegistrationHandler(c *gin.Context) {
	var req RegistrationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackAuthAttempt("failure", "register")
		utils.BadRequest(c, "invalid request")
		return
	}

	if !utils.ValidateUsername(req.Username) {
		utils.TrackAuthAttempt("failure", "register")
		utils.BadRequest(c, "username must be 3-20 characters: letters, digits and underscores")
		return
	}

	if !utils.ValidatePassword(req.Password) {
		utils.TrackAuthAttempt("failure", "register")
		utils.BadRequest(c, "password must be at least 8 characters with a letter and a digit")
		return
	}

	userRepo := repository.GetUserRepo(utils.DB)

	user, err := userRepo.Register(req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		utils.TrackAuthAttempt("failure", "register")
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			utils.Conflict(c, "username already exists")
		case errors.Is(err, repository.ErrEmailTaken):
			utils.Conflict(c, "email already registered")
		case errors.Is(err, repository.ErrEmptyPassword):
			utils.BadRequest(c, "password cannot be empty")
		case errors.Is(err, repository.ErrHashFailure):
			utils.InternalError(c, "failed to process password")
		default:
			log.Printf("Registration failed for %q: %v", req.Username, err)
			utils.InternalError(c, "registration failed")
		}
		return
	}

	token, err := services.GenerateJWT(user.UserID)
	if err != nil {
		utils.InternalError(c, "failed to generate token")
		return
	}

	refreshToken, err := services.GenerateRefreshToken(user.UserID)
	if err != nil {
		utils.InternalError(c, "failed to generate refresh token")
		return
	}

	utils.TrackAuthAttempt("success", "register")
	utils.Created(c, gin.H{
		"message": "user registered successfully",
		"token":   token,
		"refresh": refreshToken,
		"user": gin.H{
			"id":       user.UserID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}
