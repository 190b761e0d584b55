package handler

import (
	"errors"
	"log"
	"net/http"

	"main/dto"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// UpdateProfileHandler edits the display name and, when the multipart
// form carries an avatar file, stores it in the avatars directory and
// points the account at it. The replaced avatar file is deleted
// best-effort.
func UpdateProfileHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	fullName := c.PostForm("full_name")

	var avatarURL string
	if fileHeader, err := c.FormFile("avatar"); err == nil {
		storage := services.GlobalAttachmentStorage
		if storage == nil {
			utils.InternalError(c, "Avatar storage not available")
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			utils.BadRequest(c, "Could not read uploaded avatar")
			return
		}
		defer src.Close()

		avatarURL, err = storage.SaveAvatar(src, fileHeader.Filename)
		if err != nil {
			log.Printf("Failed to store avatar for user %s: %v", userID, err)
			utils.InternalError(c, "Failed to store avatar")
			return
		}
	}

	userRepo := repository.GetUserRepo(utils.DB)

	previousAvatar, err := userRepo.UpdateProfile(userID.(string), fullName, avatarURL)
	if err != nil {
		if avatarURL != "" && services.GlobalAttachmentStorage != nil {
			services.GlobalAttachmentStorage.RemoveAvatar(avatarURL)
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.NotFound(c, "User not found")
			return
		}
		log.Printf("Failed to update profile for user %s: %v", userID, err)
		utils.InternalError(c, "Failed to update profile")
		return
	}

	if previousAvatar != "" && services.GlobalAttachmentStorage != nil {
		if err := services.GlobalAttachmentStorage.RemoveAvatar(previousAvatar); err != nil {
			log.Printf("Failed to remove replaced avatar %s: %v", previousAvatar, err)
		}
	}

	user, err := userRepo.FindUser(userID.(string))
	if err != nil || user == nil {
		utils.InternalError(c, "Could not fetch user details")
		return
	}

	baseURL := utils.GetBaseURL(c)
	links := map[string]dto.UserLink{
		"self": {Href: baseURL + "/user/profile", Method: http.MethodGet},
		"edit": {Href: baseURL + "/user/profile", Method: http.MethodPut},
	}

	utils.Success(c, dto.ToUserProfileResponse(user, links))
}
