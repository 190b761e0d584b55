package handler

import (
	"main/dto"
	"main/repository"
	"main/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetUserProfileHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	userRepo := repository.GetUserRepo(utils.DB)

	user, err := userRepo.FindUser(userID.(string))
	if err != nil {
		utils.InternalError(c, "Could not fetch user details")
		return
	}
	if user == nil {
		utils.NotFound(c, "User not found")
		return
	}

	baseURL := utils.GetBaseURL(c)
	links := map[string]dto.UserLink{
		"self":            {Href: baseURL + "/user/profile", Method: http.MethodGet},
		"edit":            {Href: baseURL + "/user/profile", Method: http.MethodPut},
		"change-password": {Href: baseURL + "/user/change-password", Method: http.MethodPost},
		"notes":           {Href: baseURL + "/notes", Method: http.MethodGet},
		"delete":          {Href: baseURL + "/user", Method: http.MethodDelete},
	}

	utils.Success(c, dto.ToUserProfileResponse(user, links))
}
