package main

import (
	"fmt"
	"log"
	"os"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file found, relying on environment")
	}

	// Check required environment variables
	requiredEnvVars := []string{
		"JWT_SECRET_KEY",
		"JWT_EXPIRATION_TIME",
		"REFRESH_TOKEN_EXPIRATION_TIME",
	}

	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	utils.InitValidator()
	utils.InitJWT()
	utils.InitDB()
}

func setupRouter() *gin.Engine {
	router := gin.Default()

	sessionStore := services.GlobalSessionStore
	notesRepo := repository.GetNotesRepo(utils.DB)
	userRepo := repository.GetUserRepo(utils.DB)
	attachmentsRepo := repository.GetAttachmentsRepo(utils.DB)

	statsHandler := handler.NewStatsHandler(userRepo, notesRepo, attachmentsRepo, sessionStore)

	router.Use(middleware.EnhancedRecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestSizeLimiter(32 << 20))
	router.Use(middleware.SessionMiddleware(sessionStore))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", handler.RegistrationHandler)
			auth.POST("/login", handler.LoginHandler)
			auth.POST("/refresh", handler.RefreshTokenHandler)
			auth.POST("/forgot-password", handler.ResetPasswordHandler)
		}
	}

	// Protected routes (authentication required)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		// User management
		user := protected.Group("/user")
		{
			user.GET("/profile", handler.GetUserProfileHandler)
			user.PUT("/profile", handler.UpdateProfileHandler)
			user.POST("/change-password", handler.ChangePasswordHandler)
			user.POST("/logout", handler.LogoutHandler)
			user.DELETE("/delete", handler.DeleteUserHandler)
		}

		// Session management endpoints
		sessions := protected.Group("/sessions")
		{
			sessions.GET("/current", handler.GetSessionHandler)
			sessions.POST("/logout-all", handler.EndAllSessionsHandler)
		}

		// Notes endpoints
		notes := protected.Group("/notes")
		{
			notes.GET("", handler.ListNotesHandler)
			notes.GET("/search", handler.SearchNotesHandler)
			notes.GET("/paged", handler.PagedNotesHandler)

			notes.POST("", handler.CreateNoteHandler)
			notes.DELETE("", handler.ClearNotesHandler)
			notes.GET("/:id", handler.GetNoteHandler)
			notes.PUT("/:id", handler.UpdateNoteHandler)
			notes.DELETE("/:id", handler.DeleteNoteHandler)

			notes.GET("/:id/full", handler.GetNoteWithAttachmentsHandler)
			notes.GET("/:id/attachments", handler.ListAttachmentsHandler)
			notes.POST("/:id/attachments", handler.UploadAttachmentHandler)
			notes.POST("/:id/attachments/rescan", handler.RescanAttachmentsHandler)
		}

		// Attachment endpoints addressed by attachment ID
		attachments := protected.Group("/attachments")
		{
			attachments.DELETE("/:id", handler.DeleteAttachmentHandler)
		}

		// Stats endpoints
		stats := protected.Group("/stats")
		{
			stats.GET("/user", statsHandler.GetUserStats)
			stats.GET("/system", middleware.CacheControlMiddleware("15"), statsHandler.GetSystemStats)
		}
	}

	return router
}

func main() {
	storageConfig := config.LoadStorageConfig()
	redisConfig := config.LoadRedisConfig()

	if err := repository.SetupDatabase(utils.DB); err != nil {
		log.Fatalf("Failed to set up database: %v", err)
	}

	storage, err := services.NewAttachmentStorage(storageConfig.Root)
	if err != nil {
		log.Fatalf("Failed to set up attachment storage: %v", err)
	}
	services.GlobalAttachmentStorage = storage

	sessionStore, err := services.NewSessionStore(redisConfig.URL)
	if err != nil {
		log.Fatalf("Failed to connect to session store: %v", err)
	}
	services.GlobalSessionStore = sessionStore
	sessionStore.StartCleanupTask()

	blacklist, err := services.NewTokenBlacklist(redisConfig.URL)
	if err != nil {
		log.Fatalf("Failed to connect to token blacklist: %v", err)
	}
	services.TokenBlacklist = blacklist

	router := setupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	serverAddr := fmt.Sprintf(":%s", port)
	log.Printf("Server starting on %s", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
