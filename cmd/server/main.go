package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sudhanshu-m21/task-tracker-api/internal/auth"
	"github.com/sudhanshu-m21/task-tracker-api/internal/config"
	"github.com/sudhanshu-m21/task-tracker-api/internal/database"
	"github.com/sudhanshu-m21/task-tracker-api/internal/handlers"
	"github.com/sudhanshu-m21/task-tracker-api/internal/middleware"
	"github.com/sudhanshu-m21/task-tracker-api/internal/repository"
	"github.com/sudhanshu-m21/task-tracker-api/internal/services"
	"github.com/sudhanshu-m21/task-tracker-api/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	if cfg.GinMode == "release" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}

	// Blob storage for uploaded documents
	blobs, err := storage.NewLocalBlobStore(cfg.UploadDir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize upload storage")
	}

	// Token manager
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize token manager")
	}

	// Repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo)
	docService := services.NewDocumentService(taskRepo, blobs)
	taskService := services.NewTaskService(taskRepo, userRepo, docService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService, docService)

	// Initialize Gin router
	r := gin.Default()
	r.Use(cors.Default())

	// Serve uploaded files
	r.Static("/uploads", blobs.Dir())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Task Tracker API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		// Task routes (authenticated)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(authService))
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.GET("/:id/documents/:docId", taskHandler.GetDocument)
			tasks.DELETE("/:id/documents/:docId", taskHandler.DeleteDocument)
		}

		// User routes (authenticated; roster management is admin only)
		users := api.Group("/users")
		users.Use(middleware.RequireAuth(authService))
		{
			users.GET("/me", userHandler.GetMe)
			users.PUT("/me", userHandler.UpdateMe)

			admin := users.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("", userHandler.ListUsers)
				admin.POST("", userHandler.CreateUser)
				admin.GET("/:id", userHandler.GetUser)
				admin.PUT("/:id", userHandler.UpdateUser)
				admin.DELETE("/:id", userHandler.DeleteUser)
			}
		}
	}

	// Start server
	logrus.WithField("port", cfg.Port).Info("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("failed to start server")
	}
}
