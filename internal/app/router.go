package app

import (
	"log"
	"time"

	"soundrise/internal/cache"
	"soundrise/internal/config"
	"soundrise/internal/middleware"
	"soundrise/internal/model"
	"soundrise/internal/repository"
	"soundrise/internal/service"
	"soundrise/internal/util"
	"soundrise/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	// Set Gin mode
	if cfg.ServerPort == "5000" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	registerValidators()

	// CORS middleware
	r.Use(corsMiddleware(cfg.ClientURL))

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&model.User{},
		&model.Artist{},
		&model.Track{},
		&model.Merch{},
		&model.Follow{},
		&model.Interaction{},
		&model.Notification{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// Initialize Redis with retry logic
	redisClient := initRedisWithRetry(cfg)

	// Initialize RabbitMQ with retry logic
	rabbitMQ := initRabbitMQWithRetry(cfg)

	// Initialize repositories
	store := repository.NewStore(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db, redisClient)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	// Initialize services
	interactionCache := cache.NewInteractionCache(redisClient, cfg)
	dispatcher := service.NewDispatcher(cfg.SideEffectWorkers, cfg.SideEffectQueueSize)
	sanitizer := service.NewSanitizer(cfg.ProfanityWords)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, rabbitMQ)
	notificationService.SetWSHub(wsHub)
	viralityService := service.NewViralityService(store, interactionCache, notificationService, cfg)
	mentionService := service.NewMentionService(userRepo, notificationService)
	toggleService := service.NewToggleService(store, interactionCache, wsHub, dispatcher, viralityService, notificationService, cfg)
	commentService := service.NewCommentService(store, userRepo, interactionCache, wsHub, dispatcher, notificationService, viralityService, mentionService, sanitizer, cfg)
	metadataService := service.NewMetadataService(store)
	engagementService := service.NewEngagementService(store, interactionCache, dispatcher, viralityService)

	// Initialize notification worker if RabbitMQ is available
	if rabbitMQ != nil {
		notificationWorker := service.NewNotificationWorker(rabbitMQ, wsHub)
		if err := notificationWorker.Start(); err != nil {
			log.Printf("Warning: Failed to start notification worker: %v", err)
		} else {
			log.Println("Notification worker started successfully")
		}
	}

	// Initialize handlers
	toggleHandler := NewToggleHandler(toggleService)
	commentHandler := NewCommentHandler(commentService)
	metadataHandler := NewMetadataHandler(metadataService)
	engagementHandler := NewEngagementHandler(engagementService)
	notificationHandler := NewNotificationHandler(notificationService)

	authRequired := middleware.AuthMiddleware(cfg.JWTSecret)
	authOptional := middleware.OptionalAuthMiddleware(cfg.JWTSecret)

	// API routes
	api := r.Group("/api/v1")

	// Rate limiting middleware (if enabled). Applied after optional auth so
	// authenticated callers are limited per user instead of per IP.
	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		api.Use(authOptional, rateLimiter.Middleware())
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	{
		// Toggle routes
		interactions := api.Group("/interactions")
		interactions.Use(authRequired)
		{
			interactions.POST("/:kind/:id/toggle", toggleHandler.Toggle)
			interactions.POST("/:kind/:id/toggle/durable", toggleHandler.ToggleDurable)
			interactions.GET("/:kind/:id/status", toggleHandler.GetStatus)
		}

		// Comment thread routes, scoped to their content item
		contents := api.Group("/contents")
		{
			contents.GET("/:kind/:id/comments", authOptional, commentHandler.ListComments)
			contents.POST("/:kind/:id/comments", authRequired, commentHandler.CreateComment)
		}

		// Comment entity routes
		comments := api.Group("/comments")
		comments.Use(authRequired)
		{
			comments.PUT("/:id", commentHandler.UpdateComment)
			comments.DELETE("/:id", commentHandler.DeleteComment)
			comments.POST("/:id/hide", commentHandler.HideComment)
			comments.POST("/:id/report", commentHandler.ReportComment)
			comments.POST("/:id/react", commentHandler.ReactToComment)
		}

		// Batch metadata route
		api.POST("/metadata/:kind", authOptional, metadataHandler.BatchMetadata)

		// Engagement routes
		tracks := api.Group("/tracks")
		tracks.Use(authRequired)
		{
			tracks.POST("/:id/share", engagementHandler.RecordShare)
			tracks.POST("/:id/view", engagementHandler.RecordView)
			tracks.POST("/:id/download", engagementHandler.RecordDownload)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		notifications.Use(authRequired)
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.GET("/unread/count", notificationHandler.GetUnreadCount)
			notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
			notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
		}
	}

	// WebSocket route
	r.GET("/ws", func(c *gin.Context) {
		websocket.ServeWS(wsHub, cfg.JWTSecret, cfg.ClientURL).ServeHTTP(c.Writer, c.Request)
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "host=" + cfg.PostgresHost +
			" port=" + cfg.PostgresPort +
			" user=" + cfg.PostgresUser +
			" password=" + cfg.PostgresPassword +
			" dbname=" + cfg.PostgresDB +
			" sslmode=" + cfg.PostgresSSLMode
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// initRabbitMQWithRetry attempts to connect to RabbitMQ with exponential backoff retry
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		rabbitMQ, err := util.NewRabbitMQClient(cfg)
		if err == nil {
			log.Printf("RabbitMQ connected successfully on attempt %d", attempt)
			return rabbitMQ
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to RabbitMQ after %d attempts: %v. Queued notification delivery will be disabled.", maxRetries, err)
			log.Println("Note: Notifications will still be persisted and pushed over websocket")
		}
	}

	return nil
}

// initRedisWithRetry attempts to connect to Redis with exponential backoff retry
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		redisClient, err := util.NewRedisClient(cfg)
		if err == nil {
			log.Printf("Redis connected successfully on attempt %d", attempt)
			return redisClient
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to Redis (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to Redis after %d attempts: %v. Fast-path toggles will fall back to the database.", maxRetries, err)
		}
	}

	return nil
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	// Allowed origins (whitelist)
	allowedOrigins := []string{
		clientURL, // Default from config
		"http://localhost:3000",
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", clientURL)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
