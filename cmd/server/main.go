package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/cache"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/handlers"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/httpx"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/live"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/mail"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/middleware"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/repository"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/service"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		AppName: "Chatify Backend",
		// Support image uploads up to 5MB + overhead.
		BodyLimit: 8 * 1024 * 1024, // 8MB
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	roomCache := cache.NewRoomCache(redisCache)

	// SMTP mailer (best-effort; auth flows degrade to logging without it)
	var mailer *mail.Mailer
	if m, err := mail.LoadMailerFromEnv(); err != nil {
		log.Printf("WARNING: SMTP not configured: %v. Emails will not be sent.", err)
	} else {
		mailer = m
		log.Println("SMTP mailer configured")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// Live change notifications for membership and room streams
	broker := live.NewBroker()

	// Initialize services
	var mailSender service.MailSender
	if mailer != nil {
		mailSender = mailer
	}
	authService := service.NewAuthService(userRepo, refreshTokenRepo, mailSender)
	userService := service.NewUserService(userRepo, roomRepo, membershipRepo, messageRepo, broker)
	roomService := service.NewRoomService(roomRepo, membershipRepo, messageRepo, roomCache, broker)
	messageService := service.NewMessageService(messageRepo, roomRepo, roomCache, broker)

	// Initialize S3/MinIO storage (best-effort; feature endpoints return 503 if missing)
	var s3Store *storage.S3Storage
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		s3Store = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	mediaService := service.NewMediaService(userService, roomService, s3Store)

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(broker, roomRepo, membershipRepo, messageRepo)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, mediaService)
	roomHandler := handlers.NewRoomHandler(roomService, mediaService, roomRepo, membershipRepo, messageRepo)
	messageHandler := handlers.NewMessageHandler(messageService)
	mediaHandler := handlers.NewMediaHandler(s3Store, mediaService)

	// Public routes
	api := app.Group("/api", middleware.OriginAllowed())
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/verify", authHandler.VerifyEmail)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Protected routes
	protected := api.Group("/", middleware.AuthRequired())
	protected.Get("/users/me", userHandler.Me)
	protected.Put("/users/me", userHandler.UpdateProfile)
	protected.Post(
		"/users/me/photo",
		limiter.New(limiter.Config{
			Max:        10,
			Expiration: 10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if uid, err := httpx.LocalUint(c, "userID"); err == nil {
					return "photo:" + strconv.FormatUint(uint64(uid), 10)
				}
				return c.IP()
			},
		}),
		userHandler.UploadPhoto,
	)

	// Room routes
	protected.Post("/rooms", roomHandler.Create)
	protected.Get("/rooms", roomHandler.List)
	protected.Get("/rooms/search", roomHandler.Search)
	protected.Get("/rooms/:room", roomHandler.Get)
	protected.Put("/rooms/:room", roomHandler.Update)
	protected.Delete("/rooms/:room", roomHandler.Delete)
	protected.Post("/rooms/:room/join", roomHandler.Join)
	protected.Post("/rooms/:room/leave", roomHandler.Leave)
	protected.Post("/rooms/:room/read", roomHandler.MarkRead)
	protected.Get("/rooms/:room/members", roomHandler.Members)
	protected.Post("/rooms/:room/photo", roomHandler.UploadPhoto)
	protected.Get("/rooms/:room/messages", messageHandler.List)
	protected.Post("/rooms/:room/messages", messageHandler.Send)

	// Media routes
	protected.Post("/media/messages/:room", mediaHandler.UploadAttachment)
	protected.Get("/media/*", mediaHandler.GetMedia)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Chatify is running",
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
