package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social_chat/internal/config"
	"social_chat/internal/domain"
	"social_chat/internal/handler"
	"social_chat/internal/middleware"
	"social_chat/internal/repository"
	"social_chat/internal/service"
	"social_chat/internal/storage"
	"social_chat/internal/telemetry"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	var appLogger logger.Logger
	if cfg.IsProduction() {
		appLogger = logger.New(cfg.Log.Level)
	} else {
		appLogger = logger.NewDevelopment(cfg.Log.Level)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		appLogger.Fatal("Failed to init tracing", "error", err)
	}

	// Подключение к PostgreSQL
	dbPool, err := repository.NewPool(ctx, cfg.Database)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()
	appLogger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, dbPool, appLogger); err != nil {
			appLogger.Fatal("Failed to apply migrations", "error", err)
		}
	}

	// Подключение к Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	// Хранилище изображений
	blobs, err := storage.New(cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to init blob storage", "error", err)
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		appLogger.Fatal("Failed to prepare bucket", "error", err, "bucket", cfg.Storage.Bucket)
	}

	repos := repository.NewRepositories(dbPool, rdb, appLogger)
	services := service.NewServices(repos, blobs, cfg, appLogger)

	authMiddleware := middleware.NewAuthMiddleware(services.Auth, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, cfg.RateLimit, appLogger)

	handlers := handler.NewHandlers(services, cfg, map[string]handler.Pinger{
		"postgres": dbPool.Ping,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}, appLogger)

	router := setupRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	// Запуск HTTP сервера
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      otelhttp.NewHandler(router, "http.server"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.Info("Starting server", "addr", srv.Addr, "vote_policy", cfg.Chat.VotePolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Error("Failed to flush traces", "error", err)
	}

	appLogger.Info("Server exited")
}

func setupRouter(
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// Публичные endpoints
		api.POST("/register", rateLimitMiddleware.Limit(domain.RateLimitScopeRegister), handlers.Auth.Register)
		api.POST("/login", rateLimitMiddleware.Limit(domain.RateLimitScopeLogin), handlers.Auth.Login)
		api.POST("/token/refresh", handlers.Auth.RefreshToken)
		api.POST("/logout", handlers.Auth.Logout)

		stats := api.Group("/stats")
		{
			stats.GET("/posts", handlers.Stats.Daily(domain.StatsPosts))
			stats.GET("/likes", handlers.Stats.Daily(domain.StatsLikes))
			stats.GET("/dislikes", handlers.Stats.Daily(domain.StatsDislikes))
			stats.GET("/replies", handlers.Stats.Daily(domain.StatsReplies))
			stats.GET("/active", handlers.Stats.Daily(domain.StatsActive))
			stats.GET("/trending", handlers.Stats.Trending)
			stats.GET("/users/:id/messages", handlers.Stats.UserMessages)
			stats.GET("/messages/:id", handlers.Stats.MessageStats)
		}

		// браузерный websocket передает токен в query
		api.GET("/chat/:id/feed", authMiddleware.RequireAuthOrQuery(), handlers.Feed.Stream)

		// Защищенные endpoints
		protected := api.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			users := protected.Group("/users")
			{
				users.GET("", handlers.User.List)
				users.GET("/me", handlers.User.GetMe)
				users.PUT("/me", handlers.User.UpdateMe)
				users.GET("/:id", handlers.User.GetByID)
			}

			contacts := protected.Group("/contacts")
			{
				contacts.GET("", handlers.User.ListContacts)
				contacts.POST("", handlers.User.AddContact)
				contacts.DELETE("/:id", handlers.User.RemoveContact)
			}

			protected.GET("/chats", handlers.Chat.ListChats)
			protected.POST("/chats", handlers.Chat.CreateChat)

			chat := protected.Group("/chat/:id")
			{
				chat.GET("", handlers.Chat.GetChat)
				chat.DELETE("", handlers.Chat.DeleteChat)
				chat.GET("/members", handlers.Chat.GetMembers)
				chat.POST("/members", handlers.Chat.AddMember)
				chat.DELETE("/members/:userId", handlers.Chat.RemoveMember)
				chat.GET("/owner", handlers.Chat.GetOwner)
				chat.GET("/audit", handlers.Chat.GetAuditLog)

				chat.GET("/messages", handlers.Message.GetMessages)
				chat.POST("/messages", handlers.Message.PostMessage)
				chat.POST("/message/:messageId/reply", handlers.Message.PostReply)
				chat.POST("/message/:messageId/like", handlers.Message.Like)
				chat.POST("/message/:messageId/dislike", handlers.Message.Dislike)
			}
		}
	}

	return router
}
