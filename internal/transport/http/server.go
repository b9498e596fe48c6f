package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"chatty-backend/internal/ai"
	appsvc "chatty-backend/internal/app"
	"chatty-backend/internal/bootstrap"
	"chatty-backend/internal/cache"
	"chatty-backend/internal/config"
	"chatty-backend/internal/platform/rabbitmq"
	"chatty-backend/internal/repository"
	"chatty-backend/internal/transport/http/handler"
	"chatty-backend/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	tokenRepo := repository.NewRefreshTokenRepository(app.MySQL)
	chatRepo := repository.NewChatRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	usageRepo := repository.NewUsageRecordRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		userRepo,
		tokenRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.AccessExpireMinute)*time.Minute,
		time.Duration(app.Config.Auth.RefreshExpireDay)*24*time.Hour,
	)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	usagePublisher := rabbitmq.NewUsagePublisher(app.MQConn, app.Config.RabbitMQ.UsageQueue)

	// No API key or explicit mock mode leaves the gateway out entirely; the
	// mock responder then answers every turn.
	var generator ai.Generator
	if app.Config.Gemini.APIKey != "" && !app.Config.Gemini.MockMode {
		generator = ai.NewGeminiClient(ai.GeminiConfig{
			BaseURL: app.Config.Gemini.BaseURL,
			APIKey:  app.Config.Gemini.APIKey,
			Model:   app.Config.Gemini.Model,
		})
	}

	chatService := appsvc.NewChatService(
		chatRepo,
		messageRepo,
		usageRepo,
		usagePublisher,
		historyCache,
		generator,
		app.Config.Chat.SystemPrompt,
		app.Config.Chat.MaxContext,
		app.Config.Chat.OwnershipPolicy == config.OwnershipStrict,
	)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService, app.Config.App.Env == "dev")

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)
	authGroup.PUT("/profile", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.UpdateProfile)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.GET("/chats", chatHandler.ListChats)
	chatGroup.GET("/chats/:id/messages", chatHandler.ListMessages)
	chatGroup.GET("/usage", chatHandler.ListUsage)
	chatGroup.DELETE("/chats/:id", chatHandler.DeleteChat)

	return router
}
