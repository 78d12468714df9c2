package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"docvault/internal/ai"
	appsvc "docvault/internal/app"
	"docvault/internal/bootstrap"
	"docvault/internal/cache"
	"docvault/internal/platform/rabbitmq"
	"docvault/internal/repository"
	"docvault/internal/transport/http/handler"
	"docvault/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	accountRepo := repository.NewAccountRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	documentRepo := repository.NewDocumentRepository(app.MySQL)

	authService := appsvc.NewAuthService(accountRepo)
	sessionService := appsvc.NewSessionService(
		sessionRepo,
		cache.NewSessionCache(app.Redis),
		time.Duration(app.Config.Auth.SessionTTLHours)*time.Hour,
	)

	llmClient := ai.NewOpenAICompatibleClient(ai.ClientConfig{
		BaseURL:        app.Config.LLM.BaseURL,
		APIKey:         app.Config.LLM.APIKey,
		Model:          app.Config.LLM.Model,
		EmbeddingModel: app.Config.LLM.EmbeddingModel,
	})
	cleanupPublisher := rabbitmq.NewCleanupPublisher(app.MQConn, app.Config.RabbitMQ.CleanupQueue)

	retrievalService := appsvc.NewRetrievalService(
		documentRepo,
		app.VectorIndex,
		llmClient,
		cleanupPublisher,
		appsvc.RetrievalConfig{
			MaxUploadBytes:   app.Config.Ingest.MaxUploadBytes,
			ChunkSize:        app.Config.Ingest.ChunkSize,
			ChunkOverlap:     app.Config.Ingest.ChunkOverlap,
			TopK:             app.Config.Ingest.TopK,
			EmbedBatchSize:   app.Config.Ingest.EmbedBatchSize,
			EmbedConcurrency: app.Config.Ingest.EmbedConcurrency,
			QueryRetries:     app.Config.Ingest.QueryRetries,
		},
	)

	authHandler := handler.NewAuthHandler(authService, sessionService)
	documentHandler := handler.NewDocumentHandler(retrievalService, app.Config.Ingest.MaxUploadBytes)
	queryHandler := handler.NewQueryHandler(retrievalService, llmClient)

	requireSession := middleware.AuthSession(sessionService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", requireSession, authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(requireSession)
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("", documentHandler.List)
	docGroup.DELETE("/:id", documentHandler.Delete)

	v1.POST("/query", requireSession, queryHandler.Ask)

	return router
}
