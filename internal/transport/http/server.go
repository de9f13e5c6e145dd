package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"docstack/internal/ai"
	appsvc "docstack/internal/app"
	"docstack/internal/bootstrap"
	"docstack/internal/cache"
	"docstack/internal/chunker"
	"docstack/internal/pkg/textnorm"
	"docstack/internal/platform/rabbitmq"
	"docstack/internal/repository"
	"docstack/internal/search"
	"docstack/internal/stage"
	"docstack/internal/transport/http/handler"
	"docstack/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	fileRepo := repository.NewFileRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	exchangeRepo := repository.NewExchangeRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)

	norm := textnorm.Normalizer{FixBoundarySpacing: app.Config.Pipeline.FixBoundarySpacing}
	splitter := chunker.NewSplitter(app.Config.Pipeline.AbbreviationsPath)
	blobStage := stage.NewLocalStage(app.Config.Stage.Name, app.Config.Stage.BaseDir, app.Config.Stage.SpoolDir)
	ingestService := appsvc.NewIngestService(
		fileRepo,
		chunkRepo,
		blobStage,
		chunker.New(splitter, norm),
		norm,
		app.Config.Pipeline.MaxChunkSize,
		slog.Default(),
	)

	// An external search service is optional; without one, ranking runs
	// against the chunk store directly.
	var backend search.Backend
	if app.Config.Search.BaseURL != "" {
		backend = search.NewRemoteBackend(search.RemoteConfig{
			BaseURL: app.Config.Search.BaseURL,
			APIKey:  app.Config.Search.APIKey,
		})
	} else {
		backend = search.NewLexicalBackend(chunkRepo)
	}

	exchangePublisher := rabbitmq.NewExchangePublisher(app.MQConn, app.Config.RabbitMQ.ExchangePersistQueue)
	exchangeCache := cache.NewExchangeCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	queryService := appsvc.NewQueryService(
		backend,
		ai.NewGenerationClient(),
		ai.GenerationConfig{
			BaseURL:     app.Config.Generation.BaseURL,
			APIKey:      app.Config.Generation.APIKey,
			Model:       app.Config.Generation.Model,
			Temperature: app.Config.Generation.Temperature,
			MaxTokens:   app.Config.Generation.MaxTokens,
		},
		exchangePublisher,
		exchangeCache,
		exchangeRepo,
		app.Config.Pipeline.RetryAttempts,
		time.Duration(app.Config.Pipeline.RetryDelaySeconds)*time.Second,
		app.Config.Pipeline.DefaultLimit,
		slog.Default(),
	)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(ingestService, fileRepo, chunkRepo)
	queryHandler := handler.NewQueryHandler(queryService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("", documentHandler.List)
	docGroup.GET("/:name/chunks", documentHandler.Chunks)

	queryGroup := v1.Group("/query")
	queryGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	queryGroup.POST("/ask", queryHandler.Ask)
	queryGroup.GET("/history", queryHandler.History)

	return router
}
