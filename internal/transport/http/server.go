package http

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/bootstrap"
	"pdfchat/internal/logger"
	mysqlClient "pdfchat/internal/platform/mysql"
	"pdfchat/internal/transport/http/handler"
	"pdfchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(logger.Component("http")), gin.Recovery())

	healthHandler := handler.NewHealthHandler(cfg.App.Name, cfg.App.Env, app.StartedAt, healthChecks(app))
	router.StaticFile("/", filepath.Join(cfg.App.StaticDir, "index.html"))
	router.GET("/healthz", healthHandler.Check)

	var docs handler.DocumentLister
	if app.Documents != nil {
		docs = app.Documents
	}
	var evals handler.EvaluationLister
	if app.Evaluations != nil {
		evals = app.Evaluations
	}

	chatHandler := handler.NewChatHandler(app.Chat, logger.Component("chat_handler"))
	uploadHandler := handler.NewUploadHandler(app.Uploads, docs, handler.DefaultMaxUploadBytes, logger.Component("upload_handler"))
	evaluationHandler := handler.NewEvaluationHandler(evals, logger.Component("evaluation_handler"))
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	api := router.Group("/api")
	limited := api.Group("")
	limited.Use(middleware.RateLimit(limiter))
	limited.POST("/upload", uploadHandler.Upload)
	limited.POST("/chat", chatHandler.Chat)

	api.GET("/documents", uploadHandler.ListDocuments)
	api.GET("/evaluations", evaluationHandler.List)

	return router
}

func healthChecks(app *bootstrap.App) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"vector_store": app.VectorStore.Ping,
	}
	if app.MySQL != nil {
		checks["mysql"] = func(ctx context.Context) error { return mysqlClient.Ping(ctx, app.MySQL) }
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}
	if app.MQConn != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if app.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	return checks
}
