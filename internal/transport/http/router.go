package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/pacer-app/pacer/internal/transport/http/handler"
	"github.com/pacer-app/pacer/internal/transport/http/middleware"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, documentHandler *handler.DocumentHandler, sessionHandler *handler.SessionHandler, hmacKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(hmacKey)

	// Protected document routes
	documents := r.Group("/documents", authMW)
	documents.POST("", documentHandler.Create)
	documents.GET("", documentHandler.List)
	documents.GET("/:id", documentHandler.GetByID)
	documents.PUT("/:id", documentHandler.Update)
	documents.DELETE("/:id", documentHandler.Delete)
	documents.POST("/:id/build", documentHandler.Build)

	// Protected live-session routes
	sessions := r.Group("/sessions", authMW)
	sessions.POST("", sessionHandler.Create)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.POST("/:id/start", sessionHandler.Start)
	sessions.POST("/:id/pause", sessionHandler.Pause)
	sessions.POST("/:id/skip", sessionHandler.Skip)
	sessions.DELETE("/:id", sessionHandler.Delete)

	return r
}
