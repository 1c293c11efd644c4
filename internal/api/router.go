// internal/api/router.go
package api

import (
	"diagnosis-service/internal/api/handlers"
	"diagnosis-service/internal/api/middleware"
	"diagnosis-service/internal/core/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups every route handler of the service.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Statements *handlers.StatementHandler
	Market     *handlers.MarketHandler
	Diagnosis  *handlers.DiagnosisHandler
}

// NewRouter monta o roteador. Quando authService não é nil, as rotas de
// /api/v1 (exceto login) exigem um token Bearer.
func NewRouter(h Handlers, authService auth.Service, maxUploadBytes int64, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(logger))
	if maxUploadBytes > 0 {
		router.MaxMultipartMemory = maxUploadBytes
	}

	router.GET("/health", handlers.HandleHealth)

	apiV1 := router.Group("/api/v1")
	if h.Auth != nil {
		apiV1.POST("/login", h.Auth.Login)
	}

	protected := apiV1.Group("")
	if authService != nil {
		protected.Use(middleware.RequireAuth(authService))
	}
	{
		protected.POST("/statements/parse", h.Statements.HandleParse)
		protected.GET("/market/snapshot", h.Market.HandleSnapshot)
		protected.GET("/market/anbima", h.Market.HandleAnbima)
		protected.POST("/audio/transcribe", h.Diagnosis.HandleTranscribe)
		protected.POST("/diagnosis", h.Diagnosis.HandleGenerate)
	}

	return router
}
