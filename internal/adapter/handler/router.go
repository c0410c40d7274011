package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/shot-analyzer/pkg/config"
	pkgvalidator "github.com/johnquangdev/shot-analyzer/pkg/validator"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	analysisHandler *Analysis
	adminHandler    *Admin
	storageHandler  *Storage
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, analysisHandler *Analysis, adminHandler *Admin, storageHandler *Storage) *Router {
	return &Router{
		cfg:             cfg,
		analysisHandler: analysisHandler,
		adminHandler:    adminHandler,
		storageHandler:  storageHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	if e.Validator == nil {
		e.Validator = pkgvalidator.New()
	}

	// Health check endpoint
	e.GET("/health", rt.healthCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupAnalysisRoutes(v1)
	rt.setupAdminRoutes(v1)
}

// setupAnalysisRoutes configures shot analysis routes
func (rt *Router) setupAnalysisRoutes(g *echo.Group) {
	analyses := g.Group("/analyses")

	if rt.analysisHandler == nil {
		analyses.Any("*", rt.notImplemented)
		return
	}

	analyses.POST("", rt.analysisHandler.Submit)
	analyses.GET("/:id", rt.analysisHandler.Get)
	analyses.POST("/:id/reanalyze", rt.analysisHandler.Reanalyze)
	analyses.POST("/:id/cancel", rt.analysisHandler.Cancel)
	analyses.PUT("/:id/checklist", rt.analysisHandler.SubmitChecklist)
}

// setupAdminRoutes configures operator routes
func (rt *Router) setupAdminRoutes(g *echo.Group) {
	adminGroup := g.Group("/admin")

	if rt.adminHandler == nil {
		adminGroup.Any("*", rt.notImplemented)
		return
	}

	adminGroup.POST("/recompute", rt.adminHandler.Recompute)
	adminGroup.GET("/weights/:shot_type", rt.adminHandler.GetWeights)
	adminGroup.PUT("/weights/:shot_type", rt.adminHandler.PutWeights)

	if rt.storageHandler != nil {
		adminGroup.GET("/storage", rt.storageHandler.BucketInfo)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":  "This endpoint is not yet implemented",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	environment := "development"
	if rt.cfg != nil {
		environment = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": environment,
	})
}
