package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"bmrbridge/internal/logger"
	"bmrbridge/internal/service"
)

// Handler wires the HTTP layer to services, metrics and logging.
type Handler struct {
	services *service.Service
	metrics  http.Handler
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. metrics is
// the Prometheus exposition handler; nil disables the /metrics route.
func NewHandler(services *service.Service, metrics http.Handler, log *logger.Logger) *Handler {
	return &Handler{services: services, metrics: metrics, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket state push (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerControllerRoutes(api)
		h.registerCircuitRoutes(api)
		h.registerSwitchRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerControllerRoutes(api *gin.RouterGroup) {
	controller := api.Group("/controller")
	{
		controller.GET("/state", h.getControllerState)
		controller.POST("/refresh", h.requestRefresh)
	}
}

func (h *Handler) registerCircuitRoutes(api *gin.RouterGroup) {
	circuits := api.Group("/circuits")
	{
		circuits.GET("/:id/climate", h.getClimate)
		circuits.PUT("/:id/climate/mode", h.setClimateMode)
		circuits.PUT("/:id/climate/preset", h.setClimatePreset)
		circuits.PUT("/:id/climate/temperature", h.setClimateTemperature)
		circuits.GET("/:id/sensors", h.getCircuitSensors)
	}
}

func (h *Handler) registerSwitchRoutes(api *gin.RouterGroup) {
	switches := api.Group("/switches")
	{
		switches.GET("/away", h.getAwaySwitch)
		switches.PUT("/away", h.setAwaySwitch)
		switches.GET("/power", h.getPowerSwitch)
		switches.PUT("/power", h.setPowerSwitch)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
