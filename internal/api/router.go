package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/haulmate/tracking-system/internal/api/handler"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

// Deps carries the wired services and infrastructure the router exposes.
type Deps struct {
	Mongo    *mongo.Database
	Redis    *redis.Client
	Tracking ports.TrackingService
	Replay   ports.ProximityService
	Feed     ports.NotificationFeed
	Store    ports.PositionStore
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("tracking"))

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	healthHandler := handler.NewHealthHandler(deps.Mongo, deps.Redis)
	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness)   // readiness – are dependencies up?

	// --- Handlers ---
	trackingHandler := handler.NewTrackingHandler(deps.Tracking, deps.Store)
	markerHandler := handler.NewMarkerHandler(deps.Replay)
	notificationHandler := handler.NewNotificationHandler(deps.Feed, deps.Log)

	v1 := e.Group("/v1")

	// --- Tracking sessions + position ingest ---
	v1.POST("/tracking/:subject_id/start", trackingHandler.Start)
	v1.POST("/tracking/:subject_id/stop", trackingHandler.Stop)
	v1.GET("/tracking/:subject_id", trackingHandler.Status)
	v1.POST("/positions", trackingHandler.Submit)
	v1.GET("/positions/:subject_id", trackingHandler.LastPosition)

	// --- Proximity markers ---
	v1.POST("/markers/:id/replay", markerHandler.Replay)

	// --- Notification feed ---
	v1.GET("/notifications", notificationHandler.List)
	v1.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	v1.POST("/notifications/:id/read", notificationHandler.MarkRead)
	v1.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	v1.GET("/notifications/sound", notificationHandler.Sound)
	v1.PUT("/notifications/sound", notificationHandler.SetSound)
	v1.GET("/notifications/stream", notificationHandler.Stream)

	return e
}
