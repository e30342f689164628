package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/seroba/gallery-gate/internal/config"
	"github.com/seroba/gallery-gate/internal/handler"    // import the handlers that implement business logic
	"github.com/seroba/gallery-gate/internal/middleware" // import middleware for session authentication and role enforcement
	"github.com/seroba/gallery-gate/internal/model"
)

// Handlers bundles every handler the API registers.  Wiring happens once
// in main; the router only decides which middleware guards which path.
type Handlers struct {
	Status   *handler.StatusHandler
	Gallery  *handler.GalleryHandler
	Purchase *handler.PurchaseHandler
	Comments *handler.CommentHandler
	OAuth    *handler.OAuthHandler
	Events   *handler.EventsHandler
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the extension API.  Every endpoint except the
// broadcaster's OAuth callback sits behind SessionAuth, so no handler ever
// sees an unverified role or identity.  The purchase endpoint additionally
// carries the Redis token-bucket limiter: it is the only write path a
// hostile client can drive with forged receipts, and rejecting floods
// before signature verification keeps that cheap.
func RegisterAPI(e *echo.Echo, sessionSecret []byte, rlCfg config.RateLimitConfig, rdb *redis.Client, h Handlers) {
	// The OAuth callback is reached by the broadcaster's browser on redirect
	// from the platform; there is no session credential in that request.
	e.GET("/v1/auth/callback", h.OAuth.Callback)

	v1 := e.Group("/v1")
	v1.Use(middleware.SessionAuth(sessionSecret))

	v1.GET("/status", h.Status.Status)
	v1.GET("/gallery", h.Gallery.List)
	v1.GET("/comments", h.Comments.List)
	v1.GET("/events", h.Events.Stream)
	v1.POST("/purchase", h.Purchase.Complete, middleware.NewTokenBucket(rlCfg, rdb))

	// Catalog writes and comment moderation belong to the channel owner.
	owner := v1.Group("", middleware.RequireRole(model.RoleBroadcaster))
	owner.POST("/photos", h.Gallery.Create)
	owner.DELETE("/photos/:id", h.Gallery.Delete)
	owner.PATCH("/comments/:id", h.Comments.Moderate)
}
