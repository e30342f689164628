package handler

import (
	"context"  // provides context with cancellation for upstream calls
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for the entitlement check

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/seroba/gallery-gate/internal/middleware"
)

// StatusHandler answers the session status probe the panel issues on load.
type StatusHandler struct {
	Resolver EntitlementResolver
}

func NewStatusHandler(r EntitlementResolver) *StatusHandler { return &StatusHandler{Resolver: r} }

// Status handles GET /v1/status.  It reports the verified identity and role
// from the session credential plus the current entitlement result, so the
// panel can decide what to render without a second round trip.
func (h *StatusHandler) Status(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res := h.Resolver.Resolve(ctx, claims.ChannelID, claims)
	return c.JSON(http.StatusOK, echo.Map{
		"viewer_id":      claims.UserID,
		"opaque_user_id": claims.OpaqueUserID,
		"role":           res.Role,
		"is_subscriber":  res.IsEntitled,
	})
}
