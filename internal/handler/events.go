package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seroba/gallery-gate/internal/fanout"
	"github.com/seroba/gallery-gate/internal/middleware"
)

// EventsHandler streams ledger state-change notifications to connected
// viewers over server-sent events, so open panels refresh without polling.
type EventsHandler struct {
	Hub *fanout.Hub
}

func NewEventsHandler(hub *fanout.Hub) *EventsHandler { return &EventsHandler{Hub: hub} }

// keepAliveInterval bounds how long a proxy sees no bytes on an idle stream.
const keepAliveInterval = 25 * time.Second

// Stream handles GET /v1/events.  The subscription is keyed by the channel
// in the verified session claims and torn down when the client goes away.
// Delivery is best-effort: a dropped event is healed by the client's next
// status or gallery fetch, which reads durable state.
func (h *EventsHandler) Stream(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	sub := h.Hub.Subscribe(claims.ChannelID)
	defer h.Hub.Unsubscribe(claims.ChannelID, sub)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	done := c.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(resp, ": keep-alive\n\n"); err != nil {
				return nil
			}
			resp.Flush()
		case ev := <-sub.Events():
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
