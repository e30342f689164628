package handler

import (
	"context"

	"github.com/seroba/gallery-gate/internal/entitlement"
	"github.com/seroba/gallery-gate/internal/model"
)

// EntitlementResolver is the part of the entitlement resolver handlers
// depend on.  Tests substitute a canned implementation.
type EntitlementResolver interface {
	Resolve(ctx context.Context, channelID string, claims model.SessionClaims) entitlement.Result
}
