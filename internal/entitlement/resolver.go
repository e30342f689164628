// Package entitlement decides whether a viewer may see gated content.  The
// rules are fixed: channel staff always may, anonymous viewers never may,
// everyone else is asked upstream through the broadcaster's delegated
// credential.  Upstream trouble fails closed to "not entitled" and is never
// surfaced to the viewer as an error.
package entitlement

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seroba/gallery-gate/internal/model"
)

// TokenSource yields a valid delegated credential for a channel.
type TokenSource interface {
	GetValid(ctx context.Context, channelID string) (*model.DelegatedCredential, error)
}

// SubscriptionAPI asks upstream whether a user subscribes to a channel.
type SubscriptionAPI interface {
	CheckSubscription(ctx context.Context, accessToken, broadcasterID, userID string) (bool, error)
}

// Result is what a resolution produces: the verified role and whether the
// viewer is entitled to the channel's gated content.
type Result struct {
	Role       string `json:"role"`
	IsEntitled bool   `json:"is_entitled"`
}

// Resolver resolves entitlement for session claims.  The Redis client is
// optional: when present, positive results are cached briefly to spare the
// upstream API.  Negative results are never cached, so a viewer who just
// subscribed is recognized on their next request.
type Resolver struct {
	tokens   TokenSource
	api      SubscriptionAPI
	cache    *redis.Client
	cacheTTL time.Duration
}

// New returns a Resolver.  Pass a nil Redis client to disable caching.
func New(tokens TokenSource, api SubscriptionAPI, cache *redis.Client) *Resolver {
	return &Resolver{tokens: tokens, api: api, cache: cache, cacheTTL: time.Minute}
}

// Resolve applies the entitlement rules for one request.  It never returns
// an error: every failure mode collapses into a not-entitled result, which
// is the fail-closed, fail-soft policy protected content requires.
func (r *Resolver) Resolve(ctx context.Context, channelID string, claims model.SessionClaims) Result {
	// Channel staff bypass the subscription check unconditionally so the
	// broadcaster and moderators are never locked out while testing.
	if claims.IsStaff() {
		return Result{Role: claims.Role, IsEntitled: true}
	}
	// Identity sharing is mandatory for entitlement.  Product rule, not a bug.
	if claims.IsAnonymous() {
		return Result{Role: claims.Role}
	}

	key := "entitled:" + channelID + ":" + claims.UserID
	if r.cache != nil {
		if v, err := r.cache.Get(ctx, key).Result(); err == nil && v == "1" {
			return Result{Role: claims.Role, IsEntitled: true}
		}
	}

	cred, err := r.tokens.GetValid(ctx, channelID)
	if err != nil {
		// Includes the broadcaster-never-connected case: viewers just see
		// the gate, the broadcaster-facing flow reports the real problem.
		log.Printf("entitlement: no usable credential for channel %s: %v", channelID, err)
		return Result{Role: claims.Role}
	}
	subscribed, err := r.api.CheckSubscription(ctx, cred.AccessToken, channelID, claims.UserID)
	if err != nil {
		log.Printf("entitlement: subscription check failed for channel %s: %v", channelID, err)
		return Result{Role: claims.Role}
	}
	if subscribed && r.cache != nil {
		if err := r.cache.SetEx(ctx, key, "1", r.cacheTTL).Err(); err != nil {
			log.Printf("entitlement: cache write failed: %v", err)
		}
	}
	return Result{Role: claims.Role, IsEntitled: subscribed}
}
