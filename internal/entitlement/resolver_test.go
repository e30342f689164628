package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seroba/gallery-gate/internal/model"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeTokens struct {
	cred *model.DelegatedCredential
	err  error
}

func (f *fakeTokens) GetValid(context.Context, string) (*model.DelegatedCredential, error) {
	return f.cred, f.err
}

type fakeSubs struct {
	calls      int
	subscribed bool
	err        error
}

func (f *fakeSubs) CheckSubscription(context.Context, string, string, string) (bool, error) {
	f.calls++
	return f.subscribed, f.err
}

func workingTokens() *fakeTokens {
	return &fakeTokens{cred: &model.DelegatedCredential{
		ChannelID:   "chan-1",
		AccessToken: "access",
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	}}
}

func claims(role, userID string) model.SessionClaims {
	return model.SessionClaims{ChannelID: "chan-1", OpaqueUserID: "U-op", UserID: userID, Role: role}
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

func TestResolveStaffBypassesUpstream(t *testing.T) {
	// Even a hard upstream failure must not lock out channel staff.
	subs := &fakeSubs{err: errors.New("upstream down")}
	r := New(&fakeTokens{err: errors.New("no credential")}, subs, nil)

	for _, role := range []string{model.RoleBroadcaster, model.RoleModerator} {
		res := r.Resolve(context.Background(), "chan-1", claims(role, "user-1"))
		if !res.IsEntitled {
			t.Errorf("role %s: expected entitled regardless of upstream", role)
		}
	}
	if subs.calls != 0 {
		t.Errorf("subscription checks = %d, want 0 for staff", subs.calls)
	}
}

func TestResolveAnonymousViewerNeverEntitled(t *testing.T) {
	// Identity sharing is mandatory, even when upstream would say yes.
	subs := &fakeSubs{subscribed: true}
	r := New(workingTokens(), subs, nil)

	res := r.Resolve(context.Background(), "chan-1", claims(model.RoleViewer, ""))
	if res.IsEntitled {
		t.Error("anonymous viewer must not be entitled")
	}
	if subs.calls != 0 {
		t.Errorf("subscription checks = %d, want 0 for anonymous viewers", subs.calls)
	}
}

func TestResolveSubscribedViewer(t *testing.T) {
	r := New(workingTokens(), &fakeSubs{subscribed: true}, nil)
	res := r.Resolve(context.Background(), "chan-1", claims(model.RoleViewer, "user-1"))
	if !res.IsEntitled {
		t.Error("subscribed viewer with shared identity must be entitled")
	}
	if res.Role != model.RoleViewer {
		t.Errorf("role = %q, want viewer", res.Role)
	}
}

func TestResolveUnsubscribedViewer(t *testing.T) {
	r := New(workingTokens(), &fakeSubs{subscribed: false}, nil)
	if res := r.Resolve(context.Background(), "chan-1", claims(model.RoleViewer, "user-1")); res.IsEntitled {
		t.Error("unsubscribed viewer must not be entitled")
	}
}

func TestResolveFailsClosedOnUpstreamError(t *testing.T) {
	r := New(workingTokens(), &fakeSubs{err: errors.New("timeout")}, nil)
	if res := r.Resolve(context.Background(), "chan-1", claims(model.RoleViewer, "user-1")); res.IsEntitled {
		t.Error("upstream failure must fail closed to not entitled")
	}
}

func TestResolveFailsClosedWithoutCredential(t *testing.T) {
	// Broadcaster never connected (or refresh token revoked): every viewer
	// on that channel fails closed.
	subs := &fakeSubs{subscribed: true}
	r := New(&fakeTokens{err: errors.New("no delegated credential")}, subs, nil)
	if res := r.Resolve(context.Background(), "chan-1", claims(model.RoleViewer, "user-1")); res.IsEntitled {
		t.Error("missing delegated credential must fail closed")
	}
	if subs.calls != 0 {
		t.Errorf("subscription checks = %d, want 0 without a credential", subs.calls)
	}
}

func TestResolveNegativeNotCachedAcrossCalls(t *testing.T) {
	// With no cache configured every call consults upstream, so a viewer who
	// just subscribed is recognized on the next request.
	subs := &fakeSubs{subscribed: false}
	r := New(workingTokens(), subs, nil)

	_ = r.Resolve(context.Background(), "chan-1", claims(model.RoleViewer, "user-1"))
	subs.subscribed = true
	res := r.Resolve(context.Background(), "chan-1", claims(model.RoleViewer, "user-1"))
	if !res.IsEntitled {
		t.Error("fresh subscription must be visible on the next request")
	}
	if subs.calls != 2 {
		t.Errorf("subscription checks = %d, want 2 (no negative caching)", subs.calls)
	}
}
