package model

import "time"

// Viewer roles as they appear in the "role" claim of a platform-issued
// session credential.  The platform signs the credential, so these values
// are trusted only after signature verification.
const (
	RoleViewer      = "viewer"
	RoleModerator   = "moderator"
	RoleBroadcaster = "broadcaster"
)

// ValidRole reports whether s is one of the three known roles.
func ValidRole(s string) bool {
	return s == RoleViewer || s == RoleModerator || s == RoleBroadcaster
}

// SessionClaims is the verified claim set of a session credential.  It is
// produced by the credential verifier and carried through the request
// context; it is never persisted.
//
// Fields:
//  ChannelID    – the channel the viewer's session is attached to.
//  OpaqueUserID – platform-assigned opaque identifier, always present.
//  UserID       – real platform user id; empty when the viewer has not
//                 shared their identity with the extension.
//  Role         – viewer, moderator or broadcaster.
//  IssuedAt     – when the credential was minted.
//  ExpiresAt    – when the credential stops being valid.
type SessionClaims struct {
	ChannelID    string
	OpaqueUserID string
	UserID       string
	Role         string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// IsAnonymous reports whether the viewer has withheld their identity.  An
// anonymous viewer can never pass an entitlement check, whatever their role
// claim says about identity consistency.
func (c SessionClaims) IsAnonymous() bool { return c.UserID == "" }

// IsStaff reports whether the claims carry a moderator or broadcaster role.
// Staff bypass the subscription entitlement check so the channel owner is
// never locked out of their own content.
func (c SessionClaims) IsStaff() bool {
	return c.Role == RoleModerator || c.Role == RoleBroadcaster
}
