package model

import "time"

// DelegatedCredential models a row in the `channel_credentials` table.
// There is exactly one row per channel: it is created when the broadcaster
// completes the authorization-code flow and overwritten in place on every
// refresh or re-authorization.  ExpiresAt already includes the safety
// margin subtracted from the upstream-reported lifetime, so a credential
// that reads as valid here will not expire mid-use.
//
// Fields:
//  ChannelID    – unique key; the broadcaster's channel.
//  AccessToken  – bearer token for upstream API calls on the broadcaster's behalf.
//  RefreshToken – used to rotate the access token when it expires.
//  ExpiresAt    – effective expiry (upstream expiry minus margin), UTC.
//  UpdatedAt    – timestamp of the last successful write.
type DelegatedCredential struct {
	ChannelID    string    // channel_credentials.channel_id
	AccessToken  string    // channel_credentials.access_token
	RefreshToken string    // channel_credentials.refresh_token
	ExpiresAt    time.Time // channel_credentials.expires_at
	UpdatedAt    time.Time // channel_credentials.updated_at
}

// Expired reports whether the credential should be refreshed before use.
func (c DelegatedCredential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
