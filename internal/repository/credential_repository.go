package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/seroba/gallery-gate/internal/model"
)

// CredentialRepo persists the delegated broadcaster credential (single row
// per channel, keyed by channel_id).
type CredentialRepo struct{ DB *sql.DB }

func NewCredentialRepo(db *sql.DB) *CredentialRepo { return &CredentialRepo{DB: db} }

// Get returns the credential stored for a channel, or ErrNotFound when the
// broadcaster has never completed authorization.
func (r *CredentialRepo) Get(ctx context.Context, channelID string) (*model.DelegatedCredential, error) {
	var (
		cred      model.DelegatedCredential
		expiresAt time.Time
		updatedAt time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT channel_id, access_token, refresh_token, expires_at, updated_at FROM channel_credentials WHERE channel_id=? LIMIT 1",
		channelID).Scan(&cred.ChannelID, &cred.AccessToken, &cred.RefreshToken, &expiresAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cred.ExpiresAt = expiresAt.UTC()
	cred.UpdatedAt = updatedAt.UTC()
	return &cred, nil
}

// Upsert writes the full (access, refresh, expiry) triple in one statement,
// keyed by channel_id. A single atomic write keeps concurrent refreshes
// last-writer-consistent: readers can never observe a new expiry paired
// with an old token or vice versa, and there is exactly one row per
// channel at all times.
func (r *CredentialRepo) Upsert(ctx context.Context, cred *model.DelegatedCredential) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO channel_credentials (channel_id, access_token, refresh_token, expires_at)
		 VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		        access_token=VALUES(access_token),
		        refresh_token=VALUES(refresh_token),
		        expires_at=VALUES(expires_at)`,
		cred.ChannelID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt.UTC())
	return err
}
