// Package tokenstore guarantees callers a non-expired delegated broadcaster
// credential, refreshing it through the upstream token endpoint when the
// stored one has run out.
package tokenstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/seroba/gallery-gate/internal/model"
	"github.com/seroba/gallery-gate/internal/repository"
	"github.com/seroba/gallery-gate/internal/twitch"
)

// ErrNoCredential is returned when a channel has no usable delegated
// credential: the broadcaster never completed authorization, or their
// refresh token was revoked upstream.  Callers surface this as "broadcaster
// must reconnect", never as a generic server error.
var ErrNoCredential = errors.New("no delegated credential")

// expiryMargin is subtracted from the upstream-reported lifetime so a
// credential handed out here cannot expire mid-use.
const expiryMargin = time.Minute

// CredentialRepo is the durable storage for delegated credentials.
type CredentialRepo interface {
	Get(ctx context.Context, channelID string) (*model.DelegatedCredential, error)
	Upsert(ctx context.Context, cred *model.DelegatedCredential) error
}

// Refresher performs the upstream refresh-token exchange.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (twitch.TokenResponse, error)
}

// Store hands out valid delegated credentials, one per channel.  The only
// mutual exclusion in the service lives here: two requests discovering an
// expired credential for the same channel serialize on a per-channel mutex
// so upstream sees one refresh, and the persisted write is a single atomic
// upsert so the last successful refresh wins cleanly.
type Store struct {
	repo      CredentialRepo
	refresher Refresher

	mu       sync.Mutex
	channels map[string]*sync.Mutex
	now      func() time.Time
}

// New returns a Store backed by the given repository and refresher.
func New(repo CredentialRepo, refresher Refresher) *Store {
	return &Store{
		repo:      repo,
		refresher: refresher,
		channels:  make(map[string]*sync.Mutex),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// lockFor returns the mutex guarding a channel's refresh path.
func (s *Store) lockFor(channelID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.channels[channelID]
	if !ok {
		l = &sync.Mutex{}
		s.channels[channelID] = l
	}
	return l
}

// Save records a freshly authorized credential for a channel.  ttlSeconds
// is the lifetime as reported by the token endpoint; the stored expiry is
// that lifetime minus the safety margin.  The write is an upsert, so
// re-authorization simply overwrites the previous row.
func (s *Store) Save(ctx context.Context, channelID, accessToken, refreshToken string, ttlSeconds int64) (*model.DelegatedCredential, error) {
	cred := &model.DelegatedCredential{
		ChannelID:    channelID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    s.now().Add(time.Duration(ttlSeconds)*time.Second - expiryMargin),
	}
	if err := s.repo.Upsert(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// GetValid returns the channel's delegated credential, refreshing it first
// when expired.  The happy path (credential still fresh) takes no lock.
func (s *Store) GetValid(ctx context.Context, channelID string) (*model.DelegatedCredential, error) {
	cred, err := s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !cred.Expired(s.now()) {
		return cred, nil
	}

	lock := s.lockFor(channelID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a concurrent request may have finished the
	// refresh while this one waited.
	cred, err = s.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !cred.Expired(s.now()) {
		return cred, nil
	}
	return s.refresh(ctx, cred)
}

// load fetches the stored credential, mapping a missing row to ErrNoCredential.
func (s *Store) load(ctx context.Context, channelID string) (*model.DelegatedCredential, error) {
	cred, err := s.repo.Get(ctx, channelID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// refresh rotates the credential through the upstream token endpoint and
// persists the new triple.  Transient upstream failures are retried once
// inline; a rejected grant means the refresh token is dead and the
// broadcaster must reconnect.
func (s *Store) refresh(ctx context.Context, cred *model.DelegatedCredential) (*model.DelegatedCredential, error) {
	if cred.RefreshToken == "" {
		return nil, ErrNoCredential
	}
	tok, err := s.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil && !errors.Is(err, twitch.ErrInvalidGrant) {
		tok, err = s.refresher.Refresh(ctx, cred.RefreshToken)
	}
	if errors.Is(err, twitch.ErrInvalidGrant) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, err
	}

	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		// Some token endpoints omit the refresh token when it is unchanged.
		refreshToken = cred.RefreshToken
	}
	updated := &model.DelegatedCredential{
		ChannelID:    cred.ChannelID,
		AccessToken:  tok.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    s.now().Add(time.Duration(tok.ExpiresIn)*time.Second - expiryMargin),
	}
	if err := s.repo.Upsert(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}
