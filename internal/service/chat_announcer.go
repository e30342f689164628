package service

import (
	"context"

	"github.com/seroba/gallery-gate/internal/tokenstore"
	"github.com/seroba/gallery-gate/internal/twitch"
)

// ChatAnnouncer posts purchase announcements to the channel's chat feed
// using the broadcaster's delegated credential.  Announcements are a pure
// side effect: callers fire them after the ledger write commits and only
// log failures.
type ChatAnnouncer struct {
	Tokens *tokenstore.Store
	API    *twitch.Client
}

// Announce sends one message to channelID's chat.  A channel whose
// broadcaster never connected simply yields ErrNoCredential, which the
// caller logs and ignores.
func (a *ChatAnnouncer) Announce(ctx context.Context, channelID, message string) error {
	cred, err := a.Tokens.GetValid(ctx, channelID)
	if err != nil {
		return err
	}
	return a.API.SendChatAnnouncement(ctx, cred.AccessToken, channelID, message)
}
