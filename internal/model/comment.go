package model

import "time"

// Comment models a row in the `comments` table.  Comments exist only as the
// effect of a paid unlock: the insert happens in the same transaction as the
// unlock ledger entry.  Approved starts true and can be toggled by the
// broadcaster through the moderation endpoint.
type Comment struct {
	ID        uint64    // comments.id
	ChannelID string    // comments.channel_id
	AuthorID  string    // comments.author_id (the payer of the unlock)
	Body      string    // comments.body
	Approved  bool      // comments.approved
	CreatedAt time.Time // comments.created_at
}
