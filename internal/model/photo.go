package model

import "time"

// Photo models a row in the `photos` table.  The catalog itself is simple
// record keeping; the one field with an invariant is TipTotal, a running
// counter incremented atomically in the same transaction as the tip ledger
// entry so the two can never diverge.
type Photo struct {
	ID        uint64    // photos.id
	ChannelID string    // photos.channel_id
	Title     string    // photos.title
	URL       string    // photos.url
	TipTotal  int64     // photos.tip_total (derived, sum of tip ledger entries)
	CreatedAt time.Time // photos.created_at
}
