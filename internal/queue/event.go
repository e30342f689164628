// Package queue defines message payloads exchanged over the message broker.
package queue

// PurchaseAppliedEvent is published after a purchase effect commits to the
// ledger.  It contains enough information for downstream consumers to log,
// reconcile, or trigger analytics without querying the primary database.
type PurchaseAppliedEvent struct {
	EntryID   uint64 `json:"entry_id"`
	ChannelID string `json:"channel_id"`
	Kind      string `json:"kind"`
	PayerID   string `json:"payer_id"`
	PhotoID   uint64 `json:"photo_id,omitempty"`
	Units     int64  `json:"units"`
	TxnKey    string `json:"txn_key"`
	AppliedAt string `json:"applied_at"`
}
