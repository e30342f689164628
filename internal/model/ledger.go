package model

import "time"

// Ledger entry kinds.  A TIP credits Bits against a single photo; a
// COMMENT_UNLOCK records that the payer bought the right to post one
// comment on the channel.
const (
	LedgerKindTip    = "TIP"
	LedgerKindUnlock = "COMMENT_UNLOCK"
)

// LedgerEntry models a row in the append-only `ledger_entries` table.
// Exactly one row exists per distinct receipt; rows are never mutated or
// deleted by this service.  TxnKey carries the receipt's transaction id
// (or the receipt digest when no id was issued) and is unique, which is
// what makes duplicate application detectable at the database.
//
// Fields:
//  ID        – primary key.
//  ChannelID – channel the purchase happened on.
//  Kind      – LedgerKindTip or LedgerKindUnlock.
//  PayerID   – platform user id of the purchaser.
//  PhotoID   – target photo for tips; zero for unlock entries.
//  Units     – Bits value of the purchase.
//  TxnKey    – idempotency key, unique.
//  AppliedAt – when the effect was committed, UTC.
type LedgerEntry struct {
	ID        uint64    // ledger_entries.id
	ChannelID string    // ledger_entries.channel_id
	Kind      string    // ledger_entries.kind
	PayerID   string    // ledger_entries.payer_id
	PhotoID   uint64    // ledger_entries.photo_id (nullable, zero when absent)
	Units     int64     // ledger_entries.units
	TxnKey    string    // ledger_entries.txn_key (unique)
	AppliedAt time.Time // ledger_entries.applied_at
}
