package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/seroba/gallery-gate/internal/model"
)

// LedgerRepo owns the append-only ledger_entries table and the transactions
// that apply a purchase's effect.  Each Apply* method inserts the ledger
// entry and its side effect (counter increment or comment row) inside one
// transaction, so a crash between the two steps is impossible to observe
// as partial state.  The txn_key unique index is the idempotency guard:
// a replayed receipt surfaces as ErrDuplicate before any counter moves.
type LedgerRepo struct {
	db       *sql.DB
	photos   *PhotoRepo
	comments *CommentRepo
}

// NewLedgerRepo returns a LedgerRepo composing the photo and comment
// repositories for their transactional helpers.
func NewLedgerRepo(db *sql.DB, photos *PhotoRepo, comments *CommentRepo) *LedgerRepo {
	return &LedgerRepo{db: db, photos: photos, comments: comments}
}

// DB exposes the underlying handle for callers that need to open their own
// transactions.
func (r *LedgerRepo) DB() *sql.DB { return r.db }

// insertTx appends one ledger entry within the given transaction and
// populates the generated ID.  A unique-key violation on txn_key maps to
// ErrDuplicate.
func (r *LedgerRepo) insertTx(ctx context.Context, tx *sql.Tx, rec *model.LedgerEntry) error {
	var photoID interface{}
	if rec.PhotoID != 0 {
		photoID = rec.PhotoID
	}
	result, err := tx.ExecContext(ctx,
		"INSERT INTO ledger_entries (channel_id, kind, payer_id, photo_id, units, txn_key) VALUES (?,?,?,?,?,?)",
		rec.ChannelID, rec.Kind, rec.PayerID, photoID, rec.Units, rec.TxnKey)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	rec.AppliedAt = time.Now().UTC()
	return nil
}

// ApplyTip appends a tip entry and increments the target photo's running
// tip total in the same transaction.  Returns ErrDuplicate when the
// receipt was already applied and ErrNotFound when the photo does not
// exist on the channel.
func (r *LedgerRepo) ApplyTip(ctx context.Context, rec *model.LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.insertTx(ctx, tx, rec); err != nil {
		return err
	}
	if err := r.photos.IncrementTipTotalTx(ctx, tx, rec.ChannelID, rec.PhotoID, rec.Units); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplyUnlock appends a paid-unlock entry and persists the unlocked comment
// as authored by the payer, both in one transaction.  Returns ErrDuplicate
// when the receipt was already applied.
func (r *LedgerRepo) ApplyUnlock(ctx context.Context, rec *model.LedgerEntry, body string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.insertTx(ctx, tx, rec); err != nil {
		return err
	}
	if err := r.comments.InsertTx(ctx, tx, rec.ChannelID, rec.PayerID, body); err != nil {
		return err
	}
	return tx.Commit()
}

// FindByTxnKey returns the ledger entry previously applied for the given
// idempotency key on a channel, or ErrNotFound.
func (r *LedgerRepo) FindByTxnKey(ctx context.Context, channelID, txnKey string) (*model.LedgerEntry, error) {
	var (
		rec     model.LedgerEntry
		photoID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, channel_id, kind, payer_id, photo_id, units, txn_key, applied_at FROM ledger_entries WHERE channel_id=? AND txn_key=? LIMIT 1",
		channelID, txnKey).Scan(&rec.ID, &rec.ChannelID, &rec.Kind, &rec.PayerID, &photoID, &rec.Units, &rec.TxnKey, &rec.AppliedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if photoID.Valid {
		rec.PhotoID = uint64(photoID.Int64)
	}
	rec.AppliedAt = rec.AppliedAt.UTC()
	return &rec, nil
}
