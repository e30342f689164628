package repository

import (
	"context"
	"database/sql"

	"github.com/seroba/gallery-gate/internal/model"
)

// PhotoRepo provides catalog operations for photos.  The catalog itself is
// plain record keeping; the tip_total column is the one exception and is
// only ever written through IncrementTipTotalTx inside a ledger
// transaction.
type PhotoRepo struct{ db *sql.DB }

func NewPhotoRepo(db *sql.DB) *PhotoRepo { return &PhotoRepo{db: db} }

// Create inserts a photo for a channel and populates the generated ID.
func (r *PhotoRepo) Create(ctx context.Context, p *model.Photo) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO photos (channel_id, title, url) VALUES (?,?,?)",
		p.ChannelID, p.Title, p.URL)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// ListByChannel returns all photos of a channel, newest first, including
// their running tip totals.
func (r *PhotoRepo) ListByChannel(ctx context.Context, channelID string) ([]model.Photo, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, channel_id, title, url, tip_total, created_at FROM photos WHERE channel_id=? ORDER BY created_at DESC, id DESC",
		channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	photos := make([]model.Photo, 0)
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(&p.ID, &p.ChannelID, &p.Title, &p.URL, &p.TipTotal, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return photos, nil
}

// Delete removes a photo belonging to the given channel.  Deleting another
// channel's photo is indistinguishable from deleting a missing one; both
// return ErrNotFound.  Ledger entries referencing the photo are kept: the
// ledger is append-only and the deletion is the catalog's concern.
func (r *PhotoRepo) Delete(ctx context.Context, channelID string, id uint64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM photos WHERE id=? AND channel_id=?", id, channelID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementTipTotalTx adds units to a photo's running tip total within the
// scope of an existing transaction.  The caller commits or rolls back.  An
// unknown photo (or one on a different channel) affects zero rows and
// returns ErrNotFound so the surrounding ledger insert is rolled back with
// it.
func (r *PhotoRepo) IncrementTipTotalTx(ctx context.Context, tx *sql.Tx, channelID string, id uint64, units int64) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE photos SET tip_total = tip_total + ? WHERE id=? AND channel_id=?",
		units, id, channelID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
