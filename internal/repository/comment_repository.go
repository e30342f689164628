package repository

import (
	"context"
	"database/sql"

	"github.com/seroba/gallery-gate/internal/model"
)

// CommentRepo provides access to paid-unlock comments.  Rows are only ever
// created through InsertTx inside the unlock ledger transaction; the
// moderation endpoint toggles the approved flag afterwards.
type CommentRepo struct{ db *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

// InsertTx persists a comment within the scope of an existing transaction.
// Comments start approved; the broadcaster hides them after the fact.
func (r *CommentRepo) InsertTx(ctx context.Context, tx *sql.Tx, channelID, authorID, body string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO comments (channel_id, author_id, body, approved) VALUES (?,?,?,1)",
		channelID, authorID, body)
	return err
}

// ListByChannel returns a channel's comments, newest first.  When
// approvedOnly is set, hidden comments are filtered out; the broadcaster's
// moderation view passes false to see everything.
func (r *CommentRepo) ListByChannel(ctx context.Context, channelID string, approvedOnly bool) ([]model.Comment, error) {
	q := "SELECT id, channel_id, author_id, body, approved, created_at FROM comments WHERE channel_id=?"
	if approvedOnly {
		q += " AND approved=1"
	}
	q += " ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	comments := make([]model.Comment, 0)
	for rows.Next() {
		var cm model.Comment
		if err := rows.Scan(&cm.ID, &cm.ChannelID, &cm.AuthorID, &cm.Body, &cm.Approved, &cm.CreatedAt); err != nil {
			return nil, err
		}
		cm.CreatedAt = cm.CreatedAt.UTC()
		comments = append(comments, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

// SetApproved toggles a comment's visibility.  The channel filter enforces
// that a broadcaster can only moderate their own channel; a mismatch reads
// as ErrNotFound.
func (r *CommentRepo) SetApproved(ctx context.Context, channelID string, id uint64, approved bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE comments SET approved=? WHERE id=? AND channel_id=?",
		approved, id, channelID)
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
