// Package ledger verifies purchase receipts and applies their effects to
// durable state exactly once per receipt.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/seroba/gallery-gate/internal/auth"
	"github.com/seroba/gallery-gate/internal/fanout"
	"github.com/seroba/gallery-gate/internal/model"
	"github.com/seroba/gallery-gate/internal/queue"
	"github.com/seroba/gallery-gate/internal/repository"
)

// ErrUnknownProduct is returned for a verified receipt whose SKU matches no
// product family this service sells.
var ErrUnknownProduct = errors.New("unknown product")

// ErrMissingContext is returned when a receipt is valid but the request
// lacks the context its effect needs: a tip without a target photo, or an
// unlock without comment text (or with text over the length bound).
var ErrMissingContext = errors.New("missing purchase context")

const (
	tipSKUPrefix  = "TIP_"
	unlockSKU     = "COMMENT_UNLOCK"
	maxCommentLen = 500
	// event types pushed to connected viewers
	eventTip    = "tip"
	eventUnlock = "comment_unlock"
)

// Store applies verified purchase effects atomically.  The SQL
// implementation lives in the repository package; tests substitute an
// in-memory fake.
type Store interface {
	ApplyTip(ctx context.Context, entry *model.LedgerEntry) error
	ApplyUnlock(ctx context.Context, entry *model.LedgerEntry, body string) error
	FindByTxnKey(ctx context.Context, channelID, txnKey string) (*model.LedgerEntry, error)
}

// Notifier fans a state-change event out to the channel's connected viewers.
type Notifier interface {
	Publish(channelID string, ev fanout.Event)
}

// Announcer posts a best-effort message to the channel's chat feed.
type Announcer interface {
	Announce(ctx context.Context, channelID, message string) error
}

// AuditSink publishes the applied purchase to the audit queue.
type AuditSink func(ctx context.Context, event queue.PurchaseAppliedEvent) error

// ApplyInput carries the request context a purchase effect may need.
type ApplyInput struct {
	PhotoID     uint64
	CommentText string
}

// Service is the receipt verifier and ledger.  notify, chat and audit are
// optional; a nil value simply disables that side effect.
type Service struct {
	secret []byte
	store  Store
	notify Notifier
	chat   Announcer
	audit  AuditSink
}

// New returns a Service verifying receipts against the given secret.
func New(secret []byte, store Store, notify Notifier, chat Announcer, audit AuditSink) *Service {
	return &Service{secret: secret, store: store, notify: notify, chat: chat, audit: audit}
}

// Apply verifies a signed receipt and applies its effect to the channel's
// durable state.  The returned bool reports whether the effect was applied
// by this call: a replayed receipt (same transaction identity) returns the
// original entry with false and moves no counter, which is the idempotency
// guarantee duplicate network retries rely on.  Side effects (fan-out, chat
// announcement, audit event) are dispatched only after the durable write
// commits and never gate the result.
func (s *Service) Apply(ctx context.Context, channelID, signedReceipt string, in ApplyInput) (*model.LedgerEntry, bool, error) {
	receipt, err := auth.VerifyReceipt(s.secret, signedReceipt)
	if err != nil {
		return nil, false, err
	}

	txnKey := receipt.TransactionID
	if txnKey == "" {
		txnKey = auth.ReceiptFallbackKey(signedReceipt)
	}
	entry := &model.LedgerEntry{
		ChannelID: channelID,
		PayerID:   receipt.PayerID,
		TxnKey:    txnKey,
		AppliedAt: time.Now().UTC(),
	}

	switch {
	case strings.HasPrefix(receipt.SKU, tipSKUPrefix):
		units, perr := strconv.ParseInt(strings.TrimPrefix(receipt.SKU, tipSKUPrefix), 10, 64)
		if perr != nil || units <= 0 {
			return nil, false, ErrUnknownProduct
		}
		if in.PhotoID == 0 {
			return nil, false, ErrMissingContext
		}
		entry.Kind = model.LedgerKindTip
		entry.PhotoID = in.PhotoID
		entry.Units = units
		err = s.store.ApplyTip(ctx, entry)

	case receipt.SKU == unlockSKU:
		body := strings.TrimSpace(in.CommentText)
		if body == "" || len(body) > maxCommentLen {
			return nil, false, ErrMissingContext
		}
		entry.Kind = model.LedgerKindUnlock
		entry.Units = receipt.CostUnits
		err = s.store.ApplyUnlock(ctx, entry, body)

	default:
		return nil, false, ErrUnknownProduct
	}

	if errors.Is(err, repository.ErrDuplicate) {
		prev, ferr := s.store.FindByTxnKey(ctx, channelID, txnKey)
		if ferr != nil {
			return nil, false, ferr
		}
		return prev, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.afterApply(entry)
	return entry, true, nil
}

// afterApply dispatches the post-commit side effects.  Fan-out delivery is
// already non-blocking; the chat announcement and audit publish run on
// their own goroutines with their own timeouts because the request that
// triggered them may be gone before they finish.
func (s *Service) afterApply(entry *model.LedgerEntry) {
	if s.notify != nil {
		ev := fanout.Event{Type: eventTip, PhotoID: entry.PhotoID, Units: entry.Units}
		if entry.Kind == model.LedgerKindUnlock {
			ev.Type = eventUnlock
		}
		s.notify.Publish(entry.ChannelID, ev)
	}
	if s.audit != nil {
		event := queue.PurchaseAppliedEvent{
			EntryID:   entry.ID,
			ChannelID: entry.ChannelID,
			Kind:      entry.Kind,
			PayerID:   entry.PayerID,
			PhotoID:   entry.PhotoID,
			Units:     entry.Units,
			TxnKey:    entry.TxnKey,
			AppliedAt: entry.AppliedAt.Format(time.RFC3339),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.audit(ctx, event); err != nil {
				log.Printf("ledger: audit publish failed: %v", err)
			}
		}()
	}
	if s.chat != nil {
		message := announcement(entry)
		channelID := entry.ChannelID
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.chat.Announce(ctx, channelID, message); err != nil {
				log.Printf("ledger: chat announce failed: %v", err)
			}
		}()
	}
}

// announcement renders the chat message for an applied purchase.
func announcement(entry *model.LedgerEntry) string {
	if entry.Kind == model.LedgerKindTip {
		return fmt.Sprintf("A viewer tipped %d Bits on a gallery photo!", entry.Units)
	}
	return "A viewer unlocked a gallery comment with Bits!"
}
