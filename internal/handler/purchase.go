package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seroba/gallery-gate/internal/auth"
	"github.com/seroba/gallery-gate/internal/ledger"
	"github.com/seroba/gallery-gate/internal/middleware"
	"github.com/seroba/gallery-gate/internal/model"
	"github.com/seroba/gallery-gate/internal/repository"
)

// PurchaseApplier is the part of the ledger service this handler depends
// on.  Tests substitute a canned implementation.
type PurchaseApplier interface {
	Apply(ctx context.Context, channelID, signedReceipt string, in ledger.ApplyInput) (*model.LedgerEntry, bool, error)
}

// PurchaseHandler completes Bits purchases: the client presents the signed
// receipt it got from the platform and this endpoint applies its effect.
type PurchaseHandler struct {
	Ledger PurchaseApplier
}

func NewPurchaseHandler(l PurchaseApplier) *PurchaseHandler { return &PurchaseHandler{Ledger: l} }

// ----- DTOs -----

type purchaseReq struct {
	Receipt     string `json:"receipt"`
	PhotoID     uint64 `json:"photo_id"`
	CommentText string `json:"comment_text"`
}

// Complete handles POST /v1/purchase.  Replayed receipts (duplicate network
// retries) answer 200 with applied=false and move no counter; validation
// failures answer 400 with a coarse message and apply nothing.  Nothing in
// any response hints at why a receipt failed verification.
func (h *PurchaseHandler) Complete(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	entry, applied, err := h.Ledger.Apply(ctx, claims.ChannelID, req.Receipt, ledger.ApplyInput{
		PhotoID:     req.PhotoID,
		CommentText: req.CommentText,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidReceipt):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid receipt"})
		case errors.Is(err, ledger.ErrUnknownProduct):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown product"})
		case errors.Is(err, ledger.ErrMissingContext):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing purchase context"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown photo"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purchase failed, please retry"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"entry_id": entry.ID,
		"kind":     entry.Kind,
		"photo_id": entry.PhotoID,
		"units":    entry.Units,
		"applied":  applied,
	})
}
