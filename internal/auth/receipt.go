package auth

import (
	"crypto/sha256" // digest of the signed receipt as fallback idempotency key
	"encoding/hex"  // hex encoding of the digest
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/seroba/gallery-gate/internal/model"
)

// ErrInvalidReceipt covers every way a purchase receipt can fail
// verification: bad signature, wrong algorithm, expired, or a payload that
// does not normalize into the expected shape (missing payer, missing SKU).
// A receipt failing verification must never apply any effect.
var ErrInvalidReceipt = errors.New("invalid receipt")

// VerifyReceipt validates a purchase receipt credential and normalizes its
// payload into a PurchaseReceipt.  The platform wraps the interesting fields
// in a "data" claim whose shape drifted across SDK versions: `product` is
// either an object carrying a `sku` or a bare SKU string, and older receipts
// omit `transactionId` and `cost`.  All accepted shapes are flattened here;
// anything else is ErrInvalidReceipt, so ad-hoc field probing never leaks
// past this function.
func VerifyReceipt(secret []byte, token string) (model.PurchaseReceipt, error) {
	if token == "" {
		return model.PurchaseReceipt{}, ErrInvalidReceipt
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return model.PurchaseReceipt{}, ErrInvalidReceipt
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return model.PurchaseReceipt{}, ErrInvalidReceipt
	}
	data, ok := claims["data"].(map[string]interface{})
	if !ok {
		return model.PurchaseReceipt{}, ErrInvalidReceipt
	}

	payerID, _ := data["userId"].(string)
	if payerID == "" {
		return model.PurchaseReceipt{}, ErrInvalidReceipt
	}

	var sku string
	switch p := data["product"].(type) {
	case string:
		sku = p
	case map[string]interface{}:
		sku, _ = p["sku"].(string)
	}
	if sku == "" {
		return model.PurchaseReceipt{}, ErrInvalidReceipt
	}

	out := model.PurchaseReceipt{SKU: sku, PayerID: payerID}
	if txn, ok := data["transactionId"].(string); ok {
		out.TransactionID = txn
	}
	// JSON numbers decode as float64 through MapClaims.
	if cost, ok := data["cost"].(map[string]interface{}); ok {
		if amount, ok := cost["amount"].(float64); ok {
			out.CostUnits = int64(amount)
		}
	}
	return out, nil
}

// ReceiptFallbackKey returns the SHA-256 hex digest of the signed receipt.
// It stands in as the idempotency key for receipts issued without a
// transaction id: an exact replay of the same signed token still
// deduplicates, while two distinct purchases of the same product never
// share a digest.
func ReceiptFallbackKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
