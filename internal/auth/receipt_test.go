package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signReceipt builds a receipt credential with the given data claim.
func signReceipt(t *testing.T, secret []byte, data map[string]interface{}) string {
	t.Helper()
	claims := jwt.MapClaims{
		"exp":  time.Now().Add(time.Hour).Unix(),
		"data": data,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestVerifyReceiptProductObject(t *testing.T) {
	token := signReceipt(t, testSecret, map[string]interface{}{
		"userId":        "payer-7",
		"product":       map[string]interface{}{"sku": "TIP_500"},
		"transactionId": "T1",
		"cost":          map[string]interface{}{"amount": 500},
	})
	got, err := VerifyReceipt(testSecret, token)
	if err != nil {
		t.Fatalf("expected valid receipt, got %v", err)
	}
	if got.SKU != "TIP_500" {
		t.Errorf("sku = %q, want TIP_500", got.SKU)
	}
	if got.PayerID != "payer-7" {
		t.Errorf("payer = %q, want payer-7", got.PayerID)
	}
	if got.TransactionID != "T1" {
		t.Errorf("transaction id = %q, want T1", got.TransactionID)
	}
	if got.CostUnits != 500 {
		t.Errorf("cost = %d, want 500", got.CostUnits)
	}
}

func TestVerifyReceiptProductString(t *testing.T) {
	// Older receipts carry the SKU as a bare string.
	token := signReceipt(t, testSecret, map[string]interface{}{
		"userId":  "payer-7",
		"product": "COMMENT_UNLOCK",
	})
	got, err := VerifyReceipt(testSecret, token)
	if err != nil {
		t.Fatalf("expected valid receipt, got %v", err)
	}
	if got.SKU != "COMMENT_UNLOCK" {
		t.Errorf("sku = %q, want COMMENT_UNLOCK", got.SKU)
	}
	if got.TransactionID != "" {
		t.Errorf("transaction id = %q, want empty", got.TransactionID)
	}
}

func TestVerifyReceiptRejections(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"missing payer":   {"product": "TIP_100"},
		"missing product": {"userId": "payer-7"},
		"product wrong shape": {
			"userId":  "payer-7",
			"product": map[string]interface{}{"name": "tip"},
		},
	}
	for name, data := range cases {
		if _, err := VerifyReceipt(testSecret, signReceipt(t, testSecret, data)); err != ErrInvalidReceipt {
			t.Errorf("%s: expected ErrInvalidReceipt, got %v", name, err)
		}
	}
}

func TestVerifyReceiptWrongSecret(t *testing.T) {
	other := []byte("fedcba9876543210fedcba9876543210")
	token := signReceipt(t, other, map[string]interface{}{
		"userId":  "payer-7",
		"product": "TIP_100",
	})
	if _, err := VerifyReceipt(testSecret, token); err != ErrInvalidReceipt {
		t.Fatalf("expected ErrInvalidReceipt for wrong signature, got %v", err)
	}
}

func TestVerifyReceiptNoDataClaim(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyReceipt(testSecret, signed); err != ErrInvalidReceipt {
		t.Fatalf("expected ErrInvalidReceipt without data claim, got %v", err)
	}
}

func TestReceiptFallbackKeyStable(t *testing.T) {
	if ReceiptFallbackKey("abc") != ReceiptFallbackKey("abc") {
		t.Error("fallback key must be deterministic")
	}
	if ReceiptFallbackKey("abc") == ReceiptFallbackKey("abd") {
		t.Error("different receipts must not share a fallback key")
	}
	if len(ReceiptFallbackKey("abc")) != 64 {
		t.Errorf("fallback key length = %d, want 64 hex chars", len(ReceiptFallbackKey("abc")))
	}
}
