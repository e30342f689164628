package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// signSession builds a session credential the way the platform would.
func signSession(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func sessionClaims(exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"channel_id":     "chan-1",
		"opaque_user_id": "U-opaque",
		"user_id":        "user-42",
		"role":           "viewer",
		"exp":            exp.Unix(),
		"iat":            time.Now().UTC().Unix(),
	}
}

func TestVerifySessionValid(t *testing.T) {
	token := signSession(t, testSecret, sessionClaims(time.Now().Add(time.Hour)))
	got, err := VerifySession(testSecret, token)
	if err != nil {
		t.Fatalf("expected valid session, got %v", err)
	}
	if got.ChannelID != "chan-1" {
		t.Errorf("channel_id = %q, want chan-1", got.ChannelID)
	}
	if got.UserID != "user-42" {
		t.Errorf("user_id = %q, want user-42", got.UserID)
	}
	if got.OpaqueUserID != "U-opaque" {
		t.Errorf("opaque_user_id = %q, want U-opaque", got.OpaqueUserID)
	}
	if got.Role != "viewer" {
		t.Errorf("role = %q, want viewer", got.Role)
	}
	if got.IsAnonymous() {
		t.Error("viewer with user_id should not be anonymous")
	}
}

func TestVerifySessionAnonymousViewer(t *testing.T) {
	claims := sessionClaims(time.Now().Add(time.Hour))
	delete(claims, "user_id")
	got, err := VerifySession(testSecret, signSession(t, testSecret, claims))
	if err != nil {
		t.Fatalf("expected valid session, got %v", err)
	}
	if !got.IsAnonymous() {
		t.Error("missing user_id should read as anonymous")
	}
}

func TestVerifySessionExpired(t *testing.T) {
	token := signSession(t, testSecret, sessionClaims(time.Now().Add(-time.Minute)))
	if _, err := VerifySession(testSecret, token); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestVerifySessionMissingExpiry(t *testing.T) {
	claims := sessionClaims(time.Now().Add(time.Hour))
	delete(claims, "exp")
	if _, err := VerifySession(testSecret, signSession(t, testSecret, claims)); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated without exp, got %v", err)
	}
}

func TestVerifySessionWrongSecret(t *testing.T) {
	other := []byte("fedcba9876543210fedcba9876543210")
	token := signSession(t, other, sessionClaims(time.Now().Add(time.Hour)))
	if _, err := VerifySession(testSecret, token); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for wrong signature, got %v", err)
	}
}

func TestVerifySessionWrongAlgorithm(t *testing.T) {
	// HS512 is still HMAC but outside the pinned method list.
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, sessionClaims(time.Now().Add(time.Hour)))
	signed, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifySession(testSecret, signed); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for HS512 token, got %v", err)
	}
}

func TestVerifySessionGarbage(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := VerifySession(testSecret, token); err != ErrUnauthenticated {
			t.Errorf("token %q: expected ErrUnauthenticated, got %v", token, err)
		}
	}
}

func TestVerifySessionBadClaims(t *testing.T) {
	cases := map[string]jwt.MapClaims{
		"missing channel": {"opaque_user_id": "U", "role": "viewer", "exp": time.Now().Add(time.Hour).Unix()},
		"missing opaque":  {"channel_id": "chan-1", "role": "viewer", "exp": time.Now().Add(time.Hour).Unix()},
		"unknown role":    {"channel_id": "chan-1", "opaque_user_id": "U", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()},
	}
	for name, claims := range cases {
		if _, err := VerifySession(testSecret, signSession(t, testSecret, claims)); err != ErrUnauthenticated {
			t.Errorf("%s: expected ErrUnauthenticated, got %v", name, err)
		}
	}
}
