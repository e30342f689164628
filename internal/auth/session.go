package auth // package auth verifies the platform-signed credentials this service trusts

import (
	"encoding/base64" // the platform hands out HMAC secrets base64-encoded
	"errors"          // sentinel error definitions
	"fmt"             // error formatting inside the key callback

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens

	"github.com/seroba/gallery-gate/internal/model"
)

// ErrUnauthenticated is returned for any session credential that cannot be
// trusted: absent, malformed, wrongly signed, expired or carrying an
// unexpected claim shape.  Callers must not distinguish between those cases
// in anything they send back to the client.
var ErrUnauthenticated = errors.New("unauthenticated")

// DecodeSecret decodes the base64-encoded shared secret as issued by the
// platform console.  The decoded bytes are the actual HMAC key.
func DecodeSecret(b64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64)
}

// VerifySession validates a session credential against the shared secret and
// extracts its claim set.  Verification pins the algorithm to HS256: a token
// signed with any other method is rejected before the key is even consulted,
// which closes the algorithm-confusion hole.  Expiry is mandatory; a token
// without an exp claim is invalid.  The function is pure: no side effects,
// no clock state beyond "now".
func VerifySession(secret []byte, token string) (model.SessionClaims, error) {
	if token == "" {
		return model.SessionClaims{}, ErrUnauthenticated
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return model.SessionClaims{}, ErrUnauthenticated
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return model.SessionClaims{}, ErrUnauthenticated
	}

	// Only now, with the signature checked, are the claim values trusted.
	channelID, _ := claims["channel_id"].(string)
	opaqueID, _ := claims["opaque_user_id"].(string)
	role, _ := claims["role"].(string)
	if channelID == "" || opaqueID == "" || !model.ValidRole(role) {
		return model.SessionClaims{}, ErrUnauthenticated
	}

	out := model.SessionClaims{
		ChannelID:    channelID,
		OpaqueUserID: opaqueID,
		Role:         role,
	}
	// user_id is optional: absent means the viewer has not shared identity.
	if uid, ok := claims["user_id"].(string); ok {
		out.UserID = uid
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}
