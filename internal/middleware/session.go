package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/seroba/gallery-gate/internal/auth"
	"github.com/seroba/gallery-gate/internal/model"
)

// claimsKey is the context key under which the verified session claims are
// stored for the duration of a request.
const claimsKey = "session_claims"

// SessionAuth returns an Echo middleware that verifies the platform-signed
// session credential in the Authorization header and injects the verified
// claims into the request context.  Every endpoint that needs identity or
// role must sit behind this middleware; nothing downstream ever trusts a
// client-supplied role or id field outside the verified token.  All
// failure modes answer a bare 401 with no detail about why.
func SessionAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer " followed by the signed token.
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
			}
			claims, err := auth.VerifySession(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// Claims returns the verified session claims stored by SessionAuth.  The
// second return is false when the middleware did not run, which on a
// correctly registered route means a programming error.
func Claims(c echo.Context) (model.SessionClaims, bool) {
	claims, ok := c.Get(claimsKey).(model.SessionClaims)
	return claims, ok
}
