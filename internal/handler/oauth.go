package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seroba/gallery-gate/internal/tokenstore"
	"github.com/seroba/gallery-gate/internal/twitch"
)

// OAuthHandler completes the broadcaster's one-time authorization.  The
// platform redirects the broadcaster's browser here with an authorization
// code; the handler exchanges it, learns which channel the token delegates
// for, and stores the credential.  Re-running the flow overwrites the old
// row, which is how a broadcaster recovers from a revoked refresh token.
type OAuthHandler struct {
	API         *twitch.Client
	Tokens      *tokenstore.Store
	RedirectURL string
}

func NewOAuthHandler(api *twitch.Client, tokens *tokenstore.Store, redirectURL string) *OAuthHandler {
	return &OAuthHandler{API: api, Tokens: tokens, RedirectURL: redirectURL}
}

// Callback handles GET /v1/auth/callback?code=...  It is the only
// unauthenticated endpoint besides the health check: possession of a fresh
// single-use authorization code is the proof of identity here.
func (h *OAuthHandler) Callback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing code"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	tok, err := h.API.ExchangeCode(ctx, code, h.RedirectURL)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "authorization failed"})
	}
	user, err := h.API.GetSelf(ctx, tok.AccessToken)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "authorization failed"})
	}
	cred, err := h.Tokens.Save(ctx, user.ID, tok.AccessToken, tok.RefreshToken, tok.ExpiresIn)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store credential"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"channel_id": user.ID,
		"login":      user.Login,
		"expires_at": cred.ExpiresAt,
	})
}
