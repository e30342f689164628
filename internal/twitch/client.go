// Package twitch is a thin client for the platform's OAuth token endpoint
// and Helix API.  Only the calls this service needs are implemented: the
// authorization-code and refresh-token exchanges, user lookup, the
// subscription-membership check and the chat announcement.  Every call is
// bounded by the HTTP client timeout so an unresponsive upstream degrades
// into the caller's failure policy instead of hanging the request.
package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"
	defaultAPIBase  = "https://api.twitch.tv/helix"
)

// ErrInvalidGrant is returned by the token exchanges when upstream rejects
// the grant itself (revoked refresh token, reused authorization code).
// This is the non-retryable case: the broadcaster must reconnect.
var ErrInvalidGrant = errors.New("invalid grant")

// Client talks to the platform's OAuth and Helix endpoints.  TokenURL and
// APIBase default to the production hosts and are overridable for tests.
type Client struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBase      string
	HTTP         *http.Client
}

// NewClient returns a Client with production endpoints and a 10 second
// request timeout.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     defaultTokenURL,
		APIBase:      defaultAPIBase,
		HTTP:         &http.Client{Timeout: 10 * time.Second},
	}
}

// TokenResponse mirrors the token endpoint's JSON body for both the
// authorization-code and refresh-token grants.
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	Scope        []string `json:"scope"`
	TokenType    string   `json:"token_type"`
}

// ExchangeCode swaps an authorization code for the broadcaster's first
// access/refresh token pair.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}
	return c.token(ctx, form)
}

// Refresh rotates an access token using the stored refresh token.  A 4xx
// response maps to ErrInvalidGrant (the token was revoked or already
// rotated elsewhere); other failures are transient and may be retried.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.token(ctx, form)
}

// token POSTs a form-encoded grant to the token endpoint.
func (c *Client) token(ctx context.Context, form url.Values) (TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return TokenResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// Do not echo the upstream body anywhere near a client response.
		_, _ = io.Copy(io.Discard, resp.Body)
		return TokenResponse{}, ErrInvalidGrant
	}
	if resp.StatusCode != http.StatusOK {
		return TokenResponse{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}
	var tok TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return TokenResponse{}, err
	}
	if tok.AccessToken == "" {
		return TokenResponse{}, errors.New("token endpoint returned empty access token")
	}
	return tok, nil
}

// User is the subset of the Helix user object this service reads.
type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// GetSelf looks up the user the access token belongs to.  It is used after
// the authorization-code exchange to learn which channel the credential
// delegates for.
func (c *Client) GetSelf(ctx context.Context, accessToken string) (User, error) {
	req, err := c.apiRequest(ctx, http.MethodGet, "/users", accessToken, nil)
	if err != nil {
		return User{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("users lookup returned %d", resp.StatusCode)
	}
	var body struct {
		Data []User `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return User{}, err
	}
	if len(body.Data) == 0 {
		return User{}, errors.New("users lookup returned no data")
	}
	return body.Data[0], nil
}

// CheckSubscription reports whether userID currently subscribes to
// broadcasterID.  Helix answers 404 for "not subscribed", which is a clean
// false here, not an error.
func (c *Client) CheckSubscription(ctx context.Context, accessToken, broadcasterID, userID string) (bool, error) {
	path := "/subscriptions/user?broadcaster_id=" + url.QueryEscape(broadcasterID) + "&user_id=" + url.QueryEscape(userID)
	req, err := c.apiRequest(ctx, http.MethodGet, path, accessToken, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("subscription check returned %d", resp.StatusCode)
	}
}

// SendChatAnnouncement posts an announcement to the broadcaster's chat.
// Callers treat this as best-effort; the broadcaster acts as their own
// moderator for the moderator_id parameter.
func (c *Client) SendChatAnnouncement(ctx context.Context, accessToken, broadcasterID, message string) error {
	path := "/chat/announcements?broadcaster_id=" + url.QueryEscape(broadcasterID) + "&moderator_id=" + url.QueryEscape(broadcasterID)
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}
	req, err := c.apiRequest(ctx, http.MethodPost, path, accessToken, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chat announcement returned %d", resp.StatusCode)
	}
	return nil
}

// apiRequest builds a Helix request with the Client-Id and bearer headers.
func (c *Client) apiRequest(ctx context.Context, method, path, accessToken string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.APIBase+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", c.ClientID)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return req, nil
}
