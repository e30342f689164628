package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(tokenURL, apiBase string) *Client {
	return &Client{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenURL,
		APIBase:      apiBase,
		HTTP:         &http.Client{Timeout: 2 * time.Second},
	}
}

// ---------------------------------------------------------------------------
// Token endpoint
// ---------------------------------------------------------------------------

func TestRefreshSendsGrantForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		for key, want := range map[string]string{
			"client_id":     "client-id",
			"client_secret": "client-secret",
			"grant_type":    "refresh_token",
			"refresh_token": "old-refresh",
		} {
			if got := r.PostFormValue(key); got != want {
				t.Errorf("form %s = %q, want %q", key, got, want)
			}
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    3600,
		})
	}))
	defer srv.Close()

	tok, err := testClient(srv.URL, srv.URL).Refresh(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if tok.AccessToken != "new-access" || tok.RefreshToken != "new-refresh" || tok.ExpiresIn != 3600 {
		t.Errorf("token = %+v", tok)
	}
}

func TestRefreshMapsRejectionToInvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":400,"message":"Invalid refresh token"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).Refresh(context.Background(), "revoked")
	if !errors.Is(err, ErrInvalidGrant) {
		t.Errorf("err = %v, want ErrInvalidGrant", err)
	}
}

func TestRefreshServerErrorIsNotInvalidGrant(t *testing.T) {
	// 5xx is a transient failure the caller may retry; it must not be
	// confused with a revoked grant.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).Refresh(context.Background(), "fine")
	if err == nil || errors.Is(err, ErrInvalidGrant) {
		t.Errorf("err = %v, want transient error", err)
	}
}

func TestExchangeCodeSendsGrantForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.PostFormValue("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostFormValue("code"); got != "auth-code" {
			t.Errorf("code = %q", got)
		}
		if got := r.PostFormValue("redirect_uri"); got != "https://ext.example/callback" {
			t.Errorf("redirect_uri = %q", got)
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 14400})
	}))
	defer srv.Close()

	tok, err := testClient(srv.URL, srv.URL).ExchangeCode(context.Background(), "auth-code", "https://ext.example/callback")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if tok.AccessToken != "access" {
		t.Errorf("access token = %q", tok.AccessToken)
	}
}

func TestTokenRejectsEmptyAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TokenResponse{})
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL, srv.URL).Refresh(context.Background(), "x"); err == nil {
		t.Error("empty access token must be an error")
	}
}

// ---------------------------------------------------------------------------
// Helix API
// ---------------------------------------------------------------------------

func TestCheckSubscriptionStatuses(t *testing.T) {
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Client-Id"); got != "client-id" {
			t.Errorf("Client-Id = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer access" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("broadcaster_id") != "chan-1" || q.Get("user_id") != "user-1" {
			t.Errorf("query = %v", q)
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)

	status = http.StatusOK
	if sub, err := c.CheckSubscription(context.Background(), "access", "chan-1", "user-1"); err != nil || !sub {
		t.Errorf("200: sub=%v err=%v, want true/nil", sub, err)
	}

	// Not subscribed is a clean false, not an error.
	status = http.StatusNotFound
	if sub, err := c.CheckSubscription(context.Background(), "access", "chan-1", "user-1"); err != nil || sub {
		t.Errorf("404: sub=%v err=%v, want false/nil", sub, err)
	}

	status = http.StatusInternalServerError
	if _, err := c.CheckSubscription(context.Background(), "access", "chan-1", "user-1"); err == nil {
		t.Error("500: want error so callers fail closed")
	}
}

func TestGetSelfReadsFirstUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"42","login":"serobaline","display_name":"Serobaline"}]}`))
	}))
	defer srv.Close()

	u, err := testClient(srv.URL, srv.URL).GetSelf(context.Background(), "access")
	if err != nil {
		t.Fatalf("get self: %v", err)
	}
	if u.ID != "42" || u.Login != "serobaline" {
		t.Errorf("user = %+v", u)
	}
}

func TestSendChatAnnouncement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("broadcaster_id") != "chan-1" || q.Get("moderator_id") != "chan-1" {
			t.Errorf("query = %v", q)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["message"] != "hello chat" {
			t.Errorf("message = %q", body["message"])
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := testClient(srv.URL, srv.URL).SendChatAnnouncement(context.Background(), "access", "chan-1", "hello chat"); err != nil {
		t.Fatalf("announce: %v", err)
	}
}
