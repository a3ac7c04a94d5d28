package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"
)

// fakeGitHub serves the token endpoint and the two profile endpoints.
func fakeGitHub(t *testing.T, user map[string]any, emails []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "gh-token", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(emails)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *GitHubProvider {
	return NewGitHubProvider("client-id", "client-secret", "http://localhost/cb",
		WithEndpoint(oauth2.Endpoint{
			AuthURL:   srv.URL + "/login/oauth/authorize",
			TokenURL:  srv.URL + "/login/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		WithAPIURL(srv.URL),
	)
}

func TestAuthURL_CarriesStateAndClient(t *testing.T) {
	p := NewGitHubProvider("client-id", "secret", "http://localhost/cb")

	u, err := url.Parse(p.AuthURL("state-123"))
	if err != nil {
		t.Fatalf("parse AuthURL: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-123" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "http://localhost/cb" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

func TestExchange_PublicEmail(t *testing.T) {
	srv := fakeGitHub(t,
		map[string]any{"id": 42, "login": "octo", "email": "octo@example.com", "avatar_url": "https://a/1"},
		nil,
	)

	user, err := newTestProvider(srv).Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if user.ID != 42 || user.Login != "octo" || user.Email != "octo@example.com" {
		t.Errorf("user = %+v", user)
	}
}

func TestExchange_HiddenEmailFallsBackToPrimary(t *testing.T) {
	srv := fakeGitHub(t,
		map[string]any{"id": 7, "login": "shy", "email": nil},
		[]map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "main@example.com", "primary": true, "verified": true},
		},
	)

	user, err := newTestProvider(srv).Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if user.Email != "main@example.com" {
		t.Errorf("Email = %q, want main@example.com", user.Email)
	}
}

func TestExchange_Errors(t *testing.T) {
	t.Run("bad code", func(t *testing.T) {
		srv := fakeGitHub(t, map[string]any{"id": 1, "login": "x"}, nil)
		if _, err := newTestProvider(srv).Exchange(context.Background(), "bad-code"); err == nil {
			t.Fatal("Exchange() should fail for a rejected code")
		}
	})

	t.Run("zero user ID", func(t *testing.T) {
		srv := fakeGitHub(t, map[string]any{"id": 0, "login": "ghost"}, nil)
		if _, err := newTestProvider(srv).Exchange(context.Background(), "good-code"); err == nil {
			t.Fatal("Exchange() should reject a user with ID 0")
		}
	})
}
