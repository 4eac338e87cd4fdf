package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/concert-time-machine/ctm/internal/shared"
)

func testCredentials() map[string]string {
	return map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
		"redirect_uri":  "http://127.0.0.1:8080/callback",
	}
}

func newTestAuth(t *testing.T, tokenHandler http.HandlerFunc) *SpotifyAuth {
	t.Helper()

	auth, err := NewSpotifyAuth(testCredentials(), newTestStore(t))
	if err != nil {
		t.Fatalf("failed to create auth client: %v", err)
	}

	if tokenHandler != nil {
		server := httptest.NewServer(tokenHandler)
		t.Cleanup(server.Close)
		auth.client.TokenURL = server.URL
		auth.config.Endpoint.TokenURL = server.URL
	}

	return auth
}

func TestSpotifyAuth(t *testing.T) {
	t.Run("NewSpotifyAuth", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			credentials := testCredentials()
			delete(credentials, "client_id")

			if _, err := NewSpotifyAuth(credentials, newTestStore(t)); !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			credentials := testCredentials()
			delete(credentials, "client_secret")

			if _, err := NewSpotifyAuth(credentials, newTestStore(t)); !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			credentials := testCredentials()
			delete(credentials, "redirect_uri")

			auth, err := NewSpotifyAuth(credentials, newTestStore(t))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if auth.config.RedirectURL != "http://127.0.0.1:8080/callback" {
				t.Errorf("unexpected default redirect URI %q", auth.config.RedirectURL)
			}
		})
	})

	t.Run("AuthorizationURL", func(t *testing.T) {
		auth := newTestAuth(t, nil)

		authURL, err := auth.AuthorizationURL("test_state")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, want := range []string{"accounts.spotify.com", "test_client_id", "test_state", "user-modify-playback-state", "streaming"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("expected auth URL to contain %q, got %s", want, authURL)
			}
		}
	})

	t.Run("ClientToken", func(t *testing.T) {
		t.Run("Fetches And Caches", func(t *testing.T) {
			calls := 0
			auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				if err := r.ParseForm(); err == nil {
					if grant := r.PostForm.Get("grant_type"); grant != "client_credentials" {
						t.Errorf("expected client_credentials grant, got %q", grant)
					}
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"access_token": "app-token", "token_type": "Bearer", "expires_in": 3600}`))
			})

			token, err := auth.ClientToken(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token != "app-token" {
				t.Errorf("expected app-token, got %q", token)
			}

			if _, err := auth.ClientToken(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if calls != 1 {
				t.Errorf("expected 1 token request, got %d", calls)
			}
		})

		t.Run("Refetches Near Expiry", func(t *testing.T) {
			// Safety margin eats the whole 30s lifetime, so the cached
			// token is already stale.
			calls := 0
			auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"access_token": "app-token", "token_type": "Bearer", "expires_in": 30}`))
			})

			auth.ClientToken(context.Background())
			auth.ClientToken(context.Background())
			if calls != 2 {
				t.Errorf("expected 2 token requests, got %d", calls)
			}
		})

		t.Run("Auth Failure", func(t *testing.T) {
			auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})

			if _, err := auth.ClientToken(context.Background()); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("ExchangeCode", func(t *testing.T) {
		t.Run("Persists Tokens", func(t *testing.T) {
			auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"access_token": "user-token", "token_type": "Bearer", "expires_in": 3600, "refresh_token": "refresh-token"}`))
			})

			if err := auth.ExchangeCode(context.Background(), "auth-code"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			token, ok := auth.store.AccessToken()
			if !ok || token != "user-token" {
				t.Errorf("expected persisted user token, got %q ok=%v", token, ok)
			}
			refresh, ok := auth.store.RefreshToken()
			if !ok || refresh != "refresh-token" {
				t.Errorf("expected persisted refresh token, got %q ok=%v", refresh, ok)
			}
		})

		t.Run("Exchange Failure Mentions Redirect URI", func(t *testing.T) {
			auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error": "invalid_grant"}`))
			})

			err := auth.ExchangeCode(context.Background(), "bad-code")
			if !errors.Is(err, shared.ErrAuthExchange) {
				t.Fatalf("expected ErrAuthExchange, got %v", err)
			}
			if !strings.Contains(err.Error(), "redirect_uri") {
				t.Errorf("expected redirect_uri hint in %q", err.Error())
			}
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("Without Refresh Token", func(t *testing.T) {
			auth := newTestAuth(t, nil)

			if _, ok := auth.Refresh(context.Background()); ok {
				t.Error("expected refresh to fail without a stored refresh token")
			}
		})

		t.Run("With Refresh Token", func(t *testing.T) {
			auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"access_token": "new-token", "token_type": "Bearer", "expires_in": 3600}`))
			})

			if err := auth.store.Save("stale-token", -10, "refresh-token"); err != nil {
				t.Fatalf("failed to seed store: %v", err)
			}

			token, ok := auth.Refresh(context.Background())
			if !ok || token != "new-token" {
				t.Errorf("expected refreshed token, got %q ok=%v", token, ok)
			}
		})
	})

	t.Run("UserToken", func(t *testing.T) {
		t.Run("Uses Stored Token", func(t *testing.T) {
			auth := newTestAuth(t, nil)
			if err := auth.store.Save("user-token", 3600, ""); err != nil {
				t.Fatalf("failed to seed store: %v", err)
			}

			token, ok := auth.UserToken(context.Background())
			if !ok || token != "user-token" {
				t.Errorf("expected stored token, got %q ok=%v", token, ok)
			}
			if !auth.Authenticated(context.Background()) {
				t.Error("expected Authenticated to be true")
			}
		})

		t.Run("Falls Back To Refresh", func(t *testing.T) {
			auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"access_token": "refreshed-token", "token_type": "Bearer", "expires_in": 3600}`))
			})
			if err := auth.store.Save("stale-token", -10, "refresh-token"); err != nil {
				t.Fatalf("failed to seed store: %v", err)
			}

			token, ok := auth.UserToken(context.Background())
			if !ok || token != "refreshed-token" {
				t.Errorf("expected refreshed token, got %q ok=%v", token, ok)
			}
		})

		t.Run("Fails Without Tokens", func(t *testing.T) {
			auth := newTestAuth(t, nil)
			if _, ok := auth.UserToken(context.Background()); ok {
				t.Error("expected no user token")
			}
			if auth.Authenticated(context.Background()) {
				t.Error("expected Authenticated to be false")
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		auth := newTestAuth(t, nil)
		if err := auth.store.Save("user-token", 3600, "refresh-token"); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}

		if err := auth.Logout(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if auth.Authenticated(context.Background()) {
			t.Error("expected user to be logged out")
		}
	})
}

func TestWithTokenCache(t *testing.T) {
	auth := newTestAuth(t, nil)

	cache := &MemoryTokenCache{}
	cache.Set("injected-token", time.Now().Add(time.Hour))
	auth.WithTokenCache(cache)

	token, err := auth.ClientToken(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "injected-token" {
		t.Errorf("expected injected token, got %q", token)
	}
}
