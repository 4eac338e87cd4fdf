package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// newTestAuth builds an auth client whose token endpoint is a local stub.
func newTestAuth(t *testing.T, tokenHandler http.HandlerFunc) *services.SpotifyAuth {
	t.Helper()

	store, err := services.NewTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	auth, err := services.NewSpotifyAuth(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
		"redirect_uri":  "http://127.0.0.1:8080/callback",
	}, store)
	if err != nil {
		t.Fatalf("failed to create auth client: %v", err)
	}

	if tokenHandler != nil {
		stub := httptest.NewServer(tokenHandler)
		t.Cleanup(stub.Close)
		auth.SetTokenURL(stub.URL)
	}

	return auth
}

func callbackRequest(t *testing.T, handler *OAuthHandler, query url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("GET", "/callback?"+query.Encode(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Successful Exchange", func(t *testing.T) {
		auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "user-token", "token_type": "Bearer", "expires_in": 3600, "refresh_token": "refresh-token"}`))
		})
		handler := NewOAuthHandler(auth, "test-state")

		rec := callbackRequest(t, handler, url.Values{"state": {"test-state"}, "code": {"auth-code"}})

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Error("expected success page")
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Errorf("expected no error, got %v", result.Error())
		}
	})

	t.Run("Invalid State", func(t *testing.T) {
		handler := NewOAuthHandler(newTestAuth(t, nil), "test-state")

		rec := callbackRequest(t, handler, url.Values{"state": {"wrong"}, "code": {"auth-code"}})

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected state mismatch error")
		}
	})

	t.Run("Provider Error Prefers Description", func(t *testing.T) {
		handler := NewOAuthHandler(newTestAuth(t, nil), "test-state")

		rec := callbackRequest(t, handler, url.Values{
			"state":             {"test-state"},
			"error":             {"access_denied"},
			"error_description": {"The user declined the request"},
		})

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if !errors.Is(result.Error(), shared.ErrAuthExchange) {
			t.Fatalf("expected ErrAuthExchange, got %v", result.Error())
		}
		if !strings.Contains(result.Error().Error(), "The user declined the request") {
			t.Errorf("expected provider description in %q", result.Error().Error())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "invalid_grant"}`))
		})
		handler := NewOAuthHandler(auth, "test-state")

		rec := callbackRequest(t, handler, url.Values{"state": {"test-state"}, "code": {"expired-code"}})

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}

		result := <-handler.Result()
		if !errors.Is(result.Error(), shared.ErrAuthExchange) {
			t.Errorf("expected ErrAuthExchange, got %v", result.Error())
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "user-token", "token_type": "Bearer", "expires_in": 3600}`))
		})
		handler := NewOAuthHandler(auth, "test-state")

		callbackRequest(t, handler, url.Values{"state": {"test-state"}, "code": {"auth-code"}})
		rec := callbackRequest(t, handler, url.Values{"state": {"test-state"}, "code": {"auth-code"}})

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be rejected, got %d", rec.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("GET", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Handler Routes Registration", func(t *testing.T) {
		router := NewBasicRouter()
		handler := NewOAuthHandler(newTestAuth(t, nil), "test-state")
		router.Handler(handler)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=wrong", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected handler to be routed, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		router := NewBasicRouter()

		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router.Use(mw("outer"), mw("inner"))
		router.Handle("GET", "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
		if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
			t.Errorf("unexpected middleware order %v", order)
		}
	})
}
