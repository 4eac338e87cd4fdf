package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// TokenCache stores a short-lived application token between requests.
// Implementations must be safe for concurrent use.
type TokenCache interface {
	Get() (token string, expiry time.Time)
	Set(token string, expiry time.Time)
	IsValid(now time.Time) bool
}

// MemoryTokenCache is the default in-process TokenCache.
type MemoryTokenCache struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
}

func (c *MemoryTokenCache) Get() (string, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.expiry
}

func (c *MemoryTokenCache) Set(token string, expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiry = expiry
}

func (c *MemoryTokenCache) IsValid(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != "" && now.Before(c.expiry)
}

// storedToken is the on-disk form of the user's tokens. Expiry is an epoch
// millisecond timestamp stored as a string. ReturnTo marks where the user was
// when they were sent off to authorize, so the flow can resume there.
type storedToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Expiry       string `json:"expiry"`
	ReturnTo     string `json:"return_to,omitempty"`
}

// TokenStore persists user OAuth tokens to a JSON file with owner-only
// permissions.
type TokenStore struct {
	mu   sync.Mutex
	path string
}

// DefaultTokenPath returns the token file location under the user config directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "ctm", "tokens.json"), nil
}

// NewTokenStore creates a token store backed by the file at path, creating
// parent directories as needed.
func NewTokenStore(path string) (*TokenStore, error) {
	if path == "" {
		var err error
		if path, err = DefaultTokenPath(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	return &TokenStore{path: path}, nil
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

func (s *TokenStore) read() (*storedToken, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var token storedToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

func (s *TokenStore) write(token *storedToken) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// Save writes the access token with its lifetime in seconds. An empty
// refreshToken preserves any previously stored refresh token; the return-to
// marker is always preserved.
func (s *TokenStore) Save(accessToken string, expiresIn int, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var returnTo string
	if existing, err := s.read(); err == nil {
		returnTo = existing.ReturnTo
		if refreshToken == "" {
			refreshToken = existing.RefreshToken
		}
	}

	expiry := time.Now().Add(time.Duration(expiresIn) * time.Second).UnixMilli()
	return s.write(&storedToken{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       strconv.FormatInt(expiry, 10),
		ReturnTo:     returnTo,
	})
}

// AccessToken returns the stored access token if it has not expired.
func (s *TokenStore) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.read()
	if err != nil || token.AccessToken == "" {
		return "", false
	}

	expiry, err := strconv.ParseInt(token.Expiry, 10, 64)
	if err != nil || time.Now().UnixMilli() >= expiry {
		return "", false
	}

	return token.AccessToken, true
}

// RefreshToken returns the stored refresh token, if any.
func (s *TokenStore) RefreshToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.read()
	if err != nil || token.RefreshToken == "" {
		return "", false
	}

	return token.RefreshToken, true
}

// SetReturnTo records where the user was when authorization started, so the
// flow can point them back there once it completes.
func (s *TokenStore) SetReturnTo(marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.read()
	if err != nil {
		token = &storedToken{}
	}
	token.ReturnTo = marker

	return s.write(token)
}

// TakeReturnTo returns the stored return-to marker and clears it.
func (s *TokenStore) TakeReturnTo() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.read()
	if err != nil || token.ReturnTo == "" {
		return "", false
	}

	marker := token.ReturnTo
	token.ReturnTo = ""
	if err := s.write(token); err != nil {
		return "", false
	}

	return marker, true
}

// Clear removes the token file, logging the user out.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}

	return nil
}
