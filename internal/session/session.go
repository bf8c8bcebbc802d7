// Package session holds the single process-wide authentication state. It is
// the only source of truth for the bearer token and current user; the
// transport reads from it on every request and clears it on auth failure.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/terzoomedia/hasad-go/internal/models"
)

// credentials is the persisted cookie-equivalent state.
type credentials struct {
	Token             string       `json:"token"`
	User              *models.User `json:"user,omitempty"`
	PreferredLanguage string       `json:"preferred_language,omitempty"`
	SavedAt           time.Time    `json:"saved_at"`
}

// Store manages login state with optional file persistence.
type Store struct {
	mu       sync.RWMutex
	creds    credentials
	path     string
	tokenTTL time.Duration
	logger   *zap.Logger
}

// New builds a store. An empty path disables persistence, which tests and
// one-shot invocations use.
func New(path string, tokenTTL time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &Store{path: path, tokenTTL: tokenTTL, logger: logger}
}

// Login records the credentials and persists them.
func (s *Store) Login(token string, user *models.User) error {
	s.mu.Lock()
	s.creds.Token = token
	s.creds.User = user
	s.creds.SavedAt = time.Now()
	snapshot := s.creds
	s.mu.Unlock()

	return s.persist(snapshot)
}

// Logout clears in-memory and persisted state.
func (s *Store) Logout() {
	s.mu.Lock()
	lang := s.creds.PreferredLanguage
	s.creds = credentials{PreferredLanguage: lang}
	snapshot := s.creds
	s.mu.Unlock()

	if err := s.persist(snapshot); err != nil {
		s.logger.Warn("failed to clear persisted credentials", zap.Error(err))
	}
}

// Rehydrate loads persisted credentials. Corrupt or expired state is
// discarded the same way the dashboard dropped unreadable cookies.
func (s *Store) Rehydrate() error {
	if s.path == "" {
		return nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var creds credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		s.logger.Warn("discarding unreadable credentials file", zap.Error(err))
		_ = os.Remove(s.path)
		return nil
	}

	if creds.Token != "" && s.expired(creds) {
		s.logger.Info("discarding expired session",
			zap.Time("saved_at", creds.SavedAt))
		creds.Token = ""
		creds.User = nil
	}

	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

// Token returns the current bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Token
}

// User returns the logged-in user, nil when logged out.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.User
}

// Authenticated reports whether a token is held.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// PreferredLanguage returns the persisted language code.
func (s *Store) PreferredLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.PreferredLanguage
}

// SetPreferredLanguage persists the language choice independently of login
// state.
func (s *Store) SetPreferredLanguage(lang string) error {
	s.mu.Lock()
	s.creds.PreferredLanguage = lang
	snapshot := s.creds
	s.mu.Unlock()
	return s.persist(snapshot)
}

// expired checks the token's own exp claim when it parses as a JWT, falling
// back to the cookie-style TTL from the save time for opaque tokens. Tokens
// are consumed, never verified; signature validation is the backend's.
func (s *Store) expired(creds credentials) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(creds.Token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return time.Now().After(exp.Time)
		}
	}

	if creds.SavedAt.IsZero() {
		return false
	}
	return time.Since(creds.SavedAt) > s.tokenTTL
}

func (s *Store) persist(creds credentials) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}
