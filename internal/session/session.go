package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spec-kit/taskflow-service/internal/domain"
)

// ErrNoSession is returned when no cached session exists.
var ErrNoSession = errors.New("no saved session")

// User is the cached view of the signed-in account.
type User struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Session is a client-side cache of a sign-in. The server never reads it;
// it only tells the client which token to send and when to stop trying.
type Session struct {
	Server    string    `json:"server"`
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the cached token has reached its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || s.Token == "" || !now.Before(s.ExpiresAt)
}

// DefaultPath checks TASKFLOW_SESSION_FILE, then falls back to
// $XDG_CONFIG_HOME/taskflow/session.json or ~/.config/taskflow/session.json.
func DefaultPath() string {
	if p := os.Getenv("TASKFLOW_SESSION_FILE"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "taskflow-session.json")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "taskflow", "session.json")
}

// Store persists a single session as an owner-only JSON file.
type Store struct {
	path string
}

// NewStore returns a store at path, or at DefaultPath when path is empty.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the cached session.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("reading session file %s: %w", s.path, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", s.path, err)
	}
	if sess.Token == "" || sess.User.ID == "" {
		return nil, fmt.Errorf("session file %s is incomplete", s.path)
	}
	return &sess, nil
}

// Save writes the session with mode 0600, creating the directory with 0700.
func (s *Store) Save(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", dir, err)
	}
	// Write then rename so a crash never leaves a truncated file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing session file %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the cached session. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file %s: %w", s.path, err)
	}
	return nil
}
