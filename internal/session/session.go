// Package session keeps the persisted "who is using the app" state:
// the signed-in user id or a guest flag, stored in a small JSON file so
// it survives restarts.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Session is the current authentication state. IsGuest and UserID are
// mutually exclusive: a guest never has a user id.
type Session struct {
	UserID  *int `json:"user_id,omitempty"`
	IsGuest bool `json:"is_guest"`
}

// LoggedIn reports whether a real user is signed in.
func (s Session) LoggedIn() bool {
	return s.UserID != nil
}

// StorageError reports a failed durable read or write. Reads fail open
// (the store degrades to the empty session); writes surface this error
// so a login is never reported as saved when it was not.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store is the single source of truth for the live Session. Mutations
// persist both fields together and notify subscribers synchronously
// before returning.
type Store struct {
	mu        sync.Mutex
	path      string
	current   Session
	listeners []func(Session)
}

// NewStore creates a store persisting to the given file path. Call
// Restore before reading Current at startup.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the session file location under the OS config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "krisha", "session.json"), nil
}

// Restore loads the persisted session once at startup. Missing or
// unreadable storage yields the empty session; startup never fails here.
func (s *Store) Restore() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess Session
	data, err := os.ReadFile(s.path)
	if err == nil {
		if err := json.Unmarshal(data, &sess); err != nil {
			sess = Session{}
		}
	}
	// чиним противоречивое состояние: гость не имеет user id
	if sess.IsGuest {
		sess.UserID = nil
	}

	s.current = sess
	return sess
}

// Current returns a snapshot of the live session.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnChange registers a subscriber invoked synchronously after every
// successful mutation.
func (s *Store) OnChange(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// LoginAs records a signed-in user.
func (s *Store) LoginAs(userID int) error {
	return s.apply(Session{UserID: &userID})
}

// ContinueAsGuest switches to guest mode, clearing any signed-in user.
func (s *Store) ContinueAsGuest() error {
	return s.apply(Session{IsGuest: true})
}

// Logout clears the session entirely.
func (s *Store) Logout() error {
	return s.apply(Session{})
}

// apply persists the new state and only then commits it in memory, so a
// failed write leaves the store unchanged.
func (s *Store) apply(next Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(next); err != nil {
		return err
	}

	s.current = next
	for _, fn := range s.listeners {
		fn(next)
	}
	return nil
}

// persist writes both fields atomically: temp file in the same
// directory, then rename.
func (s *Store) persist(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write", Err: err}
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}
