package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestRestoreEmptyStorage(t *testing.T) {
	s := newTestStore(t)

	sess := s.Restore()
	if sess.UserID != nil {
		t.Errorf("expected no user id on first run, got %v", *sess.UserID)
	}
	if sess.IsGuest {
		t.Error("expected IsGuest=false on first run")
	}
}

func TestRestoreCorruptStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	sess := s.Restore()
	if sess.UserID != nil || sess.IsGuest {
		t.Errorf("corrupt storage should yield the empty session, got %+v", sess)
	}
}

func TestLoginPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewStore(path)
	s.Restore()
	if err := s.LoginAs(42); err != nil {
		t.Fatalf("LoginAs failed: %v", err)
	}

	// simulate process restart
	s2 := NewStore(path)
	sess := s2.Restore()
	if sess.UserID == nil || *sess.UserID != 42 {
		t.Fatalf("expected restored user 42, got %+v", sess)
	}
	if sess.IsGuest {
		t.Error("expected IsGuest=false after login")
	}
}

func TestLogoutPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewStore(path)
	s.Restore()
	if err := s.LoginAs(7); err != nil {
		t.Fatal(err)
	}
	if err := s.Logout(); err != nil {
		t.Fatal(err)
	}

	sess := NewStore(path).Restore()
	if sess.UserID != nil || sess.IsGuest {
		t.Errorf("expected empty session after logout+restart, got %+v", sess)
	}
}

// The invariant: guest implies no user id, and a user id implies not
// guest, after any sequence of mutations.
func TestGuestUserInvariant(t *testing.T) {
	s := newTestStore(t)
	s.Restore()

	steps := []struct {
		name string
		call func() error
	}{
		{"LoginAs", func() error { return s.LoginAs(1) }},
		{"ContinueAsGuest", func() error { return s.ContinueAsGuest() }},
		{"LoginAs again", func() error { return s.LoginAs(2) }},
		{"Logout", func() error { return s.Logout() }},
		{"ContinueAsGuest again", func() error { return s.ContinueAsGuest() }},
		{"Logout again", func() error { return s.Logout() }},
	}

	for _, step := range steps {
		if err := step.call(); err != nil {
			t.Fatalf("%s failed: %v", step.name, err)
		}
		sess := s.Current()
		if sess.IsGuest && sess.UserID != nil {
			t.Fatalf("after %s: guest session carries user id %d", step.name, *sess.UserID)
		}
	}
}

func TestGuestClearsUserID(t *testing.T) {
	s := newTestStore(t)
	s.Restore()

	if err := s.LoginAs(5); err != nil {
		t.Fatal(err)
	}
	if err := s.ContinueAsGuest(); err != nil {
		t.Fatal(err)
	}

	sess := s.Current()
	if !sess.IsGuest {
		t.Error("expected guest mode")
	}
	if sess.UserID != nil {
		t.Errorf("guest session should not carry user id, got %d", *sess.UserID)
	}
}

func TestOnChangeFiresSynchronously(t *testing.T) {
	s := newTestStore(t)
	s.Restore()

	var seen []Session
	s.OnChange(func(sess Session) {
		seen = append(seen, sess)
	})

	if err := s.LoginAs(3); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(seen))
	}
	if seen[0].UserID == nil || *seen[0].UserID != 3 {
		t.Errorf("notification carried wrong session: %+v", seen[0])
	}

	if err := s.Logout(); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
}

func TestWriteFailureSurfacesAndLeavesStateUnchanged(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	// parent "directory" is a regular file, so every write must fail
	s := NewStore(filepath.Join(blocker, "session.json"))
	s.Restore()

	err := s.LoginAs(42)
	if err == nil {
		t.Fatal("expected write failure")
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected *StorageError, got %T: %v", err, err)
	}

	if sess := s.Current(); sess.UserID != nil {
		t.Errorf("failed login must not change the live session, got %+v", sess)
	}
}

func TestRestoreRepairsContradictoryState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"user_id":9,"is_guest":true}`), 0600); err != nil {
		t.Fatal(err)
	}

	sess := NewStore(path).Restore()
	if sess.UserID != nil {
		t.Errorf("guest session must not keep a user id, got %d", *sess.UserID)
	}
	if !sess.IsGuest {
		t.Error("expected guest flag preserved")
	}
}
