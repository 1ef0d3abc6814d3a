package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dondeestamimascota/mascotas/internal/store"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	db, _, err := store.OpenMigrated(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Backend{"sqlite": db, "memory": NewMemory()}
}

func TestSaveAndClear(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(b)
			if s.LoggedIn() {
				t.Fatal("empty store reports logged in")
			}
			if err := s.Save("jwt-abc", 42); err != nil {
				t.Fatal(err)
			}
			if !s.LoggedIn() {
				t.Error("LoggedIn() = false after Save")
			}
			tok, _ := s.Token()
			id, ok, _ := s.UserID()
			if tok != "jwt-abc" || id != 42 || !ok {
				t.Errorf("got token %q id %d ok %v", tok, id, ok)
			}

			if err := s.Clear(); err != nil {
				t.Fatal(err)
			}
			if s.LoggedIn() {
				t.Error("LoggedIn() = true after Clear")
			}
			if tok, _ := s.Token(); tok != "" {
				t.Errorf("token after Clear = %q", tok)
			}
		})
	}
}

func TestTokenOnlyIsNotLoggedIn(t *testing.T) {
	s := New(NewMemory())
	if err := s.SaveToken("jwt"); err != nil {
		t.Fatal(err)
	}
	if s.LoggedIn() {
		t.Error("token without user id should not count as logged in")
	}
	if err := s.SaveUserID(7); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveToken(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.UserID(); !ok {
		t.Error("RemoveToken dropped the user id")
	}
}

func TestCorruptUserID(t *testing.T) {
	m := NewMemory()
	_ = m.SetValue(UserIDKey, "abc")
	if _, _, err := New(m).UserID(); err == nil {
		t.Error("UserID() should fail on a non-numeric value")
	}
}

type failing struct{ *Memory }

var errDisk = errors.New("disk full")

func (f *failing) SetValue(string, string) error { return errDisk }

func TestSaveReportsBackendErrors(t *testing.T) {
	s := New(&failing{Memory: NewMemory()})
	err := s.Save("t", 1)
	if !errors.Is(err, errDisk) {
		t.Errorf("Save() error = %v, want disk full", err)
	}
}
