package bbolt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmcleod/boardhand/storage"
	"go.etcd.io/bbolt"
)

func newTestDB(t *testing.T) (*bbolt.DB, func()) {
	t.Helper()
	f, err := os.CreateTemp("", "session-test-*.db")
	if err != nil {
		t.Fatalf("could not create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		os.Remove(path)
		t.Fatalf("could not open db: %v", err)
	}
	return db, func() {
		db.Close()
		os.Remove(path)
	}
}

func TestBBoltStore(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	s := NewStore(db, "")

	t.Run("GetBeforeBucketExists", func(t *testing.T) {
		_, err := s.Get("accessToken")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteBeforeBucketExists", func(t *testing.T) {
		if err := s.Delete("accessToken"); err != nil {
			t.Fatalf("Delete on empty db failed: %v", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		if err := s.Set("accessToken", "tok-1"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := s.Get("accessToken")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "tok-1" {
			t.Errorf("expected %q, got %q", "tok-1", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := s.Set("accessToken", "tok-2"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, _ := s.Get("accessToken")
		if got != "tok-2" {
			t.Errorf("expected %q, got %q", "tok-2", got)
		}
	})

	t.Run("Keys", func(t *testing.T) {
		s.Set("username", "alice")
		keys, err := s.Keys()
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(keys) != 2 {
			t.Errorf("expected 2 keys, got %d (%v)", len(keys), keys)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete("accessToken"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		_, err := s.Get("accessToken")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Delete("accessToken"); err != nil {
			t.Fatalf("second Delete should be a no-op, got %v", err)
		}
	})

	t.Run("EmptyValue", func(t *testing.T) {
		if err := s.Set("userRole", ""); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := s.Get("userRole")
		if err != nil {
			t.Fatalf("Get of empty value failed: %v", err)
		}
		if got != "" {
			t.Errorf("expected empty value, got %q", got)
		}
	})
}

func TestNewStoreFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatalf("NewStoreFromFile failed: %v", err)
	}
	if err := s.Set("username", "bob"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Values survive reopening the file.
	s, err = NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	got, err := s.Get("username")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got != "bob" {
		t.Errorf("expected %q, got %q", "bob", got)
	}

	_, err = NewStoreFromFile("/nonexistent/path/to/db", nil)
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestBBoltStoreClosed(t *testing.T) {
	s, err := NewStoreFromFile(filepath.Join(t.TempDir(), "closed.db"), nil)
	if err != nil {
		t.Fatalf("NewStoreFromFile failed: %v", err)
	}
	s.Close()

	if err := s.Set("k", "v"); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
