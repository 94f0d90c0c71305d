package cache

import (
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "cache.db"))

	want := []string{"a", "b", "c"}
	if err := s.Put(KeyContacts, want); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	var got []string
	ok, err := s.Get(KeyContacts, &got)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() = miss, want fresh hit")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %v, want %v", got, want)
	}
}

func TestGetMissesWhenEmpty(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "cache.db"))

	var got []string
	ok, err := s.Get(KeyMessages, &got)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("Get() hit on empty store")
	}
}

func TestInvalidate(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "cache.db"))

	if err := s.Put(KeyContacts, []string{"a"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	s.Invalidate(KeyContacts)

	var got []string
	if ok, _ := s.Get(KeyContacts, &got); ok {
		t.Error("Get() hit after Invalidate")
	}

	// stale data still reachable as fallback
	if ok, err := s.Snapshot(KeyContacts, &got); err != nil || !ok {
		t.Errorf("Snapshot() = %v, %v; want stale hit", ok, err)
	}

	// invalidating stale data is a no-op, not an error
	s.Invalidate(KeyContacts)
	s.Invalidate(KeyMessages)
}

func TestKeysIndependent(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "cache.db"))

	if err := s.Put(KeyContacts, []string{"a"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := s.Put(KeyMessages, []string{"m"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	s.Invalidate(KeyContacts)

	var got []string
	if ok, _ := s.Get(KeyMessages, &got); !ok {
		t.Error("invalidating contacts also invalidated messages")
	}
}

func TestReopenServesOnlySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := s.Put(KeyContacts, []string{"a"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened := openTestStore(t, path)

	var got []string
	if ok, _ := reopened.Get(KeyContacts, &got); ok {
		t.Error("reopened store reported fresh data")
	}
	if ok, err := reopened.Snapshot(KeyContacts, &got); err != nil || !ok {
		t.Errorf("Snapshot() after reopen = %v, %v; want hit", ok, err)
	}
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Snapshot() = %v", got)
	}
}
