package account

import (
	"errors"
	"testing"
	"time"

	"risk-core/internal/risk"
)

func inMemoryFactory() Factory {
	return func(userID string) (*Manager, error) {
		return NewInMemory(userID,
			risk.AccountEquity{StartingCapital: 10000, CurrentEquity: 10000},
			risk.DefaultSettings(), nil), nil
	}
}

func TestGetOrCreateReusesManager(t *testing.T) {
	mm := NewMultiUserManager(inMemoryFactory())

	a, err := mm.GetOrCreate("u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	b, err := mm.GetOrCreate("u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if a != b {
		t.Fatal("same user got two managers")
	}
	if _, err := mm.GetOrCreate("u2"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if got := mm.Count(); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
}

func TestGetDoesNotCreate(t *testing.T) {
	mm := NewMultiUserManager(inMemoryFactory())

	if got := mm.Get("u1"); got != nil {
		t.Fatal("Get created a manager")
	}
	want, _ := mm.GetOrCreate("u1")
	if got := mm.Get("u1"); got != want {
		t.Fatal("Get returned a different manager")
	}
}

func TestFactoryErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	mm := NewMultiUserManager(func(string) (*Manager, error) { return nil, boom })

	if _, err := mm.GetOrCreate("u1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if got := mm.Count(); got != 0 {
		t.Fatalf("Count = %d after failed create, want 0", got)
	}
}

func TestCleanupIdle(t *testing.T) {
	mm := NewMultiUserManager(inMemoryFactory())
	mm.GetOrCreate("stale")
	mm.GetOrCreate("fresh")

	// Backdate one user's activity.
	mm.mu.Lock()
	mm.lastSeen["stale"] = time.Now().Add(-time.Hour)
	mm.mu.Unlock()

	mm.CleanupIdle(30 * time.Minute)

	if got := mm.Get("stale"); got != nil {
		t.Fatal("stale manager survived cleanup")
	}
	if got := mm.Get("fresh"); got == nil {
		t.Fatal("fresh manager was evicted")
	}

	// Non-positive TTL disables cleanup entirely.
	mm.CleanupIdle(0)
	if got := mm.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
}

func TestSnapshotsCoverAllUsers(t *testing.T) {
	mm := NewMultiUserManager(inMemoryFactory())
	mm.GetOrCreate("u1")
	mm.GetOrCreate("u2")

	snaps := mm.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	for id, snap := range snaps {
		if snap.Status != risk.StatusSafe {
			t.Fatalf("user %s status = %v, want safe", id, snap.Status)
		}
	}
}
