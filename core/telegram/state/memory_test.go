package state

import (
	"testing"
	"time"
)

const testUser int64 = 42

func TestSessionLifecycle(t *testing.T) {
	m := NewMemoryManager()

	if m.InProgress(testUser) {
		t.Fatal("fresh manager should have no session in progress")
	}

	m.SetState(testUser, State("step_one"))
	m.SetTemp(testUser, "draft_id", int64(7))

	if got := m.GetState(testUser); got != State("step_one") {
		t.Fatalf("state = %s, want step_one", got)
	}
	if !m.InProgress(testUser) {
		t.Fatal("expected session in progress after SetState")
	}
	if v, ok := m.GetTempInt64(testUser, "draft_id"); !ok || v != 7 {
		t.Fatalf("GetTempInt64 = %d, %v", v, ok)
	}

	m.ClearState(testUser)
	if m.InProgress(testUser) {
		t.Fatal("session should be idle after ClearState")
	}
	if _, ok := m.GetTemp(testUser, "draft_id"); !ok {
		t.Fatal("ClearState must keep temp data")
	}

	m.Clear(testUser)
	if _, ok := m.GetTemp(testUser, "draft_id"); ok {
		t.Fatal("Clear must drop temp data")
	}
}

func TestSessionExpiresAfterIdleTTL(t *testing.T) {
	mgr := NewMemoryManagerTTL(10 * time.Minute).(*memoryManager)

	current := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return current }

	mgr.SetState(testUser, State("step_one"))
	mgr.SetTemp(testUser, "draft_id", int64(7))

	current = current.Add(9 * time.Minute)
	if !mgr.InProgress(testUser) {
		t.Fatal("session must survive below the TTL")
	}

	// Writes restart the idle clock.
	mgr.SetTemp(testUser, "draft_id", int64(8))
	current = current.Add(9 * time.Minute)
	if _, ok := mgr.GetTempInt64(testUser, "draft_id"); !ok {
		t.Fatal("session must survive when written to before expiry")
	}

	current = current.Add(11 * time.Minute)
	if mgr.InProgress(testUser) {
		t.Fatal("idle session must expire after the TTL")
	}
	if _, ok := mgr.GetTemp(testUser, "draft_id"); ok {
		t.Fatal("expired session must drop temp data")
	}
	if got := mgr.GetState(testUser); got != StateIdle {
		t.Fatalf("state after expiry = %s, want idle", got)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	mgr := NewMemoryManagerTTL(0).(*memoryManager)

	current := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return current }

	mgr.SetState(testUser, State("step_one"))
	current = current.Add(1000 * time.Hour)
	if !mgr.InProgress(testUser) {
		t.Fatal("ttl <= 0 must disable expiry")
	}
}
