package cooldown

import (
	"testing"
	"time"

	"vanish/internal/player"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTrackerAbsentIsNotCooling(t *testing.T) {
	tr := NewTracker()
	if tr.IsCoolingDown(1, t0) {
		t.Fatal("player without an entry must not be cooling down")
	}
}

func TestTrackerWindowIsHalfOpen(t *testing.T) {
	tr := NewTracker()
	tr.Arm(1, t0, 15*time.Second)

	if !tr.IsCoolingDown(1, t0) {
		t.Fatal("expected cooling at arm time")
	}
	if !tr.IsCoolingDown(1, t0.Add(15*time.Second-time.Nanosecond)) {
		t.Fatal("expected cooling just before expiry")
	}
	if tr.IsCoolingDown(1, t0.Add(15*time.Second)) {
		t.Fatal("expected cooldown over exactly at expiry")
	}
}

func TestTrackerArmOverwrites(t *testing.T) {
	tr := NewTracker()
	tr.Arm(1, t0, 15*time.Second)
	tr.Arm(1, t0.Add(20*time.Second), 15*time.Second)

	if tr.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", tr.Len())
	}
	got, ok := tr.ExpiresAt(1)
	if !ok || !got.Equal(t0.Add(35*time.Second)) {
		t.Fatalf("expected expiry at +35s, got %v (ok=%v)", got, ok)
	}
}

func TestTrackerPlayersAreIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Arm(1, t0, 15*time.Second)
	if tr.IsCoolingDown(2, t0) {
		t.Fatal("arming one player must not affect another")
	}
}

func TestTrackerClear(t *testing.T) {
	tr := NewTracker()
	tr.Arm(3, t0, time.Minute)
	tr.Clear(3)
	if tr.IsCoolingDown(3, t0) {
		t.Fatal("cleared player must not be cooling down")
	}
	if tr.Len() != 0 {
		t.Fatalf("expected empty tracker, got %d", tr.Len())
	}
}

func TestTrackerReapDropsOnlyExpired(t *testing.T) {
	tr := NewTracker()
	tr.Arm(1, t0, 5*time.Second)
	tr.Arm(2, t0, 30*time.Second)
	tr.Arm(3, t0, 10*time.Second)

	if n := tr.Reap(t0.Add(10 * time.Second)); n != 2 {
		t.Fatalf("expected 2 reaped, got %d", n)
	}
	if tr.Len() != 1 {
		t.Fatalf("expected 1 live entry, got %d", tr.Len())
	}
	if !tr.IsCoolingDown(2, t0.Add(10*time.Second)) {
		t.Fatal("unexpired entry must survive reaping")
	}
}

func TestTrackerReapSkipsStaleHeapEntries(t *testing.T) {
	tr := NewTracker()
	tr.Arm(1, t0, 5*time.Second)
	tr.Arm(1, t0.Add(4*time.Second), 15*time.Second)
	tr.Arm(2, t0, 5*time.Second)
	tr.Clear(2)

	if n := tr.Reap(t0.Add(6 * time.Second)); n != 0 {
		t.Fatalf("stale heap entries must not reap live data, got %d", n)
	}
	if !tr.IsCoolingDown(1, t0.Add(6*time.Second)) {
		t.Fatal("re-armed player lost its entry")
	}
	if tr.Pending() != 1 {
		t.Fatalf("expected only the live heap entry left, got %d", tr.Pending())
	}
	if n := tr.Reap(t0.Add(19 * time.Second)); n != 1 {
		t.Fatalf("expected re-armed entry reaped at expiry, got %d", n)
	}
}

func TestTrackerManyPlayers(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 500; i++ {
		tr.Arm(player.ID(i), t0, time.Duration(i%10+1)*time.Second)
	}
	if n := tr.Reap(t0.Add(10 * time.Second)); n != 500 {
		t.Fatalf("expected all 500 reaped, got %d", n)
	}
	if tr.Pending() != 0 {
		t.Fatalf("expected empty heap, got %d", tr.Pending())
	}
}
