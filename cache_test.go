package transitrelay

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Train:          "F/R TRAINS",
		Status:         "Good Service",
		StatusType:     StatusTypeNormal,
		ActiveTrips:    12,
		LastUpdated:    iso8601(now),
		PlannedWork:    []string{},
		ServiceChanges: []string{},
		Delays:         []string{},
	}
}

func TestCacheStartsWithPlaceholder(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(600*time.Second, "F/R TRAINS", clock.Now)

	snap, source := c.Read()
	if snap.StatusType != StatusTypeStartup {
		t.Errorf("expected startup placeholder, got status_type %q", snap.StatusType)
	}
	if !strings.HasPrefix(source, "cached") {
		t.Errorf("expected cached label for fresh placeholder, got %q", source)
	}
}

func TestCacheFreshnessLabels(t *testing.T) {
	duration := 600 * time.Second

	tests := []struct {
		name       string
		age        time.Duration
		updating   bool
		wantPrefix string
	}{
		{"fresh just before expiry", duration - time.Second, false, "cached (599s old)"},
		{"stale with update in flight", duration + time.Second, true, "stale but updating (601s old)"},
		{"stale with no update", duration + time.Second, false, "stale fallback (601s old)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			c := NewCache(duration, "F/R TRAINS", clock.Now)
			c.Write(testSnapshot(clock.Now()))
			clock.Advance(tt.age)
			if tt.updating {
				c.BeginUpdate()
			}

			snap, source := c.Read()
			if source != tt.wantPrefix {
				t.Errorf("expected label %q, got %q", tt.wantPrefix, source)
			}
			if snap.Train != "F/R TRAINS" {
				t.Errorf("expected cached snapshot back, got train %q", snap.Train)
			}
		})
	}
}

func TestCacheReadNeverPanics(t *testing.T) {
	calls := 0
	// The first two calls seed the placeholder during construction; every
	// later call simulates an internal failure.
	brokenClock := func() time.Time {
		calls++
		if calls > 2 {
			panic("clock broken")
		}
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}

	c := NewCache(600*time.Second, "F/R TRAINS", brokenClock)
	snap, source := c.Read()

	if source != "cache_error" {
		t.Fatalf("expected cache_error label, got %q", source)
	}
	if snap == nil {
		t.Fatal("expected a safe snapshot, got nil")
	}
	if snap.StatusType != StatusTypeSystemError {
		t.Errorf("expected system_error status type, got %q", snap.StatusType)
	}
	if snap.PlannedWork == nil || snap.ServiceChanges == nil || snap.Delays == nil {
		t.Error("fallback snapshot must keep all alert lists non-nil")
	}
}

func TestCacheWriteReplacesWholesale(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(600*time.Second, "F/R TRAINS", clock.Now)
	clock.Advance(500 * time.Second)

	c.Write(testSnapshot(clock.Now()))
	snap, source := c.Read()
	if source != "cached (0s old)" {
		t.Errorf("write should reset age, got label %q", source)
	}
	if snap.StatusType != StatusTypeNormal {
		t.Errorf("expected written snapshot, got status_type %q", snap.StatusType)
	}
}

func TestCacheStats(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(600*time.Second, "F/R TRAINS", clock.Now)
	c.Write(testSnapshot(clock.Now()))
	clock.Advance(42 * time.Second)
	c.BeginUpdate()

	stats := c.Stats()
	if !stats.HasData {
		t.Error("expected has_data true")
	}
	if stats.AgeSeconds != 42 {
		t.Errorf("expected age 42s, got %d", stats.AgeSeconds)
	}
	if !stats.IsUpdating {
		t.Error("expected is_updating true")
	}
	if stats.LastUpdate == "" {
		t.Error("expected last_update timestamp")
	}

	c.EndUpdate()
	if c.Stats().IsUpdating {
		t.Error("expected is_updating false after EndUpdate")
	}
}
