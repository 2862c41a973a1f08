package transitrelay

import (
	"testing"
	"time"

	"github.com/subwaypi/transit-relay/gtfsrt"
)

func TestProjectLineActiveWindowFilter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Unix()

	tests := []struct {
		name       string
		periods    []gtfsrt.ActivePeriod
		wantActive bool
	}{
		{"no windows", nil, true},
		{"unbounded window", []gtfsrt.ActivePeriod{{}}, true},
		{"window containing now", []gtfsrt.ActivePeriod{{Start: ts - 3600, End: ts + 3600}}, true},
		{"open-ended start only", []gtfsrt.ActivePeriod{{Start: ts - 3600}}, true},
		{"open-ended end only", []gtfsrt.ActivePeriod{{End: ts + 3600}}, true},
		{"future window", []gtfsrt.ActivePeriod{{Start: ts + 3600, End: ts + 7200}}, false},
		{"past window", []gtfsrt.ActivePeriod{{Start: ts - 7200, End: ts - 3600}}, false},
		{"future start only", []gtfsrt.ActivePeriod{{Start: ts + 3600}}, false},
		{"second window matches", []gtfsrt.ActivePeriod{{Start: ts + 3600, End: ts + 7200}, {Start: ts - 60, End: ts + 60}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := gtfsrt.LineSample{
				LineID: "F",
				Status: "Delays",
				Alerts: []gtfsrt.Alert{{Header: "Expect delays", ActivePeriods: tt.periods}},
			}
			v := ProjectLine(sample, now)

			if tt.wantActive {
				if v.ActiveAlerts != 1 {
					t.Fatalf("expected 1 active alert, got %d", v.ActiveAlerts)
				}
				if v.Status != "Delays" {
					t.Errorf("active alerts should keep fetched status, got %q", v.Status)
				}
			} else {
				if v.ActiveAlerts != 0 {
					t.Fatalf("expected 0 active alerts, got %d", v.ActiveAlerts)
				}
				if v.Status != "Good Service" {
					t.Errorf("inactive alerts should read as Good Service, got %q", v.Status)
				}
			}
			if v.TotalAlerts != 1 {
				t.Errorf("total_alerts = %d, want 1", v.TotalAlerts)
			}
		})
	}
}

func TestProjectLineBucketsWithoutLineTag(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sample := gtfsrt.LineSample{
		LineID:          "F",
		Status:          "Delays",
		ActiveTripCount: 9,
		Alerts: []gtfsrt.Alert{
			{Header: "Construction near 4 Av"},
			{Header: "Trains running with delays"},
			{Header: "Trains rerouted"},
		},
	}

	v := ProjectLine(sample, now)
	if v.Train != "F TRAIN" || v.LineID != "F" {
		t.Errorf("identity fields wrong: %q / %q", v.Train, v.LineID)
	}
	if v.ActiveTrips != 9 {
		t.Errorf("active_trips = %d", v.ActiveTrips)
	}
	// Single-line buckets carry the bare alert text, no "[F]" prefix.
	if len(v.PlannedWork) != 1 || v.PlannedWork[0] != "Construction near 4 Av" {
		t.Errorf("planned_work = %v", v.PlannedWork)
	}
	if len(v.Delays) != 1 || v.Delays[0] != "Trains running with delays" {
		t.Errorf("delays = %v", v.Delays)
	}
	if len(v.ServiceChanges) != 1 || v.ServiceChanges[0] != "Trains rerouted" {
		t.Errorf("service_changes = %v", v.ServiceChanges)
	}
	if v.StatusType != StatusTypeDelay {
		t.Errorf("status_type = %q", v.StatusType)
	}
}

func TestFallbackLineViewShape(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v := FallbackLineView("Q", now)

	if v.Train != "Q TRAIN" || v.LineID != "Q" {
		t.Errorf("identity fields wrong: %q / %q", v.Train, v.LineID)
	}
	if v.StatusType != StatusTypeSystemError {
		t.Errorf("status_type = %q, want system_error", v.StatusType)
	}
	if v.PlannedWork == nil || v.ServiceChanges == nil || v.Delays == nil {
		t.Error("fallback must keep all alert lists non-nil for the display client")
	}
	if v.LastUpdated == "" {
		t.Error("last_updated must be set")
	}
}
