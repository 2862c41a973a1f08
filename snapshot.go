package transitrelay

import (
	"strings"
	"time"

	"github.com/subwaypi/transit-relay/gtfsrt"
)

// Status types served to clients. StatusType is always derived from the
// free-text status; it is never set independently.
const (
	StatusTypeNormal      = "normal"
	StatusTypeDelay       = "delay"
	StatusTypeMaintenance = "scheduled_maintenance"
	StatusTypeChange      = "service_change"
	StatusTypeSystemError = "system_error"
	StatusTypeStartup     = "system_startup"
)

// Snapshot is one immutable, fully-normalized cache payload produced by a
// single refresh cycle.
type Snapshot struct {
	Train          string   `json:"train"`
	Status         string   `json:"status"`
	StatusType     string   `json:"status_type"`
	ActiveTrips    int      `json:"active_trips"`
	LastUpdated    string   `json:"last_updated"`
	PlannedWork    []string `json:"planned_work"`
	ServiceChanges []string `json:"service_changes"`
	Delays         []string `json:"delays"`

	// RawByLine is retained for the per-line endpoints only and is never
	// serialized to clients.
	RawByLine map[string]gtfsrt.LineSample `json:"-"`
}

// StatusTypeFor derives the status type from a status string. "delay"
// outranks "planned"/"construction"; only the exact "Good Service" maps
// to normal.
func StatusTypeFor(status string) string {
	lower := strings.ToLower(status)
	switch {
	case strings.Contains(lower, "delay"):
		return StatusTypeDelay
	case strings.Contains(lower, "planned") || strings.Contains(lower, "construction"):
		return StatusTypeMaintenance
	case status == "Good Service":
		return StatusTypeNormal
	default:
		return StatusTypeChange
	}
}

func iso8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// StartupSnapshot is the placeholder stored at process start, before the
// first real fetch completes.
func StartupSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Train:          "INITIALIZING",
		Status:         "Service starting up...",
		StatusType:     StatusTypeStartup,
		LastUpdated:    iso8601(now),
		PlannedWork:    []string{},
		ServiceChanges: []string{},
		Delays:         []string{},
	}
}

// UnavailableSnapshot is the minimal safe payload served when no data was
// ever cached. Clients get a normally shaped object, never an error.
func UnavailableSnapshot(train string, now time.Time) *Snapshot {
	return &Snapshot{
		Train:          train,
		Status:         "Data temporarily unavailable",
		StatusType:     StatusTypeSystemError,
		LastUpdated:    iso8601(now),
		PlannedWork:    []string{},
		ServiceChanges: []string{},
		Delays:         []string{},
	}
}

func cacheErrorSnapshot() *Snapshot {
	return &Snapshot{
		Train:          "ERROR",
		Status:         "Cache error",
		StatusType:     StatusTypeSystemError,
		LastUpdated:    iso8601(time.Now()),
		PlannedWork:    []string{},
		ServiceChanges: []string{},
		Delays:         []string{},
	}
}
