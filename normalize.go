package transitrelay

import (
	"fmt"
	"strings"
	"time"

	"github.com/subwaypi/transit-relay/gtfsrt"
)

// TrainLabel combines tracked line ids into the display name, e.g.
// "F/R TRAINS".
func TrainLabel(lineIDs []string) string {
	if len(lineIDs) == 0 {
		return "TRAINS"
	}
	return strings.Join(lineIDs, "/") + " TRAINS"
}

// Normalize converts per-line samples into the unified snapshot. order is
// the fetcher's insertion order; lines missing from raw are skipped.
// Returns nil when raw is empty.
//
// The aggregate status is the first non-good line status encountered, not
// the worst across lines. Clients depend on this ordering, so it is kept
// as-is.
func Normalize(raw map[string]gtfsrt.LineSample, order []string, now time.Time) *Snapshot {
	if len(raw) == 0 {
		return nil
	}

	snap := &Snapshot{
		Status:         "Good Service",
		LastUpdated:    iso8601(now),
		PlannedWork:    []string{},
		ServiceChanges: []string{},
		Delays:         []string{},
		RawByLine:      raw,
	}

	var lineIDs []string
	for _, id := range order {
		sample, ok := raw[id]
		if !ok {
			continue
		}
		lineIDs = append(lineIDs, id)

		if snap.Status == "Good Service" && sample.Status != "Good Service" {
			snap.Status = sample.Status
		}
		snap.ActiveTrips += sample.ActiveTripCount

		for _, a := range sample.Alerts {
			tagged := fmt.Sprintf("[%s] %s", id, alertText(a))
			switch classifyAlert(a) {
			case bucketPlannedWork:
				snap.PlannedWork = append(snap.PlannedWork, tagged)
			case bucketDelays:
				snap.Delays = append(snap.Delays, tagged)
			default:
				snap.ServiceChanges = append(snap.ServiceChanges, tagged)
			}
		}
	}

	snap.Train = TrainLabel(lineIDs)
	snap.StatusType = StatusTypeFor(snap.Status)
	return snap
}

type alertBucket int

const (
	bucketServiceChanges alertBucket = iota
	bucketPlannedWork
	bucketDelays
)

// alertText renders an alert as header, optionally followed by
// " - " and the description. An alert with neither falls back to its
// string form so it still surfaces somewhere.
func alertText(a gtfsrt.Alert) string {
	switch {
	case a.Header != "" && a.Description != "":
		return a.Header + " - " + a.Description
	case a.Header != "":
		return a.Header
	case a.Description != "":
		return a.Description
	default:
		return fmt.Sprintf("%v", a)
	}
}

func classifyAlert(a gtfsrt.Alert) alertBucket {
	text := strings.ToLower(alertText(a))
	switch {
	case strings.Contains(text, "construction") || strings.Contains(text, "planned work"):
		return bucketPlannedWork
	case strings.Contains(text, "delay"):
		return bucketDelays
	default:
		return bucketServiceChanges
	}
}
