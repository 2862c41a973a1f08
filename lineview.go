package transitrelay

import (
	"time"

	"github.com/subwaypi/transit-relay/gtfsrt"
)

// LineView is the read-only projection of one line, filtered to alerts
// active right now. It is recomputed on every read of a per-line
// endpoint and never cached. The field set is a contract with the
// embedded display client and must stay present even in fallbacks.
type LineView struct {
	Train          string         `json:"train"`
	LineID         string         `json:"line_id"`
	Status         string         `json:"status"`
	StatusType     string         `json:"status_type"`
	ActiveTrips    int            `json:"active_trips"`
	LastUpdated    string         `json:"last_updated"`
	PlannedWork    []string       `json:"planned_work"`
	ServiceChanges []string       `json:"service_changes"`
	Delays         []string       `json:"delays"`
	TotalAlerts    int            `json:"total_alerts"`
	ActiveAlerts   int            `json:"active_alerts"`
	Error          string         `json:"error,omitempty"`
	DebugInfo      *LineDebugInfo `json:"debug_info,omitempty"`
}

// LineDebugInfo explains a per-line fallback to whoever is poking the API
// by hand.
type LineDebugInfo struct {
	HasRawData     bool     `json:"has_raw_data"`
	AvailableLines []string `json:"available_lines"`
	DataSource     string   `json:"data_source"`
}

// ProjectLine builds the current view of one line. Alerts outside all of
// their active windows are dropped; a line whose alerts are all inactive
// reads as Good Service regardless of the fetched status.
func ProjectLine(sample gtfsrt.LineSample, now time.Time) LineView {
	v := LineView{
		Train:          sample.LineID + " TRAIN",
		LineID:         sample.LineID,
		Status:         "Good Service",
		ActiveTrips:    sample.ActiveTripCount,
		LastUpdated:    iso8601(now),
		PlannedWork:    []string{},
		ServiceChanges: []string{},
		Delays:         []string{},
		TotalAlerts:    len(sample.Alerts),
	}

	for _, a := range sample.Alerts {
		if !alertActiveAt(a, now) {
			continue
		}
		v.ActiveAlerts++
		switch classifyAlert(a) {
		case bucketPlannedWork:
			v.PlannedWork = append(v.PlannedWork, alertText(a))
		case bucketDelays:
			v.Delays = append(v.Delays, alertText(a))
		default:
			v.ServiceChanges = append(v.ServiceChanges, alertText(a))
		}
	}

	if v.ActiveAlerts > 0 {
		v.Status = sample.Status
	}
	v.StatusType = StatusTypeFor(v.Status)
	return v
}

// FallbackLineView is the normally shaped per-line payload served when a
// line has no cached data.
func FallbackLineView(lineID string, now time.Time) LineView {
	return LineView{
		Train:          lineID + " TRAIN",
		LineID:         lineID,
		Status:         "Data temporarily unavailable",
		StatusType:     StatusTypeSystemError,
		LastUpdated:    iso8601(now),
		PlannedWork:    []string{},
		ServiceChanges: []string{},
		Delays:         []string{},
	}
}

// alertActiveAt reports whether now falls inside any of the alert's
// active windows. No windows, or a window open on the relevant side,
// counts as active.
func alertActiveAt(a gtfsrt.Alert, now time.Time) bool {
	if len(a.ActivePeriods) == 0 {
		return true
	}
	ts := now.Unix()
	for _, p := range a.ActivePeriods {
		switch {
		case p.Start == 0 && p.End == 0:
			return true
		case p.Start == 0:
			if ts <= p.End {
				return true
			}
		case p.End == 0:
			if ts >= p.Start {
				return true
			}
		default:
			if ts >= p.Start && ts <= p.End {
				return true
			}
		}
	}
	return false
}
