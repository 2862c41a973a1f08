package gtfsrt

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/subwaypi/transit-relay/config"
	"github.com/subwaypi/transit-relay/telemetry"
)

// ErrAllFeedsFailed is returned when no tracked feed produced usable data.
// A partial failure is not an error; the failed feed's lines are simply
// omitted from the result.
var ErrAllFeedsFailed = errors.New("all feeds failed")

// FeedClient fetches one decoded GTFS-RT feed. Satisfied by *Client.
type FeedClient interface {
	FetchFeed(ctx context.Context, url string) (*gtfsrtpb.FeedMessage, error)
}

// Fetcher turns the configured feeds into per-line samples.
type Fetcher struct {
	client FeedClient
	lines  []config.LineConfig
}

// NewFetcher creates a fetcher for the given tracked lines.
func NewFetcher(client FeedClient, lines []config.LineConfig) *Fetcher {
	return &Fetcher{client: client, lines: lines}
}

// FetchRaw fetches each distinct feed URL at most once and fans the
// results out to the lines it covers, in configured line order. Only a
// simultaneous failure of every feed returns an error.
func (f *Fetcher) FetchRaw(ctx context.Context) (map[string]LineSample, error) {
	feeds := map[string]*gtfsrtpb.FeedMessage{}
	failed := 0
	for _, l := range f.lines {
		if _, seen := feeds[l.FeedURL]; seen {
			continue
		}
		start := time.Now()
		fm, err := f.client.FetchFeed(ctx, l.FeedURL)
		telemetry.RecordFetchDuration(ctx, time.Since(start), err == nil)
		if err != nil {
			log.Printf("feed fetch failed for %s: %v", l.ID, err)
			feeds[l.FeedURL] = nil
			failed++
			continue
		}
		feeds[l.FeedURL] = fm
	}
	if failed == len(feeds) {
		return nil, ErrAllFeedsFailed
	}

	samples := make(map[string]LineSample, len(f.lines))
	for _, l := range f.lines {
		fm := feeds[l.FeedURL]
		if fm == nil {
			continue
		}
		samples[l.ID] = reduceLine(l.ID, fm)
	}
	return samples, nil
}

// reduceLine extracts the alerts naming a line and counts its trip
// updates from one decoded feed.
func reduceLine(lineID string, fm *gtfsrtpb.FeedMessage) LineSample {
	s := LineSample{LineID: lineID}
	for _, e := range fm.Entity {
		if e.TripUpdate != nil {
			if e.TripUpdate.Trip != nil && e.TripUpdate.Trip.RouteId != nil && *e.TripUpdate.Trip.RouteId == lineID {
				s.ActiveTripCount++
			}
			continue
		}
		if e.Alert == nil || !alertInformsRoute(e.Alert, lineID) {
			continue
		}
		a := Alert{}
		if e.Id != nil {
			a.ID = *e.Id
		}
		if e.Alert.HeaderText != nil {
			a.Header = translatedText(e.Alert.HeaderText)
		}
		if e.Alert.DescriptionText != nil {
			a.Description = translatedText(e.Alert.DescriptionText)
		}
		for _, ie := range e.Alert.InformedEntity {
			if ie.RouteId != nil {
				a.RouteIDs = append(a.RouteIDs, *ie.RouteId)
			}
		}
		for _, ap := range e.Alert.ActivePeriod {
			p := ActivePeriod{}
			if ap.Start != nil {
				p.Start = int64(*ap.Start)
			}
			if ap.End != nil {
				p.End = int64(*ap.End)
			}
			a.ActivePeriods = append(a.ActivePeriods, p)
		}
		s.Alerts = append(s.Alerts, a)
	}
	s.Status = DeriveStatus(s.Alerts)
	return s
}

// DeriveStatus derives a line's status purely from its own alerts:
// "delay" anywhere in the text wins, then "construction", then any alert
// at all means a service change.
func DeriveStatus(alerts []Alert) string {
	if len(alerts) == 0 {
		return "Good Service"
	}
	var b strings.Builder
	for _, a := range alerts {
		b.WriteString(a.Header)
		b.WriteByte(' ')
		b.WriteString(a.Description)
		b.WriteByte(' ')
	}
	text := strings.ToLower(b.String())
	switch {
	case strings.Contains(text, "delay"):
		return "Delays"
	case strings.Contains(text, "construction"):
		return "Planned Work"
	default:
		return "Service Change"
	}
}

func alertInformsRoute(a *gtfsrtpb.Alert, routeID string) bool {
	for _, ie := range a.InformedEntity {
		if ie.RouteId != nil && *ie.RouteId == routeID {
			return true
		}
	}
	return false
}

func translatedText(ts *gtfsrtpb.TranslatedString) string {
	if ts == nil || len(ts.Translation) == 0 {
		return ""
	}
	for _, tr := range ts.Translation {
		if tr.Language != nil && *tr.Language == "en" && tr.Text != nil {
			return *tr.Text
		}
	}
	if ts.Translation[0].Text != nil {
		return *ts.Translation[0].Text
	}
	return ""
}
