package transitrelay

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/subwaypi/transit-relay/config"
	"github.com/subwaypi/transit-relay/formatter"
	"github.com/subwaypi/transit-relay/gtfsrt"
)

// Handlers is the read-only HTTP surface over the cache. Every handler
// calls Cache.Read exactly once and derives its response from the
// returned snapshot; no handler ever fetches from the upstream
// synchronously.
type Handlers struct {
	cache     *Cache
	refresher *Refresher
	cfg       config.AppConfig
	now       func() time.Time
}

// NewHandlers wires the HTTP surface to its cache and refresher.
func NewHandlers(cache *Cache, refresher *Refresher, cfg config.AppConfig) *Handlers {
	return &Handlers{cache: cache, refresher: refresher, cfg: cfg, now: time.Now}
}

// Router builds the chi router with all endpoints mounted.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverJSON)
	if len(h.cfg.Server.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}

	r.Get("/health", h.handleHealth)
	r.Get("/transit", h.handleTransit)
	r.Get("/transit/", h.handleTransit)
	r.Get("/transit/lines", h.handleLines)
	r.Get("/transit/line/{id}", h.handleLine)
	r.Get("/transit/status", h.handleStatus)
	r.Get("/transit/alerts", h.handleAlerts)
	r.Get("/cache/refresh", h.handleCacheRefresh)
	r.Get("/cache/status", h.handleCacheStatus)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "endpoint not found"}, false, "")
	})
	return r
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := h.cache.Stats()
	writeJSON(w, http.StatusOK, struct {
		Status          string `json:"status"`
		Timestamp       string `json:"timestamp"`
		CacheAgeSeconds int    `json:"cache_age_seconds"`
		IsUpdating      bool   `json:"is_updating"`
		HasCachedData   bool   `json:"has_cached_data"`
	}{
		Status:          "ok",
		Timestamp:       iso8601(h.now()),
		CacheAgeSeconds: stats.AgeSeconds,
		IsUpdating:      stats.IsUpdating,
		HasCachedData:   stats.HasData,
	}, false, "")
}

func (h *Handlers) handleTransit(w http.ResponseWriter, r *http.Request) {
	snap, source := h.cache.Read()
	switch formatParam(r) {
	case "text":
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Data-Source", source)
		_, _ = fmt.Fprintf(w, "%s\n\nData source: %s", FormatText(snap), source)
	case "compact":
		writeJSON(w, http.StatusOK, snap, true, source)
	default:
		writeJSON(w, http.StatusOK, snap, false, source)
	}
}

func (h *Handlers) handleLines(w http.ResponseWriter, r *http.Request) {
	snap, source := h.cache.Read()
	compact := formatParam(r) == "compact"

	if len(snap.RawByLine) == 0 {
		fallback := make(map[string]LineView, len(h.cfg.Lines))
		for _, l := range h.cfg.Lines {
			fallback[l.ID] = FallbackLineView(l.ID, h.now())
		}
		writeJSON(w, http.StatusOK, struct {
			Error         string              `json:"error"`
			DataSource    string              `json:"data_source"`
			FallbackLines map[string]LineView `json:"fallback_lines"`
		}{
			Error:         "Raw train line data not available",
			DataSource:    source,
			FallbackLines: fallback,
		}, compact, source)
		return
	}

	views := make(map[string]LineView, len(snap.RawByLine))
	for id, sample := range snap.RawByLine {
		views[id] = ProjectLine(sample, h.now())
	}
	writeJSON(w, http.StatusOK, views, compact, source)
}

func (h *Handlers) handleLine(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(chi.URLParam(r, "id"))
	snap, source := h.cache.Read()
	compact := formatParam(r) == "compact"

	sample, ok := snap.RawByLine[id]
	if !ok {
		view := FallbackLineView(id, h.now())
		view.Error = fmt.Sprintf("No cached data available for line %s", id)
		view.DebugInfo = &LineDebugInfo{
			HasRawData:     len(snap.RawByLine) > 0,
			AvailableLines: sortedLineIDs(snap.RawByLine),
			DataSource:     source,
		}
		writeJSON(w, http.StatusOK, view, compact, source)
		return
	}
	writeJSON(w, http.StatusOK, ProjectLine(sample, h.now()), compact, source)
}

func (h *Handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, source := h.cache.Read()
	writeJSON(w, http.StatusOK, struct {
		Train       string `json:"train"`
		Status      string `json:"status"`
		ActiveTrips int    `json:"active_trips"`
		LastUpdated string `json:"last_updated"`
	}{
		Train:       snap.Train,
		Status:      snap.Status,
		ActiveTrips: snap.ActiveTrips,
		LastUpdated: snap.LastUpdated,
	}, formatParam(r) == "compact", source)
}

func (h *Handlers) handleAlerts(w http.ResponseWriter, r *http.Request) {
	snap, source := h.cache.Read()

	type alertItem struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	alerts := make([]alertItem, 0, len(snap.Delays)+len(snap.ServiceChanges))
	for _, msg := range snap.Delays {
		alerts = append(alerts, alertItem{Type: "delay", Message: msg})
	}
	for _, msg := range snap.ServiceChanges {
		alerts = append(alerts, alertItem{Type: "service_change", Message: msg})
	}

	writeJSON(w, http.StatusOK, struct {
		Train      string      `json:"train"`
		AlertCount int         `json:"alert_count"`
		Alerts     []alertItem `json:"alerts"`
	}{
		Train:      snap.Train,
		AlertCount: len(alerts),
		Alerts:     alerts,
	}, formatParam(r) == "compact", source)
}

func (h *Handlers) handleCacheRefresh(w http.ResponseWriter, _ *http.Request) {
	h.refresher.TriggerRefresh()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cache refresh triggered"}, false, "")
}

func (h *Handlers) handleCacheStatus(w http.ResponseWriter, _ *http.Request) {
	stats := h.cache.Stats()
	writeJSON(w, http.StatusOK, struct {
		HasData         bool   `json:"has_data"`
		CacheAgeSeconds int    `json:"cache_age_seconds"`
		IsUpdating      bool   `json:"is_updating"`
		CacheDuration   int    `json:"cache_duration"`
		UpdateInterval  int    `json:"update_interval"`
		LastUpdate      string `json:"last_update"`
	}{
		HasData:         stats.HasData,
		CacheAgeSeconds: stats.AgeSeconds,
		IsUpdating:      stats.IsUpdating,
		CacheDuration:   h.cfg.Cache.DurationSeconds,
		UpdateInterval:  h.cfg.Cache.UpdateIntervalSeconds,
		LastUpdate:      stats.LastUpdate,
	}, false, "")
}

func formatParam(r *http.Request) string {
	return r.URL.Query().Get("format")
}

func writeJSON(w http.ResponseWriter, status int, v any, compact bool, source string) {
	w.Header().Set("Content-Type", "application/json")
	if source != "" {
		w.Header().Set("X-Data-Source", source)
	}
	w.WriteHeader(status)
	if compact {
		_, _ = w.Write(formatter.Compact(v))
	} else {
		_, _ = w.Write(formatter.JSON(v))
	}
}

func sortedLineIDs(raw map[string]gtfsrt.LineSample) []string {
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// recoverJSON turns a handler panic into a JSON 500 instead of a dropped
// connection. The panic text is returned as the error message.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				log.Printf("handler panic on %s: %v", r.URL.Path, p)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write(formatter.Compact(map[string]string{"error": fmt.Sprintf("%v", p)}))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
