package transitrelay

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/subwaypi/transit-relay/gtfsrt"
	"github.com/subwaypi/transit-relay/telemetry"
)

// RawFetcher produces per-line samples for one refresh cycle. Satisfied
// by *gtfsrt.Fetcher.
type RawFetcher interface {
	FetchRaw(ctx context.Context) (map[string]gtfsrt.LineSample, error)
}

// Refresher is the cache's sole writer: an infinite fetch→normalize→write
// loop. A failed cycle leaves the cache untouched; a panicking cycle is
// recovered and retried after a short delay. The loop only stops with its
// context.
type Refresher struct {
	cache      *Cache
	fetcher    RawFetcher
	order      []string
	interval   time.Duration
	retryDelay time.Duration

	// after and now are swapped for fakes in tests.
	after func(time.Duration) <-chan time.Time
	now   func() time.Time

	// limiter paces how often manual triggers reach the upstream.
	limiter *rate.Limiter
}

// NewRefresher creates a refresher writing into cache. order is the
// configured line order the normalizer iterates in.
func NewRefresher(cache *Cache, fetcher RawFetcher, order []string, interval, retryDelay time.Duration) *Refresher {
	return &Refresher{
		cache:      cache,
		fetcher:    fetcher,
		order:      order,
		interval:   interval,
		retryDelay: retryDelay,
		after:      time.After,
		now:        time.Now,
		limiter:    rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// Run loops until ctx is cancelled. Each cycle is followed by the update
// interval, or by the short retry delay if the cycle panicked.
func (r *Refresher) Run(ctx context.Context) {
	for {
		delay := r.interval
		if !r.runCycle(ctx) {
			delay = r.retryDelay
		}
		select {
		case <-ctx.Done():
			return
		case <-r.after(delay):
		}
	}
}

// TriggerRefresh starts a detached refresh and returns immediately. The
// limiter spaces out how fast repeated triggers actually hit the
// upstream; concurrent refreshes are safe because the cache serializes
// writes.
func (r *Refresher) TriggerRefresh() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := r.limiter.Wait(ctx); err != nil {
			return
		}
		r.runCycle(ctx)
	}()
}

// runCycle performs one fetch→normalize→write pass. It reports false only
// when the cycle panicked; an upstream failure is an expected outcome and
// keeps the normal interval.
func (r *Refresher) runCycle(ctx context.Context) (ok bool) {
	cycle := uuid.NewString()[:8]
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[%s] refresh cycle panic: %v", cycle, p)
			telemetry.RecordCycle(ctx, false)
			ok = false
		}
	}()
	ok = true

	r.cache.BeginUpdate()
	defer r.cache.EndUpdate()

	log.Printf("[%s] fetching fresh transit data", cycle)
	raw, err := r.fetcher.FetchRaw(ctx)
	if err != nil {
		log.Printf("[%s] fetch failed, keeping old cache: %v", cycle, err)
		telemetry.RecordCycle(ctx, false)
		return ok
	}
	snap := Normalize(raw, r.order, r.now())
	if snap == nil {
		log.Printf("[%s] no usable data, keeping old cache", cycle)
		telemetry.RecordCycle(ctx, false)
		return ok
	}

	r.cache.Write(snap)
	telemetry.RecordCycle(ctx, true)
	log.Printf("[%s] cache updated: train=%q status=%q trips=%d", cycle, snap.Train, snap.Status, snap.ActiveTrips)
	return ok
}
