package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "firstnames_quota_remaining",
		Help: "Names remaining in the current API quota window",
	}, []string{"api"})

	quotaBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firstnames_quota_blocks_total",
		Help: "Total number of requests not sent because the API quota is exhausted",
	}, []string{"api"})
)

// Tracker records API quota state and gates requests once it is exhausted.
type Tracker struct {
	store  StateStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewTracker creates a new quota tracker. A nil store selects a MemoryStore.
func NewTracker(store StateStore, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// GetState returns the last known state of api, or nil if nothing is known.
func (t *Tracker) GetState(ctx context.Context, api string) (*QuotaState, error) {
	state, err := t.store.Get(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("get quota state: %w", err)
	}
	return state, nil
}

// UpdateFromHeaders parses the quota headers of a response from api.
// Responses without X-Rate-Limit-Remaining are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, api string, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	now := t.now()
	state := &QuotaState{
		Remaining:  remain,
		LastUpdate: now,
	}

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
		state.Limit = limit
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		state.ResetAt = nextUTCMidnight(now)
	} else {
		resetSeconds, err := strconv.Atoi(resetStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		state.ResetAt = now.Add(time.Duration(resetSeconds) * time.Second)
	}

	if err := t.store.Set(ctx, api, state); err != nil {
		return fmt.Errorf("store quota state: %w", err)
	}

	quotaRemaining.WithLabelValues(api).Set(float64(remain))

	event := t.logger.Debug()
	if state.IsLow() {
		event = t.logger.Warn()
	}
	event.
		Str("api", api).
		Int("remaining", remain).
		Int("limit", state.Limit).
		Time("reset_at", state.ResetAt).
		Msg("API quota updated")

	return nil
}

// RecordExhausted marks the quota of api as used up after a 429 response.
// A known future reset time is kept, otherwise the next UTC midnight is used.
func (t *Tracker) RecordExhausted(ctx context.Context, api string) error {
	now := t.now()

	state, err := t.store.Get(ctx, api)
	if err != nil {
		return fmt.Errorf("get quota state: %w", err)
	}
	if state == nil {
		state = &QuotaState{}
	}

	state.Remaining = 0
	state.LastUpdate = now
	if !state.ResetAt.After(now) {
		state.ResetAt = nextUTCMidnight(now)
	}

	if err := t.store.Set(ctx, api, state); err != nil {
		return fmt.Errorf("store quota state: %w", err)
	}

	quotaRemaining.WithLabelValues(api).Set(0)
	t.logger.Warn().
		Str("api", api).
		Time("reset_at", state.ResetAt).
		Msg("API quota exhausted")

	return nil
}

// Allow reports whether a request to api may be sent. It returns false while
// the quota is known to be exhausted and the window has not reset.
func (t *Tracker) Allow(ctx context.Context, api string) (bool, error) {
	state, err := t.store.Get(ctx, api)
	if err != nil {
		return false, fmt.Errorf("get quota state: %w", err)
	}
	if state == nil {
		return true, nil
	}

	now := t.now()
	if state.IsExhausted(now) {
		t.logger.Warn().
			Str("api", api).
			Dur("wait_duration", state.TimeUntilReset(now)).
			Msg("API quota exhausted - request not sent")
		quotaBlocksTotal.WithLabelValues(api).Inc()
		return false, nil
	}

	return true, nil
}
