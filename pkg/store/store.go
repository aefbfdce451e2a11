// Package store holds the per-name lookup results of a session.
//
// A name is tracked the first time it is submitted and is never removed. Each
// tracked name owns one Remote slot per field (gender and country). A slot
// starts Loading and settles exactly once, to Success or Error. Settled slots
// are never fetched again, even after an error: the only way to refetch a name
// is a new Store.
package store

import (
	"sync"

	"github.com/Sternrassler/firstnames/pkg/notify"
	"github.com/Sternrassler/firstnames/pkg/remote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for the result store.
var (
	trackedNames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firstnames_tracked_names",
		Help: "Number of distinct names tracked by the result store",
	})

	resultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firstnames_results_total",
		Help: "Settled result slots by field and outcome",
	}, []string{"field", "outcome"})
)

// Event describes one change of a result slot.
type Event struct {
	Name  string       `json:"name"`
	Field Kind         `json:"field"`
	State remote.State `json:"state"`
}

// Store maps names to their lookup records. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string

	events notify.Hub[Event]
	logger zerolog.Logger
}

// New creates an empty store.
func New(logger zerolog.Logger) *Store {
	return &Store{
		records: make(map[string]*Record),
		logger:  logger,
	}
}

// EnsureTracked adds every name not yet in the store with both slots Loading
// and returns the added names in input order. Duplicates in names collapse to
// their first occurrence; names already tracked are skipped whatever their
// state.
func (s *Store) EnsureTracked(names []string) []string {
	s.mu.Lock()
	var added []string
	for _, name := range names {
		if _, ok := s.records[name]; ok {
			continue
		}
		s.records[name] = &Record{}
		s.order = append(s.order, name)
		added = append(added, name)
	}
	total := len(s.records)
	s.mu.Unlock()

	if len(added) == 0 {
		return nil
	}

	trackedNames.Set(float64(total))
	s.logger.Debug().
		Int("names", len(added)).
		Int("tracked", total).
		Msg("Tracking new names")

	for _, name := range added {
		s.events.Publish(Event{Name: name, Field: KindGender, State: remote.StateLoading})
		s.events.Publish(Event{Name: name, Field: KindCountry, State: remote.StateLoading})
	}
	return added
}

// Get returns a copy of the record of name. ok is false if name was never
// tracked.
func (s *Store) Get(name string) (rec Record, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[name]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Has reports whether name is tracked.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[name]
	return ok
}

// Len returns the number of tracked names.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Names returns all tracked names in the order they were first tracked.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Subscribe registers fn for every slot change. fn runs on the goroutine that
// made the change, after the change is visible through Get and before the
// mutating call returns.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	return s.events.Subscribe(fn)
}

// ApplySuccess settles field of name with v. It reports false, and changes
// nothing, if name is not tracked or the slot has already settled.
func ApplySuccess[T any](s *Store, name string, field Field[T], v T) bool {
	return s.settle(name, field.kind, func(r *Record) bool {
		slot := field.slot(r)
		if !slot.IsLoading() {
			return false
		}
		*slot = remote.Succeeded(v)
		return true
	}, remote.StateSuccess)
}

// ApplyError settles field of name as failed. It reports false, and changes
// nothing, if name is not tracked or the slot has already settled.
func ApplyError[T any](s *Store, name string, field Field[T]) bool {
	return s.settle(name, field.kind, func(r *Record) bool {
		slot := field.slot(r)
		if !slot.IsLoading() {
			return false
		}
		*slot = remote.Failed[T]()
		return true
	}, remote.StateError)
}

func (s *Store) settle(name string, kind Kind, apply func(*Record) bool, to remote.State) bool {
	s.mu.Lock()
	r, tracked := s.records[name]
	changed := tracked && apply(r)
	s.mu.Unlock()

	if !changed {
		s.logger.Warn().
			Str("name", name).
			Stringer("field", kind).
			Bool("tracked", tracked).
			Stringer("state", to).
			Msg("Ignoring write to untracked or settled slot")
		return false
	}

	resultsTotal.WithLabelValues(kind.String(), to.String()).Inc()
	s.events.Publish(Event{Name: name, Field: kind, State: to})
	return true
}
