// Package errqueue keeps the user-visible error messages of a session.
//
// Every message gets the next id and expires on its own after DefaultExpiry
// unless it is dismissed first. Entries always iterate in ascending id order.
package errqueue

import (
	"sort"
	"sync"
	"time"

	"github.com/Sternrassler/firstnames/pkg/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultExpiry is how long a message stays queued without dismissal.
const DefaultExpiry = 10 * time.Second

// Prometheus metrics for the error queue.
var (
	activeMessages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firstnames_error_messages_active",
		Help: "Error messages currently queued for display",
	})

	publishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firstnames_error_messages_published_total",
		Help: "Total error messages published",
	})
)

// Entry is one queued message.
type Entry struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// Reason tells why the queue changed.
type Reason string

const (
	ReasonPublished Reason = "published"
	ReasonDismissed Reason = "dismissed"
	ReasonExpired   Reason = "expired"
)

// Change describes one queue mutation.
type Change struct {
	Reason Reason `json:"reason"`
	Entry  Entry  `json:"entry"`
}

// Stopper is the part of *time.Timer the queue needs.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules fn after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, fn func()) Stopper

// Option configures a Queue.
type Option func(*Queue)

// WithExpiry sets how long messages stay queued. Non-positive values keep the
// default.
func WithExpiry(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.expiry = d
		}
	}
}

// WithLogger sets the queue logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithAfterFunc replaces the timer used for expiry (for testing).
func WithAfterFunc(fn AfterFunc) Option {
	return func(q *Queue) {
		q.afterFunc = fn
	}
}

// Queue is the error message queue. It is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]string
	timers  map[int64]Stopper
	closed  bool

	expiry    time.Duration
	afterFunc AfterFunc
	changes   notify.Hub[Change]
	logger    zerolog.Logger
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		entries: make(map[int64]string),
		timers:  make(map[int64]Stopper),
		expiry:  DefaultExpiry,
		afterFunc: func(d time.Duration, fn func()) Stopper {
			return time.AfterFunc(d, fn)
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Publish queues message and returns its id. Ids start at 1 and are never
// reused. After Close the message is logged but not queued, and 0 is returned.
func (q *Queue) Publish(message string) int64 {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn().Str("message", message).Msg("Error queue closed, message dropped")
		return 0
	}
	q.nextID++
	id := q.nextID
	q.entries[id] = message
	active := len(q.entries)
	q.mu.Unlock()

	publishedTotal.Inc()
	activeMessages.Set(float64(active))
	q.logger.Info().
		Int64("id", id).
		Str("message", message).
		Msg("Error message published")

	q.changes.Publish(Change{Reason: ReasonPublished, Entry: Entry{ID: id, Message: message}})

	// The timer starts after the published change so expiry is always
	// reported second, and a timer firing inline never runs under q.mu.
	timer := q.afterFunc(q.expiry, func() { q.remove(id, ReasonExpired) })
	q.mu.Lock()
	_, queued := q.entries[id]
	keep := queued && !q.closed
	if keep {
		q.timers[id] = timer
	}
	q.mu.Unlock()
	if !keep {
		timer.Stop()
	}
	return id
}

// Dismiss removes id. It reports whether id was queued; dismissing an absent
// id does nothing.
func (q *Queue) Dismiss(id int64) bool {
	return q.remove(id, ReasonDismissed)
}

func (q *Queue) remove(id int64, reason Reason) bool {
	q.mu.Lock()
	message, ok := q.entries[id]
	if !ok {
		q.mu.Unlock()
		return false
	}
	delete(q.entries, id)
	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	active := len(q.entries)
	q.mu.Unlock()

	activeMessages.Set(float64(active))
	q.logger.Debug().
		Int64("id", id).
		Str("reason", string(reason)).
		Msg("Error message removed")

	q.changes.Publish(Change{Reason: reason, Entry: Entry{ID: id, Message: message}})
	return true
}

// Entries returns the queued messages in ascending id order.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, 0, len(q.entries))
	for id, msg := range q.entries {
		out = append(out, Entry{ID: id, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Subscribe registers fn for every queue change. fn runs synchronously on the
// goroutine that made the change.
func (q *Queue) Subscribe(fn func(Change)) (cancel func()) {
	return q.changes.Subscribe(fn)
}

// Close stops all expiry timers. Queued entries stay readable; later
// publishes are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.closed = true
}
