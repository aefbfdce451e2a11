package batch

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/firstnames/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// MaxChunkSize is the largest number of names sent in one API call.
const MaxChunkSize = 10

// Prometheus metrics for chunk dispatch.
var (
	chunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firstnames_batch_chunks_total",
		Help: "Total chunks dispatched by field",
	}, []string{"field"})

	inflightChunks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firstnames_batch_inflight_chunks",
		Help: "Chunks whose API call has not settled yet",
	})
)

// Config holds batch fetcher configuration.
type Config struct {
	// ChunkSize is the number of names per API call (1..MaxChunkSize).
	ChunkSize int
}

// DefaultConfig returns the configuration matching the API limit.
func DefaultConfig() Config {
	return Config{ChunkSize: MaxChunkSize}
}

// ErrorSink receives one human-readable message per failed chunk.
type ErrorSink interface {
	Publish(message string) int64
}

// FetchFunc calls one API for a chunk of names. The result holds an entry for
// every name the API answered for.
type FetchFunc[T any] func(ctx context.Context, names []string) (map[string]T, error)

// Fetcher dispatches chunks and routes their outcomes into a store.
type Fetcher struct {
	store  *store.Store
	errors ErrorSink
	config Config
	logger zerolog.Logger
}

// NewFetcher creates a new batch fetcher.
func NewFetcher(db *store.Store, errors ErrorSink, config Config, logger zerolog.Logger) *Fetcher {
	if config.ChunkSize <= 0 || config.ChunkSize > MaxChunkSize {
		config.ChunkSize = MaxChunkSize
	}

	return &Fetcher{
		store:  db,
		errors: errors,
		config: config,
		logger: logger,
	}
}

// ChunkSize returns the effective chunk size.
func (f *Fetcher) ChunkSize() int {
	return f.config.ChunkSize
}

// Batch tracks the chunks started by one Run.
type Batch struct {
	chunks int
	wg     sync.WaitGroup
}

// Chunks returns the number of API calls the batch issued.
func (b *Batch) Chunks() int {
	return b.chunks
}

// Wait blocks until every chunk has settled its names in the store.
func (b *Batch) Wait() {
	b.wg.Wait()
}

// Chunk splits names into consecutive groups of at most size names.
func Chunk(names []string, size int) [][]string {
	if size <= 0 {
		size = MaxChunkSize
	}

	chunks := make([][]string, 0, (len(names)+size-1)/size)
	for start := 0; start < len(names); start += size {
		end := min(start+size, len(names))
		chunks = append(chunks, names[start:end:end])
	}
	return chunks
}

// Run fetches field for names, one goroutine per chunk, and returns without
// waiting. Every chunk settles the store on its own; completion order across
// chunks is unspecified.
func Run[T any](ctx context.Context, f *Fetcher, names []string, field store.Field[T], fetch FetchFunc[T]) *Batch {
	chunks := Chunk(names, f.config.ChunkSize)
	b := &Batch{chunks: len(chunks)}
	if len(chunks) == 0 {
		return b
	}

	// Chunks outlive the caller's context.
	ctx = context.WithoutCancel(ctx)
	kind := field.Kind().String()

	f.logger.Debug().
		Str("field", kind).
		Int("names", len(names)).
		Int("chunks", len(chunks)).
		Msg("Dispatching chunks")

	b.wg.Add(len(chunks))
	for i, chunk := range chunks {
		chunksTotal.WithLabelValues(kind).Inc()
		inflightChunks.Inc()
		go func(idx int, chunk []string) {
			defer b.wg.Done()
			defer inflightChunks.Dec()
			runChunk(ctx, f, idx, chunk, field, fetch)
		}(i, chunk)
	}
	return b
}

func runChunk[T any](ctx context.Context, f *Fetcher, idx int, chunk []string, field store.Field[T], fetch FetchFunc[T]) {
	start := time.Now()
	kind := field.Kind().String()

	results, err := fetch(ctx, chunk)
	if err != nil {
		f.logger.Warn().
			Err(err).
			Str("field", kind).
			Int("chunk", idx).
			Int("names", len(chunk)).
			Msg("Chunk fetch failed")

		if f.errors != nil {
			f.errors.Publish(err.Error())
		}
		for _, name := range chunk {
			store.ApplyError(f.store, name, field)
		}
		return
	}

	answered := 0
	for _, name := range chunk {
		v, ok := results[name]
		if !ok {
			continue
		}
		store.ApplySuccess(f.store, name, field, v)
		answered++
	}

	event := f.logger.Debug()
	if answered < len(chunk) {
		// Names missing from the answer stay Loading.
		event = f.logger.Warn()
	}
	event.
		Str("field", kind).
		Int("chunk", idx).
		Int("names", len(chunk)).
		Int("answered", answered).
		Dur("duration", time.Since(start)).
		Msg("Chunk complete")
}
