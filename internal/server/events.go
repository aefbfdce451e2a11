package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/firstnames/pkg/errqueue"
	"github.com/Sternrassler/firstnames/pkg/store"
	"github.com/rs/zerolog/hlog"
)

// Server-sent event names.
const (
	EventResult = "result"
	EventErrors = "errors"
)

const (
	eventBuffer       = 256
	heartbeatInterval = 15 * time.Second
)

type sseEvent struct {
	name string
	data any
}

// ErrorsEvent is the payload of an errors event: the change and the queue
// after it.
type ErrorsEvent struct {
	Change  errqueue.Change  `json:"change"`
	Entries []errqueue.Entry `json:"entries"`
}

// handleEvents streams store and error queue changes as server-sent events.
// Subscribers must not block the mutating goroutine, so events that do not
// fit the buffer are dropped; clients re-read /api/results after a gap.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// The stream outlives the server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("Cannot clear write deadline")
	}

	logger := hlog.FromRequest(r)
	logger.Debug().Msg("Event stream opened")
	defer logger.Debug().Msg("Event stream closed")

	events := make(chan sseEvent, eventBuffer)
	send := func(e sseEvent) {
		select {
		case events <- e:
		default:
			logger.Warn().Str("event", e.name).Msg("Event stream buffer full, event dropped")
		}
	}

	cancelStore := s.service.Store().Subscribe(func(e store.Event) {
		send(sseEvent{name: EventResult, data: e})
	})
	defer cancelStore()

	cancelErrors := s.errors.Subscribe(func(c errqueue.Change) {
		send(sseEvent{name: EventErrors, data: ErrorsEvent{Change: c, Entries: s.errors.Entries()}})
	})
	defer cancelErrors()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e := <-events:
			data, err := json.Marshal(e.data)
			if err != nil {
				logger.Warn().Err(err).Str("event", e.name).Msg("Failed to encode event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
