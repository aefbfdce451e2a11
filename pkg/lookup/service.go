// Package lookup starts the gender and country fetches for submitted names.
package lookup

import (
	"context"

	"github.com/Sternrassler/firstnames/pkg/batch"
	"github.com/Sternrassler/firstnames/pkg/client"
	"github.com/Sternrassler/firstnames/pkg/store"
	"github.com/rs/zerolog"
)

// API fetches both fields for at most batch.MaxChunkSize names per call.
// *client.Client satisfies it.
type API interface {
	Genders(ctx context.Context, names []string) (map[string]client.GenderResult, error)
	Countries(ctx context.Context, names []string) (map[string][]client.CountryResult, error)
}

// Service connects the store to the APIs.
type Service struct {
	store   *store.Store
	fetcher *batch.Fetcher
	api     API
	logger  zerolog.Logger
}

// NewService creates a new lookup service. fetcher must write to db.
func NewService(db *store.Store, fetcher *batch.Fetcher, api API, logger zerolog.Logger) *Service {
	return &Service{
		store:   db,
		fetcher: fetcher,
		api:     api,
		logger:  logger,
	}
}

// Store returns the store the service writes to.
func (s *Service) Store() *store.Store {
	return s.store
}

// Submission is the work started by one Submit call.
type Submission struct {
	// New lists the names tracked by this submission, in input order.
	New []string

	gender  *batch.Batch
	country *batch.Batch
}

// Wait blocks until both fields of every new name have settled or were left
// Loading by an answer that omitted them.
func (s *Submission) Wait() {
	if s.gender != nil {
		s.gender.Wait()
	}
	if s.country != nil {
		s.country.Wait()
	}
}

// Submit tracks names and fetches both fields for the names not seen before.
// Names already tracked are not fetched again, whatever their state. It
// returns without waiting for any API call.
func (s *Service) Submit(ctx context.Context, names []string) *Submission {
	added := s.store.EnsureTracked(names)
	sub := &Submission{New: added}
	if len(added) == 0 {
		return sub
	}

	s.logger.Info().
		Int("submitted", len(names)).
		Int("new", len(added)).
		Msg("Starting lookups")

	sub.gender = batch.Run(ctx, s.fetcher, added, store.GenderField, s.api.Genders)
	sub.country = batch.Run(ctx, s.fetcher, added, store.CountryField, s.api.Countries)
	return sub
}
