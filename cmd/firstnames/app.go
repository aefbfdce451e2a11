package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/firstnames/internal/config"
	"github.com/Sternrassler/firstnames/pkg/batch"
	"github.com/Sternrassler/firstnames/pkg/client"
	"github.com/Sternrassler/firstnames/pkg/errqueue"
	"github.com/Sternrassler/firstnames/pkg/logging"
	"github.com/Sternrassler/firstnames/pkg/lookup"
	"github.com/Sternrassler/firstnames/pkg/ratelimit"
	"github.com/Sternrassler/firstnames/pkg/store"
	"github.com/redis/go-redis/v9"
)

// app is one wired session: store, error queue and lookup service.
type app struct {
	service *lookup.Service
	errors  *errqueue.Queue
	quota   *ratelimit.Tracker
	closers []func() error
}

// newApp wires the components described by cfg. With a Redis address the
// quota state is shared through Redis; otherwise it stays in memory.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	var quotaStore ratelimit.StateStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		quotaStore = ratelimit.NewRedisStore(rdb)
	}
	a.quota = ratelimit.NewTracker(quotaStore, logging.NewLogger("ratelimit"))

	api, err := client.New(client.Config{
		GenderURL:  cfg.API.GenderURL,
		CountryURL: cfg.API.CountryURL,
		UserAgent:  cfg.API.UserAgent,
		Timeout:    cfg.API.Timeout,
		Quota:      a.quota,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}

	db := store.New(logging.NewLogger("store"))
	a.errors = errqueue.New(
		errqueue.WithExpiry(cfg.Errors.Expiry),
		errqueue.WithLogger(logging.NewLogger("errqueue")),
	)
	a.closers = append(a.closers, func() error { a.errors.Close(); return nil })

	fetcher := batch.NewFetcher(db, a.errors, batch.Config{ChunkSize: cfg.API.ChunkSize}, logging.NewLogger("batch"))
	a.service = lookup.NewService(db, fetcher, api, logging.NewLogger("lookup"))

	return a, nil
}

// Close releases the Redis connection and stops expiry timers.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
