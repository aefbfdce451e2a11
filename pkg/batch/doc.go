// Package batch splits newly tracked names into API-sized chunks and settles
// the result store from each chunk's outcome.
//
// Both classification APIs accept at most 10 names per call. A batch for one
// field issues one call per chunk:
//
//	fetcher := batch.NewFetcher(db, errors, batch.DefaultConfig(), logger)
//	b := batch.Run(ctx, fetcher, names, store.GenderField, api.Genders)
//	b.Wait() // optional; the UI never waits
//
// The fetcher:
//   - Chunks names in order (ceil(n/10) chunks)
//   - Dispatches every chunk on its own goroutine at once, without a limiter
//   - Writes Success for every name the API answered for
//   - Publishes one error message per failing chunk, then marks each of its
//     names as Error
//
// Chunks are never cancelled. A chunk keeps running after the context passed
// to Run is done, so a finished HTTP request does not strand names in Loading.
package batch
