// Package remote models the lifecycle of one asynchronous fetch.
//
// A Remote is always in exactly one of three states: Loading, Error or
// Success. The zero value is Loading, and a value is only reachable through
// the Success state.
package remote

import (
	"encoding/json"
	"fmt"
)

// State is the lifecycle state of a Remote.
type State uint8

const (
	// StateLoading means the fetch has been started but has not settled.
	StateLoading State = iota

	// StateError means the fetch failed.
	StateError

	// StateSuccess means the fetch produced a value.
	StateSuccess
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateSuccess:
		return "success"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// MarshalText encodes s as its lower-case name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Remote holds the outcome of fetching a T.
type Remote[T any] struct {
	state State
	value T
}

// Loading returns a Remote that has not settled yet.
func Loading[T any]() Remote[T] {
	return Remote[T]{}
}

// Failed returns a Remote in the Error state.
func Failed[T any]() Remote[T] {
	return Remote[T]{state: StateError}
}

// Succeeded returns a Remote holding v.
func Succeeded[T any](v T) Remote[T] {
	return Remote[T]{state: StateSuccess, value: v}
}

// State returns the current state.
func (r Remote[T]) State() State { return r.state }

// IsLoading reports whether r is still loading.
func (r Remote[T]) IsLoading() bool { return r.state == StateLoading }

// IsError reports whether r failed.
func (r Remote[T]) IsError() bool { return r.state == StateError }

// IsSuccess reports whether r holds a value.
func (r Remote[T]) IsSuccess() bool { return r.state == StateSuccess }

// Value returns the value and true if r is in the Success state.
func (r Remote[T]) Value() (T, bool) {
	if r.state != StateSuccess {
		var zero T
		return zero, false
	}
	return r.value, true
}

type remoteJSON[T any] struct {
	State string `json:"state"`
	Value *T     `json:"value,omitempty"`
}

// MarshalJSON encodes r as {"state": "...", "value": ...}. The value is only
// present in the Success state.
func (r Remote[T]) MarshalJSON() ([]byte, error) {
	out := remoteJSON[T]{State: r.state.String()}
	if r.state == StateSuccess {
		v := r.value
		out.Value = &v
	}
	return json.Marshal(out)
}
