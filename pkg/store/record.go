package store

import (
	"fmt"

	"github.com/Sternrassler/firstnames/pkg/client"
	"github.com/Sternrassler/firstnames/pkg/remote"
)

// Kind names one of the independently fetched fields of a record.
type Kind uint8

const (
	KindGender Kind = iota + 1
	KindCountry
)

// String returns "gender" or "country".
func (k Kind) String() string {
	switch k {
	case KindGender:
		return "gender"
	case KindCountry:
		return "country"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Record is the lookup state of one name. The zero value has both slots
// Loading.
type Record struct {
	Gender  remote.Remote[client.GenderResult]    `json:"gender"`
	Country remote.Remote[[]client.CountryResult] `json:"country"`
}

// Field selects one slot of a Record with its value type.
type Field[T any] struct {
	kind Kind
	slot func(*Record) *remote.Remote[T]
}

// Kind returns which slot f selects.
func (f Field[T]) Kind() Kind { return f.kind }

// Get returns the slot f selects from r.
func (f Field[T]) Get(r Record) remote.Remote[T] { return *f.slot(&r) }

// The two fields of a record.
var (
	GenderField = Field[client.GenderResult]{
		kind: KindGender,
		slot: func(r *Record) *remote.Remote[client.GenderResult] { return &r.Gender },
	}
	CountryField = Field[[]client.CountryResult]{
		kind: KindCountry,
		slot: func(r *Record) *remote.Remote[[]client.CountryResult] { return &r.Country },
	}
)
