package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/Sternrassler/firstnames/pkg/client"
	"github.com/Sternrassler/firstnames/pkg/remote"
	"github.com/rs/zerolog"
)

func newTestStore() *Store {
	return New(zerolog.Nop())
}

func TestEnsureTracked(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		input    []string
		want     []string
	}{
		{name: "empty store", input: []string{"Alice", "Bob"}, want: []string{"Alice", "Bob"}},
		{name: "duplicates collapse to first", input: []string{"Bob", "Alice", "Bob", "Alice"}, want: []string{"Bob", "Alice"}},
		{name: "already tracked skipped", existing: []string{"Alice"}, input: []string{"Alice", "Carol"}, want: []string{"Carol"}},
		{name: "nothing new", existing: []string{"Alice", "Bob"}, input: []string{"Bob", "Alice"}, want: nil},
		{name: "empty input", input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.EnsureTracked(tt.existing)

			got := s.EnsureTracked(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EnsureTracked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsureTracked_Idempotent(t *testing.T) {
	s := newTestStore()
	names := []string{"Alice", "Bob", "Alice"}

	first := s.EnsureTracked(names)
	second := s.EnsureTracked(names)

	if len(first) != 2 {
		t.Errorf("first call added %d names, want 2", len(first))
	}
	if len(second) != 0 {
		t.Errorf("second call added %v, want none", second)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if !reflect.DeepEqual(s.Names(), []string{"Alice", "Bob"}) {
		t.Errorf("Names() = %v", s.Names())
	}
}

func TestEnsureTracked_StartsLoading(t *testing.T) {
	s := newTestStore()
	s.EnsureTracked([]string{"Alice"})

	rec, ok := s.Get("Alice")
	if !ok {
		t.Fatal("Alice should be tracked")
	}
	if !rec.Gender.IsLoading() || !rec.Country.IsLoading() {
		t.Errorf("new record = %+v, want both slots loading", rec)
	}
}

func TestGet_Untracked(t *testing.T) {
	s := newTestStore()

	if _, ok := s.Get("Nobody"); ok {
		t.Error("Get() for an untracked name should report ok=false")
	}
	if s.Has("Nobody") {
		t.Error("Has() should be false")
	}
}

func TestApplySuccess(t *testing.T) {
	s := newTestStore()
	s.EnsureTracked([]string{"Alice"})

	want := client.GenderResult{Gender: client.GenderFemale, Probability: 0.97, Count: 500}
	if !ApplySuccess(s, "Alice", GenderField, want) {
		t.Fatal("ApplySuccess() = false, want true")
	}

	rec, _ := s.Get("Alice")
	got, ok := rec.Gender.Value()
	if !ok || got != want {
		t.Errorf("gender = %+v (ok=%v), want %+v", got, ok, want)
	}
	if !rec.Country.IsLoading() {
		t.Errorf("country state = %v, want loading", rec.Country.State())
	}
}

func TestApplyError_IndependentFields(t *testing.T) {
	s := newTestStore()
	s.EnsureTracked([]string{"Alice"})

	if !ApplyError(s, "Alice", GenderField) {
		t.Fatal("ApplyError() = false, want true")
	}

	countries := []client.CountryResult{{CountryID: "US", Probability: 0.4}}
	if !ApplySuccess(s, "Alice", CountryField, countries) {
		t.Fatal("ApplySuccess(country) = false, want true")
	}

	rec, _ := s.Get("Alice")
	if !rec.Gender.IsError() {
		t.Errorf("gender state = %v, want error", rec.Gender.State())
	}
	got, ok := rec.Country.Value()
	if !ok || !reflect.DeepEqual(got, countries) {
		t.Errorf("country = %v (ok=%v), want %v", got, ok, countries)
	}
}

func TestApply_SettledSlotIsFinal(t *testing.T) {
	tests := []struct {
		name  string
		first func(*Store) bool
		then  func(*Store) bool
		want  remote.State
	}{
		{
			name:  "success then error",
			first: func(s *Store) bool { return ApplySuccess(s, "A", GenderField, client.GenderResult{Gender: client.GenderMale}) },
			then:  func(s *Store) bool { return ApplyError(s, "A", GenderField) },
			want:  remote.StateSuccess,
		},
		{
			name:  "error then success",
			first: func(s *Store) bool { return ApplyError(s, "A", GenderField) },
			then:  func(s *Store) bool { return ApplySuccess(s, "A", GenderField, client.GenderResult{Gender: client.GenderMale}) },
			want:  remote.StateError,
		},
		{
			name:  "success twice",
			first: func(s *Store) bool { return ApplySuccess(s, "A", GenderField, client.GenderResult{Count: 1}) },
			then:  func(s *Store) bool { return ApplySuccess(s, "A", GenderField, client.GenderResult{Count: 2}) },
			want:  remote.StateSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.EnsureTracked([]string{"A"})

			if !tt.first(s) {
				t.Fatal("first write rejected")
			}
			if tt.then(s) {
				t.Error("second write accepted, want rejected")
			}

			rec, _ := s.Get("A")
			if rec.Gender.State() != tt.want {
				t.Errorf("state = %v, want %v", rec.Gender.State(), tt.want)
			}
		})
	}
}

func TestApply_UntrackedIgnored(t *testing.T) {
	s := newTestStore()

	if ApplySuccess(s, "Ghost", GenderField, client.GenderResult{}) {
		t.Error("ApplySuccess() for untracked name = true")
	}
	if ApplyError(s, "Ghost", CountryField) {
		t.Error("ApplyError() for untracked name = true")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestSubscribe_SynchronousNotification(t *testing.T) {
	s := newTestStore()

	var events []Event
	cancel := s.Subscribe(func(e Event) {
		// The change is already visible when the subscriber runs.
		rec, ok := s.Get(e.Name)
		if !ok {
			t.Errorf("event for untracked name %q", e.Name)
		}
		if e.Field == KindGender && rec.Gender.State() != e.State {
			t.Errorf("gender state = %v, event says %v", rec.Gender.State(), e.State)
		}
		events = append(events, e)
	})

	s.EnsureTracked([]string{"Alice"})
	ApplyError(s, "Alice", GenderField)

	want := []Event{
		{Name: "Alice", Field: KindGender, State: remote.StateLoading},
		{Name: "Alice", Field: KindCountry, State: remote.StateLoading},
		{Name: "Alice", Field: KindGender, State: remote.StateError},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}

	cancel()
	ApplyError(s, "Alice", CountryField)
	if len(events) != len(want) {
		t.Error("cancelled subscriber was still notified")
	}
}

func TestSubscribe_RejectedWriteNotPublished(t *testing.T) {
	s := newTestStore()
	s.EnsureTracked([]string{"Alice"})
	ApplyError(s, "Alice", GenderField)

	count := 0
	s.Subscribe(func(Event) { count++ })

	ApplyError(s, "Alice", GenderField)
	ApplySuccess(s, "Bob", GenderField, client.GenderResult{})

	if count != 0 {
		t.Errorf("subscriber called %d times, want 0", count)
	}
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := newTestStore()

	names := make([]string, 100)
	for i := range names {
		names[i] = fmt.Sprintf("name%03d", i)
	}
	s.EnsureTracked(names)

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(2)
		go func(n string) {
			defer wg.Done()
			ApplySuccess(s, n, GenderField, client.GenderResult{Gender: client.GenderFemale})
		}(name)
		go func(n string) {
			defer wg.Done()
			ApplyError(s, n, CountryField)
		}(name)
	}
	wg.Wait()

	for _, name := range names {
		rec, _ := s.Get(name)
		if !rec.Gender.IsSuccess() || !rec.Country.IsError() {
			t.Fatalf("%s = %+v, want gender success and country error", name, rec)
		}
	}
}

func TestKind_String(t *testing.T) {
	if KindGender.String() != "gender" || KindCountry.String() != "country" {
		t.Errorf("kind names = %q, %q", KindGender, KindCountry)
	}
	if GenderField.Kind() != KindGender || CountryField.Kind() != KindCountry {
		t.Error("field kinds mismatch")
	}
}

func TestEvent_JSON(t *testing.T) {
	data, err := json.Marshal(Event{Name: "Alice", Field: KindCountry, State: remote.StateError})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"name":"Alice","field":"country","state":"error"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
