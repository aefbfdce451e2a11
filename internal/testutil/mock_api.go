// Package testutil provides testing utilities for the firstnames packages.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// API path prefixes served by MockAPI.
const (
	GenderPath  = "/genderize"
	CountryPath = "/nationalize"
)

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Country is one country entry of a mocked nationalize.io answer.
type Country struct {
	ID          string
	Probability float64
}

// MockAPI is a configurable fake of genderize.io and nationalize.io. Both
// APIs are served from one server under GenderPath and CountryPath.
type MockAPI struct {
	server *httptest.Server
	mu     sync.RWMutex

	genders   map[string]map[string]any
	countries map[string][]Country
	handlers  map[string]http.HandlerFunc
	quota     map[string]string
	delay     time.Duration

	// OmitUnknown leaves names without configured data out of the response
	// instead of answering with an empty prediction.
	OmitUnknown bool

	requests map[string][][]string
	queries  map[string][]string
}

// NewMockAPI starts a new mock server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		genders:   make(map[string]map[string]any),
		countries: make(map[string][]Country),
		handlers:  make(map[string]http.HandlerFunc),
		requests:  make(map[string][][]string),
		queries:   make(map[string][]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// GenderURL returns the base URL to configure as the gender API.
func (m *MockAPI) GenderURL() string {
	return m.server.URL + GenderPath
}

// CountryURL returns the base URL to configure as the country API.
func (m *MockAPI) CountryURL() string {
	return m.server.URL + CountryPath
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetGender configures the genderize.io answer for name. An empty gender is
// sent as null.
func (m *MockAPI) SetGender(name, gender string, probability float64, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var g any
	if gender != "" {
		g = gender
	}
	m.genders[name] = map[string]any{
		"name":        name,
		"gender":      g,
		"probability": probability,
		"count":       count,
	}
}

// SetCountries configures the nationalize.io answer for name.
func (m *MockAPI) SetCountries(name string, countries ...Country) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countries[name] = countries
}

// SetQuotaHeaders adds X-Rate-Limit-* headers to every default response.
func (m *MockAPI) SetQuotaHeaders(limit, remaining, resetSeconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quota = map[string]string{
		"X-Rate-Limit-Limit":     strconv.Itoa(limit),
		"X-Rate-Limit-Remaining": strconv.Itoa(remaining),
		"X-Rate-Limit-Reset":     strconv.Itoa(resetSeconds),
	}
}

// SetDelay delays every default response.
func (m *MockAPI) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetHandler replaces the handler for one API path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse answers every request to path with resp.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// Requests returns the names of every request made to path, in arrival order.
func (m *MockAPI) Requests(path string) [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]string, len(m.requests[path]))
	copy(out, m.requests[path])
	return out
}

// RawQueries returns the undecoded query strings received on path.
func (m *MockAPI) RawQueries(path string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.queries[path]))
	copy(out, m.queries[path])
	return out
}

// RequestCount returns the number of requests made to path.
func (m *MockAPI) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests[path])
}

func (m *MockAPI) serve(w http.ResponseWriter, r *http.Request) {
	path := "/" + strings.Trim(r.URL.Path, "/")

	m.mu.Lock()
	m.requests[path] = append(m.requests[path], r.URL.Query()["name[]"])
	m.queries[path] = append(m.queries[path], r.URL.RawQuery)
	handler, exists := m.handlers[path]
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}

	switch path {
	case GenderPath:
		m.writeJSON(w, m.genderBody(r.URL.Query()["name[]"]))
	case CountryPath:
		m.writeJSON(w, m.countryBody(r.URL.Query()["name[]"]))
	default:
		http.NotFound(w, r)
	}
}

func (m *MockAPI) genderBody(names []string) []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body := make([]map[string]any, 0, len(names))
	for _, name := range names {
		if entry, ok := m.genders[name]; ok {
			body = append(body, entry)
		} else if !m.OmitUnknown {
			body = append(body, map[string]any{"name": name, "gender": nil, "probability": 0.0, "count": 0})
		}
	}
	return body
}

func (m *MockAPI) countryBody(names []string) []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body := make([]map[string]any, 0, len(names))
	for _, name := range names {
		countries, ok := m.countries[name]
		if !ok && m.OmitUnknown {
			continue
		}
		list := make([]map[string]any, 0, len(countries))
		for _, c := range countries {
			list = append(list, map[string]any{"country_id": c.ID, "probability": c.Probability})
		}
		body = append(body, map[string]any{"name": name, "country": list})
	}
	return body
}

func (m *MockAPI) writeJSON(w http.ResponseWriter, body any) {
	m.mu.RLock()
	delay := m.delay
	quota := m.quota
	m.mu.RUnlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	for key, value := range quota {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":"Request limit reached"}`,
		Headers: map[string]string{
			"X-Rate-Limit-Limit":     "1000",
			"X-Rate-Limit-Remaining": "0",
			"X-Rate-Limit-Reset":     "3600",
			"Content-Type":           "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 response with an undecodable body.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"not": "an array"`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
