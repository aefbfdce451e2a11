// Package ratelimit tracks the daily request quota of the classification
// APIs. genderize.io and nationalize.io report the quota on every response
// through the X-Rate-Limit-Limit, X-Rate-Limit-Remaining and
// X-Rate-Limit-Reset headers; once it is used up every further request is
// answered with HTTP 429 until the reset.
package ratelimit

import (
	"time"
)

// Response headers carrying the quota.
const (
	HeaderLimit     = "X-Rate-Limit-Limit"
	HeaderRemaining = "X-Rate-Limit-Remaining"
	HeaderReset     = "X-Rate-Limit-Reset"
)

// LowQuotaThreshold is the remaining request count below which quota
// updates are logged at warn level.
const LowQuotaThreshold = 50

// QuotaState is the last known quota of one API.
type QuotaState struct {
	// Limit is the number of names allowed per window (X-Rate-Limit-Limit).
	Limit int `json:"limit"`

	// Remaining is the number of names left in the window (X-Rate-Limit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets, derived from X-Rate-Limit-Reset.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was recorded.
	LastUpdate time.Time `json:"last_update"`
}

// IsExhausted reports whether the quota is used up at now.
// An exhausted quota whose reset time has passed is no longer exhausted.
func (s *QuotaState) IsExhausted(now time.Time) bool {
	return s.Remaining <= 0 && now.Before(s.ResetAt)
}

// IsLow reports whether the remaining quota is below LowQuotaThreshold.
func (s *QuotaState) IsLow() bool {
	return s.Remaining < LowQuotaThreshold
}

// TimeUntilReset returns the duration until the quota resets.
// Returns 0 if the reset time has already passed.
func (s *QuotaState) TimeUntilReset(now time.Time) time.Duration {
	d := s.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// nextUTCMidnight is the fallback reset time when a 429 arrives without
// quota headers; both APIs reset their free quota daily at midnight UTC.
func nextUTCMidnight(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
