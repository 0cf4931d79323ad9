package entity

import "time"

// Session is the authenticated user context for one request. It is built
// from the signed session cookie and discarded when the request ends.
type Session struct {
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
