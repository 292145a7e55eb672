package models

import "time"

// Session proves an authenticated identity. Token is the opaque value
// carried by the session cookie.
type Session struct {
	ID        int64
	Token     string
	UserID    int64
	CreatedAt time.Time
}

// Expired reports whether the session is older than ttl at now.
// A zero ttl never expires.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.CreatedAt) > ttl
}
