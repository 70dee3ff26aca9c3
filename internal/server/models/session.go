package models

import "time"

// Session is a server-side record of an issued admin token. The token
// carries the session ID as its jti claim; deleting the row revokes it.
type Session struct {
	ID        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
