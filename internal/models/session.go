package models

import "time"

// AdminSession is the client-held soft session around the shared admin
// secret. It authorizes nothing on its own; the server checks the token on
// every request.
type AdminSession struct {
	Token        string    `json:"token"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// IsExpired reports whether now is past the sliding expiry or the session
// has reached maxAge since creation.
func (s *AdminSession) IsExpired(now time.Time, maxAge time.Duration) bool {
	return now.After(s.ExpiresAt) || now.Sub(s.CreatedAt) >= maxAge
}

// UpdateActivity slides the expiry forward unless the absolute cap is reached.
// It reports whether the session changed.
func (s *AdminSession) UpdateActivity(now time.Time, idle, maxAge time.Duration) bool {
	if now.Sub(s.CreatedAt) >= maxAge {
		return false
	}
	s.LastActiveAt = now
	s.ExpiresAt = now.Add(idle)
	return true
}
