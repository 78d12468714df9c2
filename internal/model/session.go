package model

import "time"

// Session is a server-side login session. Token is the opaque credential
// handed to the client; the row is the source of truth for validation.
type Session struct {
	Token     string    `gorm:"primaryKey;size:64" json:"token"`
	AccountID uint      `gorm:"not null;index" json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
