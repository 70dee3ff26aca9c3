package models

import "time"

// Settings are the admin-editable server settings.
type Settings struct {
	AutoSync bool       `json:"auto_sync"`
	LastSync *time.Time `json:"last_sync,omitempty"`
}

// Session is returned by a successful admin login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
