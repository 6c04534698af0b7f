package models

import (
	"time"
)

// UserToken holds the OAuth credentials for one athlete. Created by the
// authorization flow and rotated whenever a refresh grant succeeds.
type UserToken struct {
	AthleteID    int64     `json:"athlete_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token needs a refresh before use.
func (t *UserToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
