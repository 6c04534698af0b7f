package models

import (
	"fmt"
	"time"
)

// Activity is the subset of the Strava activity detail used for the
// notification embed. Distance is metres, MovingTime seconds and
// AverageSpeed metres per second, as returned by the API.
type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	Distance           float64   `json:"distance"`
	MovingTime         int64     `json:"moving_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	AverageSpeed       float64   `json:"average_speed"`
	StartDate          time.Time `json:"start_date"`
}

type Athlete struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"firstname"`
	LastName      string `json:"lastname"`
	ProfileMedium string `json:"profile_medium"`
}

func (a *Athlete) FullName() string {
	return fmt.Sprintf("%s %s", a.FirstName, a.LastName)
}

// TokenResponse is the body of a successful call to the Strava token
// endpoint. Athlete is only present on the authorization_code grant.
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    int64    `json:"expires_at"`
	Athlete      *Athlete `json:"athlete,omitempty"`
}
