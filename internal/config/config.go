package config

import (
	"errors"
	"os"
)

const DefaultStravaBaseURL = "https://www.strava.com"

type Config struct {
	ServerPort         string
	DatabaseURL        string
	RedisURL           string
	RelayChannel       string
	StravaBaseURL      string
	StravaClientID     string
	StravaClientSecret string
	StravaVerifyToken  string
	DiscordWebhookURL  string
	OAuthRedirectURL   string
	StateSecret        string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		RelayChannel:       getEnv("RELAY_CHANNEL", "relay:activities"),
		StravaBaseURL:      getEnv("STRAVA_BASE_URL", DefaultStravaBaseURL),
		StravaClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		StravaClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		StravaVerifyToken:  os.Getenv("STRAVA_VERIFY_TOKEN"),
		DiscordWebhookURL:  os.Getenv("DISCORD_WEBHOOK_URL"),
		OAuthRedirectURL:   os.Getenv("OAUTH_REDIRECT_URL"),
		StateSecret:        os.Getenv("STATE_SECRET"),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.StravaClientID == "" {
		return nil, errors.New("STRAVA_CLIENT_ID is required")
	}
	if cfg.StravaClientSecret == "" {
		return nil, errors.New("STRAVA_CLIENT_SECRET is required")
	}
	if cfg.StravaVerifyToken == "" {
		return nil, errors.New("STRAVA_VERIFY_TOKEN is required")
	}
	if cfg.DiscordWebhookURL == "" {
		return nil, errors.New("DISCORD_WEBHOOK_URL is required")
	}
	if cfg.OAuthRedirectURL == "" {
		return nil, errors.New("OAUTH_REDIRECT_URL is required")
	}
	if cfg.StateSecret == "" {
		return nil, errors.New("STATE_SECRET is required")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
