package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fitrelay/strava-discord/internal/models"
)

// ErrUnauthorized is returned when the API rejects the access token. The
// caller is expected to refresh and retry once.
var ErrUnauthorized = errors.New("upstream rejected access token")

type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// GetActivity fetches the activity detail for the given id.
func (c *Client) GetActivity(ctx context.Context, accessToken string, activityID int64) (*models.Activity, error) {
	var activity models.Activity
	path := fmt.Sprintf("/api/v3/activities/%d", activityID)
	if err := c.get(ctx, path, accessToken, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// GetAthlete fetches the profile of the athlete the token belongs to.
func (c *Client) GetAthlete(ctx context.Context, accessToken string) (*models.Athlete, error) {
	var athlete models.Athlete
	if err := c.get(ctx, "/api/v3/athlete", accessToken, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// ExchangeCode converts an authorization code into tokens. Codes are
// single-use; a second exchange of the same code fails upstream.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error) {
	return c.token(ctx, map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"code":          code,
		"grant_type":    "authorization_code",
	})
}

// RefreshToken exchanges a refresh token for a fresh access token. The
// response carries a rotated refresh token that must be persisted.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	return c.token(ctx, map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"refresh_token": refreshToken,
		"grant_type":    "refresh_token",
	})
}

// AuthorizeURL builds the consent page URL the browser is redirected to at
// the start of the authorization flow.
func (c *Client) AuthorizeURL(redirectURL, state string) string {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("redirect_uri", redirectURL)
	params.Set("response_type", "code")
	params.Set("approval_prompt", "auto")
	params.Set("scope", "activity:read")
	params.Set("state", state)
	return fmt.Sprintf("%s/oauth/authorize?%s", c.baseURL, params.Encode())
}

func (c *Client) get(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) token(ctx context.Context, grant map[string]string) (*models.TokenResponse, error) {
	body, err := json.Marshal(grant)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, detail)
	}

	var token models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}
