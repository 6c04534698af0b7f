package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitrelay/strava-discord/internal/models"
)

type fakeExchanger struct {
	exchanges   []string
	exchangeErr error
	response    *models.TokenResponse
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, code string) (*models.TokenResponse, error) {
	f.exchanges = append(f.exchanges, code)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.response, nil
}

func (f *fakeExchanger) AuthorizeURL(redirectURL, state string) string {
	return fmt.Sprintf("https://www.strava.com/oauth/authorize?redirect_uri=%s&state=%s",
		url.QueryEscape(redirectURL), url.QueryEscape(state))
}

func authFixture(t *testing.T) (*AuthService, *fakeTokenRepo, *fakeExchanger) {
	t.Helper()

	tokens := newFakeTokenRepo()
	exchanger := &fakeExchanger{
		response: &models.TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
			Athlete:      &models.Athlete{ID: 42, FirstName: "Jo", LastName: "Runner"},
		},
	}

	svc := NewAuthService(tokens, exchanger, "https://relay.example.com/authorize", "state-secret", zap.NewNop())
	return svc, tokens, exchanger
}

// stateFrom pulls the state parameter back out of the consent URL.
func stateFrom(t *testing.T, consentURL string) string {
	t.Helper()
	u, err := url.Parse(consentURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestAuthorization_RoundTrip(t *testing.T) {
	svc, tokens, exchanger := authFixture(t)
	ctx := context.Background()

	consentURL, err := svc.BeginAuthorization()
	require.NoError(t, err)
	state := stateFrom(t, consentURL)

	token, err := svc.CompleteAuthorization(ctx, "abc", state)
	require.NoError(t, err)
	assert.Equal(t, int64(42), token.AthleteID)
	assert.Equal(t, []string{"abc"}, exchanger.exchanges)

	stored, err := tokens.GetByAthleteID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "access-1", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
}

func TestCompleteAuthorization_BadState(t *testing.T) {
	svc, tokens, exchanger := authFixture(t)

	_, err := svc.CompleteAuthorization(context.Background(), "abc", "forged-state")

	assert.ErrorIs(t, err, ErrBadState)
	assert.Empty(t, exchanger.exchanges, "no exchange without a valid state")
	assert.Empty(t, tokens.tokens)
}

func TestCompleteAuthorization_ExpiredState(t *testing.T) {
	svc, _, _ := authFixture(t)
	svc.stateExpiry = -time.Minute

	consentURL, err := svc.BeginAuthorization()
	require.NoError(t, err)

	_, err = svc.CompleteAuthorization(context.Background(), "abc", stateFrom(t, consentURL))
	assert.ErrorIs(t, err, ErrBadState)
}

func TestCompleteAuthorization_ExchangeFailureWritesNothing(t *testing.T) {
	svc, tokens, exchanger := authFixture(t)
	exchanger.exchangeErr = errors.New("code already used")

	consentURL, err := svc.BeginAuthorization()
	require.NoError(t, err)

	_, err = svc.CompleteAuthorization(context.Background(), "abc", stateFrom(t, consentURL))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadState)
	assert.Empty(t, tokens.tokens, "failed exchange must not leave partial state")
	assert.Zero(t, tokens.upserts)
}

func TestCompleteAuthorization_MissingAthlete(t *testing.T) {
	svc, tokens, exchanger := authFixture(t)
	exchanger.response.Athlete = nil

	consentURL, err := svc.BeginAuthorization()
	require.NoError(t, err)

	_, err = svc.CompleteAuthorization(context.Background(), "abc", stateFrom(t, consentURL))

	require.Error(t, err)
	assert.Empty(t, tokens.tokens)
}
