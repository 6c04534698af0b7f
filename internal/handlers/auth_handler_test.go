package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitrelay/strava-discord/internal/models"
	"github.com/fitrelay/strava-discord/internal/services"
)

type fakeAuthorizer struct {
	consentURL  string
	beginErr    error
	completeErr error
	codes       []string
	states      []string
}

func (f *fakeAuthorizer) BeginAuthorization() (string, error) {
	if f.beginErr != nil {
		return "", f.beginErr
	}
	return f.consentURL, nil
}

func (f *fakeAuthorizer) CompleteAuthorization(_ context.Context, code, state string) (*models.UserToken, error) {
	f.codes = append(f.codes, code)
	f.states = append(f.states, state)
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &models.UserToken{AthleteID: 42}, nil
}

func TestStart_RedirectsToConsentPage(t *testing.T) {
	auth := &fakeAuthorizer{consentURL: "https://www.strava.com/oauth/authorize?state=s1"}
	handler := NewAuthHandler(auth, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/authorize/start", nil)
	rec := httptest.NewRecorder()

	handler.Start(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, auth.consentURL, rec.Header().Get("Location"))
}

func TestCallback_Success(t *testing.T) {
	auth := &fakeAuthorizer{}
	handler := NewAuthHandler(auth, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/authorize?code=abc&state=s1", nil)
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Connected!")
	assert.Equal(t, []string{"abc"}, auth.codes)
	assert.Equal(t, []string{"s1"}, auth.states)
}

func TestCallback_MissingCode(t *testing.T) {
	auth := &fakeAuthorizer{}
	handler := NewAuthHandler(auth, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/authorize?state=s1", nil)
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, auth.codes, "no exchange without a code")
}

func TestCallback_BadState(t *testing.T) {
	auth := &fakeAuthorizer{completeErr: services.ErrBadState}
	handler := NewAuthHandler(auth, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/authorize?code=abc&state=forged", nil)
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCallback_ExchangeFailure(t *testing.T) {
	auth := &fakeAuthorizer{completeErr: errors.New("code already used")}
	handler := NewAuthHandler(auth, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/authorize?code=abc&state=s1", nil)
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
