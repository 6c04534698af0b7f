package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitrelay/strava-discord/internal/models"
	"github.com/fitrelay/strava-discord/internal/repositories"
)

var ErrBadState = errors.New("invalid or expired state parameter")

// Exchanger is the slice of the upstream API the authorization flow needs.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error)
	AuthorizeURL(redirectURL, state string) string
}

// AuthService runs the OAuth authorization flow: it mints a signed state
// parameter, sends the browser to the consent page and completes the code
// exchange on the redirect back.
type AuthService struct {
	tokenRepo   repositories.TokenRepository
	strava      Exchanger
	redirectURL string
	stateSecret string
	stateExpiry time.Duration
	logger      *zap.Logger
}

func NewAuthService(
	tokenRepo repositories.TokenRepository,
	stravaClient Exchanger,
	redirectURL string,
	stateSecret string,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tokenRepo:   tokenRepo,
		strava:      stravaClient,
		redirectURL: redirectURL,
		stateSecret: stateSecret,
		stateExpiry: 15 * time.Minute,
		logger:      logger,
	}
}

// BeginAuthorization returns the consent page URL carrying a freshly
// minted state token.
func (s *AuthService) BeginAuthorization() (string, error) {
	state, err := s.mintState()
	if err != nil {
		return "", fmt.Errorf("failed to mint state: %w", err)
	}
	return s.strava.AuthorizeURL(s.redirectURL, state), nil
}

// CompleteAuthorization verifies the state, exchanges the code and stores
// the athlete's tokens. Nothing is written when the exchange fails.
func (s *AuthService) CompleteAuthorization(ctx context.Context, code, state string) (*models.UserToken, error) {
	if err := s.verifyState(state); err != nil {
		return nil, ErrBadState
	}

	resp, err := s.strava.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if resp.Athlete == nil {
		return nil, errors.New("token response missing athlete identity")
	}

	token := &models.UserToken{
		AthleteID:    resp.Athlete.ID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Unix(resp.ExpiresAt, 0).UTC(),
	}
	if err := s.tokenRepo.Upsert(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.logger.Info("athlete authorized", zap.Int64("athlete_id", token.AthleteID))
	return token, nil
}

func (s *AuthService) mintState() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(s.stateExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.stateSecret))
}

func (s *AuthService) verifyState(state string) error {
	token, err := jwt.Parse(state, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.stateSecret), nil
	})
	if err != nil {
		return ErrBadState
	}
	if !token.Valid {
		return ErrBadState
	}
	return nil
}
