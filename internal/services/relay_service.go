package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitrelay/strava-discord/internal/models"
	"github.com/fitrelay/strava-discord/internal/repositories"
	"github.com/fitrelay/strava-discord/internal/strava"
)

var ErrNoToken = errors.New("no stored token for athlete")

// StravaClient is the slice of the upstream API the relay needs.
type StravaClient interface {
	GetActivity(ctx context.Context, accessToken string, activityID int64) (*models.Activity, error)
	GetAthlete(ctx context.Context, accessToken string) (*models.Athlete, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
}

type Notifier interface {
	Announce(ctx context.Context, activity *models.Activity, athlete *models.Athlete) error
}

type Publisher interface {
	Publish(ctx context.Context, event *models.RelayEvent) error
}

// RelayService is both halves of the relay: Receive is the producer called
// by the webhook endpoint, HandleRelay the consumer driven by the topic.
type RelayService struct {
	messageRepo repositories.MessageRepository
	tokenRepo   repositories.TokenRepository
	topic       Publisher
	strava      StravaClient
	notifier    Notifier
	logger      *zap.Logger
}

func NewRelayService(
	messageRepo repositories.MessageRepository,
	tokenRepo repositories.TokenRepository,
	topic Publisher,
	stravaClient StravaClient,
	notifier Notifier,
	logger *zap.Logger,
) *RelayService {
	return &RelayService{
		messageRepo: messageRepo,
		tokenRepo:   tokenRepo,
		topic:       topic,
		strava:      stravaClient,
		notifier:    notifier,
		logger:      logger,
	}
}

// Receive handles one inbound webhook event: filter, dedup, publish.
// Only a storage failure is returned to the caller; a failed publish after
// the seen-record is written is logged and absorbed (accepted lost-event
// risk, the inbound endpoint must stay fast and 200).
func (s *RelayService) Receive(ctx context.Context, event *models.WebhookEvent) error {
	logger := s.logger.With(
		zap.String("object_type", event.ObjectType),
		zap.String("aspect_type", event.AspectType),
		zap.Int64("object_id", event.ObjectID),
	)

	if event.ObjectType != "activity" || event.AspectType != "create" {
		logger.Debug("ignoring webhook event")
		return nil
	}

	inserted, err := s.messageRepo.Insert(ctx, &models.SeenMessage{
		ActivityID: event.ObjectID,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	if !inserted {
		logger.Info("duplicate activity event, already relayed")
		return nil
	}

	relay := &models.RelayEvent{
		EventID:    uuid.New().String(),
		UserID:     event.OwnerID,
		ActivityID: event.ObjectID,
		EventType:  event.AspectType,
	}
	if err := s.topic.Publish(ctx, relay); err != nil {
		logger.Error("failed to publish relay event", zap.Error(err))
		return nil
	}

	logger.Info("relay event published", zap.String("event_id", relay.EventID))
	return nil
}

// HandleRelay processes one relay event from the topic: load the athlete's
// token, fetch the activity and athlete, announce. Every failure here is
// terminal for the event; redelivery is the topic's business.
func (s *RelayService) HandleRelay(ctx context.Context, event *models.RelayEvent) {
	logger := s.logger.With(
		zap.String("event_id", event.EventID),
		zap.Int64("activity_id", event.ActivityID),
		zap.Int64("athlete_id", event.UserID),
	)

	token, err := s.tokenRepo.GetByAthleteID(ctx, event.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		logger.Error("no stored token for athlete", zap.Error(ErrNoToken))
		return
	}
	if err != nil {
		logger.Error("failed to load token", zap.Error(err))
		return
	}

	activity, accessToken, err := s.fetchActivity(ctx, token, event.ActivityID)
	if err != nil {
		logger.Error("failed to fetch activity", zap.Error(err))
		return
	}

	athlete, err := s.strava.GetAthlete(ctx, accessToken)
	if err != nil {
		logger.Error("failed to fetch athlete", zap.Error(err))
		return
	}

	if err := s.notifier.Announce(ctx, activity, athlete); err != nil {
		// Not retried here; topic redelivery may duplicate the message.
		logger.Error("failed to deliver announcement", zap.Error(err))
		return
	}

	logger.Info("activity relayed")
}

// fetchActivity fetches the activity detail, refreshing the token at most
// once: up front when it is already expired, or after a 401.
func (s *RelayService) fetchActivity(ctx context.Context, token *models.UserToken, activityID int64) (*models.Activity, string, error) {
	accessToken := token.AccessToken
	refreshed := false

	if token.Expired(time.Now()) {
		var err error
		if accessToken, err = s.refresh(ctx, token); err != nil {
			return nil, "", err
		}
		refreshed = true
	}

	activity, err := s.strava.GetActivity(ctx, accessToken, activityID)
	if errors.Is(err, strava.ErrUnauthorized) && !refreshed {
		if accessToken, err = s.refresh(ctx, token); err != nil {
			return nil, "", err
		}
		activity, err = s.strava.GetActivity(ctx, accessToken, activityID)
	}
	if err != nil {
		return nil, "", err
	}
	return activity, accessToken, nil
}

// refresh runs the refresh grant and persists the rotated credentials. A
// failed persist is logged but not fatal: the in-hand access token is
// still good for this event.
func (s *RelayService) refresh(ctx context.Context, token *models.UserToken) (string, error) {
	resp, err := s.strava.RefreshToken(ctx, token.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh grant failed: %w", err)
	}

	token.AccessToken = resp.AccessToken
	token.RefreshToken = resp.RefreshToken
	token.ExpiresAt = time.Unix(resp.ExpiresAt, 0).UTC()

	if err := s.tokenRepo.Upsert(ctx, token); err != nil {
		s.logger.Warn("failed to persist refreshed token",
			zap.Int64("athlete_id", token.AthleteID),
			zap.Error(err))
	}
	return resp.AccessToken, nil
}
