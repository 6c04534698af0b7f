package repositories

import (
	"context"

	"github.com/fitrelay/strava-discord/internal/models"
)

type TokenRepository interface {
	Upsert(ctx context.Context, token *models.UserToken) error
	GetByAthleteID(ctx context.Context, athleteID int64) (*models.UserToken, error)
}

type MessageRepository interface {
	// Insert records the activity id if it has not been seen before.
	// Returns false when the id was already present. The check and the
	// write are a single atomic operation.
	Insert(ctx context.Context, msg *models.SeenMessage) (bool, error)
	Get(ctx context.Context, activityID int64) (*models.SeenMessage, error)
}
