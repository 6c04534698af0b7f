package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitrelay/strava-discord/internal/models"
)

// getTestPool connects to the database named by TEST_DATABASE_URL, or skips
// the test when none is configured.
func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(pool.Close)
	return pool
}

func TestTokenRepository_UpsertAndGet(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresTokenRepository(pool)
	ctx := context.Background()

	defer pool.Exec(ctx, `DELETE FROM user_tokens WHERE athlete_id = $1`, int64(910001))

	token := &models.UserToken{
		AthleteID:    910001,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(6 * time.Hour).UTC(),
	}

	err := repo.Upsert(ctx, token)
	require.NoError(t, err)
	assert.False(t, token.CreatedAt.IsZero(), "CreatedAt should be populated")

	// Second upsert for the same athlete rotates the credentials in place.
	rotated := &models.UserToken{
		AthleteID:    910001,
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresAt:    time.Now().Add(12 * time.Hour).UTC(),
	}
	err = repo.Upsert(ctx, rotated)
	require.NoError(t, err)

	got, err := repo.GetByAthleteID(ctx, 910001)
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.AccessToken)
	assert.Equal(t, "refresh-2", got.RefreshToken)
	assert.Equal(t, token.CreatedAt, got.CreatedAt, "CreatedAt should survive the rotation")
}

func TestTokenRepository_GetByAthleteID_NotFound(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresTokenRepository(pool)

	_, err := repo.GetByAthleteID(context.Background(), 910999)
	assert.ErrorIs(t, err, ErrNotFound)
}
