package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitrelay/strava-discord/internal/models"
)

var ErrNotFound = errors.New("not found")

type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

// Upsert inserts the token for a new athlete or replaces the credentials
// for an existing one. Both the first authorization and every refresh
// rotation go through here.
func (r *PostgresTokenRepository) Upsert(ctx context.Context, token *models.UserToken) error {
	query := `INSERT INTO user_tokens (athlete_id, access_token, refresh_token, expires_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (athlete_id) DO UPDATE
	          SET access_token = EXCLUDED.access_token,
	              refresh_token = EXCLUDED.refresh_token,
	              expires_at = EXCLUDED.expires_at,
	              updated_at = NOW()
	          RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		token.AthleteID,
		token.AccessToken,
		token.RefreshToken,
		token.ExpiresAt,
	).Scan(&token.CreatedAt, &token.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert token: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepository) GetByAthleteID(ctx context.Context, athleteID int64) (*models.UserToken, error) {
	query := `SELECT athlete_id, access_token, refresh_token, expires_at, created_at, updated_at
	          FROM user_tokens
	          WHERE athlete_id = $1`

	var token models.UserToken
	err := r.pool.QueryRow(ctx, query, athleteID).Scan(
		&token.AthleteID,
		&token.AccessToken,
		&token.RefreshToken,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}
