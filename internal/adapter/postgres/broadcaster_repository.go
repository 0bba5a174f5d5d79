package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaedolph/verified-first/internal/domain"
)

// broadcasterColumns must match the Scan order in scanBroadcaster.
const broadcasterColumns = `id, name, access_token, refresh_token, COALESCE(reward_id, ''), COALESCE(eventsub_id, ''), created_at, updated_at`

// BroadcasterRepo implements domain.BroadcasterRepository backed by PostgreSQL.
type BroadcasterRepo struct {
	pool *pgxpool.Pool
}

func NewBroadcasterRepo(pool *pgxpool.Pool) *BroadcasterRepo {
	return &BroadcasterRepo{pool: pool}
}

func scanBroadcaster(row pgx.Row) (*domain.Broadcaster, error) {
	var b domain.Broadcaster
	err := row.Scan(
		&b.ID, &b.Name, &b.AccessToken, &b.RefreshToken,
		&b.RewardID, &b.EventSubID,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BroadcasterRepo) GetByID(ctx context.Context, broadcasterID int) (*domain.Broadcaster, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+broadcasterColumns+` FROM broadcasters WHERE id = $1`, broadcasterID)

	b, err := scanBroadcaster(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBroadcasterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get broadcaster: %w", err)
	}
	return b, nil
}

func (r *BroadcasterRepo) Upsert(ctx context.Context, broadcasterID int, name, accessToken, refreshToken string) (*domain.Broadcaster, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO broadcasters (id, name, access_token, refresh_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			updated_at = now()
		RETURNING `+broadcasterColumns,
		broadcasterID, name, accessToken, refreshToken)

	b, err := scanBroadcaster(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert broadcaster: %w", err)
	}
	return b, nil
}

func (r *BroadcasterRepo) UpdateTokens(ctx context.Context, broadcasterID int, accessToken, refreshToken string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE broadcasters
		SET access_token = $2, refresh_token = $3, updated_at = now()
		WHERE id = $1`,
		broadcasterID, accessToken, refreshToken)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBroadcasterNotFound
	}
	return nil
}

func (r *BroadcasterRepo) UpdateRewardID(ctx context.Context, broadcasterID int, rewardID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE broadcasters
		SET reward_id = $2, updated_at = now()
		WHERE id = $1`,
		broadcasterID, rewardID)
	if err != nil {
		return fmt.Errorf("failed to update reward id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBroadcasterNotFound
	}
	return nil
}

func (r *BroadcasterRepo) UpdateEventSubID(ctx context.Context, broadcasterID int, eventsubID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE broadcasters
		SET eventsub_id = $2, updated_at = now()
		WHERE id = $1`,
		broadcasterID, eventsubID)
	if err != nil {
		return fmt.Errorf("failed to update eventsub id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBroadcasterNotFound
	}
	return nil
}
