package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaedolph/verified-first/internal/domain"
)

// FirstRepo implements domain.FirstRepository backed by PostgreSQL.
// Rows are insert-only; the timestamp is assigned by the database.
type FirstRepo struct {
	pool *pgxpool.Pool
}

func NewFirstRepo(pool *pgxpool.Pool) *FirstRepo {
	return &FirstRepo{pool: pool}
}

func (r *FirstRepo) Add(ctx context.Context, broadcasterID int, userName string) (*domain.First, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO firsts (broadcaster_id, name)
		VALUES ($1, $2)
		RETURNING id, broadcaster_id, name, timestamp`,
		broadcasterID, userName)

	var f domain.First
	if err := row.Scan(&f.ID, &f.BroadcasterID, &f.Name, &f.Timestamp); err != nil {
		return nil, fmt.Errorf("failed to add first: %w", err)
	}
	return &f, nil
}

// CountsByUser groups redemptions by user name within [start, end] inclusive.
// NULL bounds are open-ended, so absent filters can never clip rows.
func (r *FirstRepo) CountsByUser(ctx context.Context, broadcasterID int, start, end *time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, COUNT(*)
		FROM firsts
		WHERE broadcaster_id = $1
		  AND ($2::timestamptz IS NULL OR timestamp >= $2)
		  AND ($3::timestamptz IS NULL OR timestamp <= $3)
		GROUP BY name`,
		broadcasterID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to count firsts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan first count: %w", err)
		}
		counts[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read first counts: %w", err)
	}

	return counts, nil
}
