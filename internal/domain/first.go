package domain

import (
	"context"
	"time"
)

// First is a recorded instance of a viewer redeeming the tracked reward.
// The timestamp is assigned by the store at insertion time, never by the caller.
type First struct {
	ID            int       `json:"id"`
	BroadcasterID int       `json:"broadcaster_id"`
	Name          string    `json:"name"`
	Timestamp     time.Time `json:"timestamp"`
}

// FirstRepository records redemption events and answers aggregate queries.
type FirstRepository interface {
	Add(ctx context.Context, broadcasterID int, userName string) (*First, error)
	// CountsByUser returns redemption counts grouped by user name, filtered
	// to [start, end] inclusive. Nil bounds are open-ended and must never
	// clip real rows.
	CountsByUser(ctx context.Context, broadcasterID int, start, end *time.Time) (map[string]int, error)
}
