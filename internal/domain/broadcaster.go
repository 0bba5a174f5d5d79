package domain

import (
	"context"
	"time"
)

// Broadcaster is a Twitch channel owner who has authorized the extension.
// ID is the Twitch user id. AccessToken and RefreshToken are always replaced
// as a pair. RewardID and EventSubID are empty until the broadcaster picks a
// reward to track.
type Broadcaster struct {
	ID           int
	Name         string
	AccessToken  string
	RefreshToken string
	RewardID     string
	EventSubID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BroadcasterRepository persists broadcasters and their credentials.
type BroadcasterRepository interface {
	GetByID(ctx context.Context, broadcasterID int) (*Broadcaster, error)
	// Upsert inserts or replaces the broadcaster identified by b.ID,
	// overwriting both tokens wholesale.
	Upsert(ctx context.Context, broadcasterID int, name, accessToken, refreshToken string) (*Broadcaster, error)
	// UpdateTokens replaces the token pair in a single commit.
	UpdateTokens(ctx context.Context, broadcasterID int, accessToken, refreshToken string) error
	// UpdateRewardID persists the tracked reward id.
	UpdateRewardID(ctx context.Context, broadcasterID int, rewardID string) error
	// UpdateEventSubID persists the id of the enabled EventSub subscription.
	UpdateEventSubID(ctx context.Context, broadcasterID int, eventsubID string) error
}
