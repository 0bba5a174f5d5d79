package twitch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaedolph/verified-first/internal/domain"
)

// eventSubAPI is the subset of API used by the Reconciler.
type eventSubAPI interface {
	ListEventSubs(ctx context.Context, broadcasterID int) ([]domain.EventSubSubscription, error)
	CreateEventSub(ctx context.Context, broadcasterID int, rewardID string) (string, error)
	DeleteEventSub(ctx context.Context, eventsubID string) error
}

// Reconciler drives the broadcaster's EventSub registration towards the
// desired state: exactly one enabled subscription for the tracked reward.
type Reconciler struct {
	api          eventSubAPI
	broadcasters domain.BroadcasterRepository
}

// NewReconciler creates a Reconciler.
func NewReconciler(api eventSubAPI, broadcasters domain.BroadcasterRepository) *Reconciler {
	return &Reconciler{api: api, broadcasters: broadcasters}
}

// EnsureSubscription lists the broadcaster's subscriptions, keeps the first
// one that is enabled for rewardID, prunes everything else, and creates a new
// subscription if none matched. The stored eventsub id is only written when it
// changed, so a second call with the same reward performs no mutations.
//
// Deletions are best-effort: a failed prune is logged and the loop continues,
// since the stale subscription will be swept on the next reconciliation.
func (r *Reconciler) EnsureSubscription(ctx context.Context, b *domain.Broadcaster, rewardID string) (string, error) {
	subs, err := r.api.ListEventSubs(ctx, b.ID)
	if err != nil {
		return "", err
	}

	var matching string
	for _, sub := range subs {
		if matching == "" && sub.Enabled() && sub.RewardID() == rewardID {
			slog.Info("found existing eventsub", "eventsub_id", sub.ID, "broadcaster_id", b.ID)
			matching = sub.ID
			continue
		}

		slog.Info("deleting stale eventsub", "eventsub_id", sub.ID, "status", sub.Status, "broadcaster_id", b.ID)
		if err := r.api.DeleteEventSub(ctx, sub.ID); err != nil {
			slog.Warn("failed to delete stale eventsub", "eventsub_id", sub.ID, "error", err)
		}
	}

	if matching == "" {
		slog.Info("creating new eventsub", "broadcaster_id", b.ID, "reward_id", rewardID)
		matching, err = r.api.CreateEventSub(ctx, b.ID, rewardID)
		if err != nil {
			return "", err
		}
	}

	if b.EventSubID != matching {
		slog.Info("storing eventsub id", "eventsub_id", matching, "broadcaster_id", b.ID)
		if err := r.broadcasters.UpdateEventSubID(ctx, b.ID, matching); err != nil {
			return "", fmt.Errorf("failed to store eventsub id: %w", err)
		}
		b.EventSubID = matching
	}

	return matching, nil
}

// UpdateReward persists the tracked reward id when it differs from the stored
// value. The reward itself is assumed to exist; no Twitch call is made.
func (r *Reconciler) UpdateReward(ctx context.Context, b *domain.Broadcaster, rewardID string) (string, error) {
	if b.RewardID != rewardID {
		slog.Info("storing reward id", "reward_id", rewardID, "broadcaster_id", b.ID)
		if err := r.broadcasters.UpdateRewardID(ctx, b.ID, rewardID); err != nil {
			return "", fmt.Errorf("failed to store reward id: %w", err)
		}
		b.RewardID = rewardID
	}

	return rewardID, nil
}
