package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jaedolph/verified-first/internal/domain"
	apperrors "github.com/jaedolph/verified-first/internal/platform/errors"
)

// oauthClient runs the authorization-code grant flow.
type oauthClient interface {
	ExchangeCode(ctx context.Context, code string) (accessToken, refreshToken string, err error)
}

// helixAPI is the subset of the Twitch Helix surface the service needs.
type helixAPI interface {
	GetUserFromToken(ctx context.Context, accessToken string) (name string, id int, err error)
	GetRewards(ctx context.Context, b *domain.Broadcaster) ([]domain.Reward, error)
	DeleteEventSub(ctx context.Context, eventsubID string) error
}

// subscriptionReconciler converges a broadcaster's EventSub state.
type subscriptionReconciler interface {
	UpdateReward(ctx context.Context, b *domain.Broadcaster, rewardID string) (string, error)
	EnsureSubscription(ctx context.Context, b *domain.Broadcaster, rewardID string) (string, error)
}

// Service is the application layer — the only component that references
// multiple domain components. It orchestrates all use cases.
type Service struct {
	broadcasters domain.BroadcasterRepository
	firsts       domain.FirstRepository
	oauth        oauthClient
	helix        helixAPI
	reconciler   subscriptionReconciler
}

// NewService creates the application layer service.
func NewService(broadcasters domain.BroadcasterRepository, firsts domain.FirstRepository, oauth oauthClient, helix helixAPI, reconciler subscriptionReconciler) *Service {
	return &Service{
		broadcasters: broadcasters,
		firsts:       firsts,
		oauth:        oauth,
		helix:        helix,
		reconciler:   reconciler,
	}
}

// CompleteAuth exchanges an OAuth authorization code, resolves the token's
// owner and stores the broadcaster with the fresh token pair. Both tokens are
// always replaced together.
func (s *Service) CompleteAuth(ctx context.Context, code string) (*domain.Broadcaster, error) {
	accessToken, refreshToken, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	name, id, err := s.helix.GetUserFromToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	b, err := s.broadcasters.Upsert(ctx, id, name, accessToken, refreshToken)
	if err != nil {
		return nil, apperrors.InternalError("could not store broadcaster", err)
	}

	slog.Info("broadcaster authorized", "broadcaster_id", b.ID, "name", b.Name)
	return b, nil
}

// AuthCheck reports whether the broadcaster has completed the OAuth flow.
func (s *Service) AuthCheck(ctx context.Context, channelID int) (bool, error) {
	_, err := s.broadcasters.GetByID(ctx, channelID)
	if errors.Is(err, domain.ErrBroadcasterNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.InternalError("could not check auth status", err)
	}
	return true, nil
}

// Firsts returns redemption counts per viewer for a channel, filtered to
// [start, end] inclusive. Nil bounds are open-ended. The broadcaster must
// have completed the OAuth flow first.
func (s *Service) Firsts(ctx context.Context, channelID int, start, end *time.Time) (map[string]int, error) {
	if _, err := s.lookupBroadcaster(ctx, channelID); err != nil {
		return nil, err
	}

	counts, err := s.firsts.CountsByUser(ctx, channelID, start, end)
	if err != nil {
		return nil, apperrors.InternalError("could not get firsts", err)
	}
	if len(counts) == 0 {
		return nil, apperrors.NotFoundError("could not get firsts")
	}
	return counts, nil
}

// Rewards lists the broadcaster's channel-point rewards. The broadcaster must
// have completed the OAuth flow first.
func (s *Service) Rewards(ctx context.Context, channelID int) ([]domain.Reward, error) {
	b, err := s.lookupBroadcaster(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return s.helix.GetRewards(ctx, b)
}

// ConfigureEventSub stores the tracked reward and converges the broadcaster's
// EventSub registration to exactly one enabled subscription for it. Calling it
// again with the same reward is a no-op.
func (s *Service) ConfigureEventSub(ctx context.Context, channelID int, rewardID string) (eventsubID string, err error) {
	b, err := s.lookupBroadcaster(ctx, channelID)
	if err != nil {
		return "", err
	}

	if _, err := s.reconciler.UpdateReward(ctx, b, rewardID); err != nil {
		return "", apperrors.InternalError("could not update reward", err)
	}

	return s.reconciler.EnsureSubscription(ctx, b, rewardID)
}

// RecordFirst records a redemption notification. Notifications for a reward
// other than the broadcaster's tracked one are dropped, since subscriptions
// for an old reward can still deliver during reconfiguration.
func (s *Service) RecordFirst(ctx context.Context, channelID int, userName, rewardID string) (*domain.First, error) {
	b, err := s.broadcasters.GetByID(ctx, channelID)
	if errors.Is(err, domain.ErrBroadcasterNotFound) {
		// Deliveries can race a broadcaster deletion. A 5xx here would make
		// Twitch retry and eventually revoke the subscription, so acknowledge
		// without recording.
		slog.Warn("ignoring redemption for unknown broadcaster", "broadcaster_id", channelID)
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.InternalError("could not record first", err)
	}

	if b.RewardID != rewardID {
		slog.Warn("ignoring redemption for untracked reward",
			"broadcaster_id", channelID, "reward_id", rewardID, "tracked_reward_id", b.RewardID)
		return nil, nil
	}

	f, err := s.firsts.Add(ctx, channelID, userName)
	if err != nil {
		return nil, apperrors.InternalError("could not record first", err)
	}

	slog.Info("recorded first", "broadcaster_id", channelID, "name", userName)
	return f, nil
}

// HandleRevocation clears the stored subscription id when Twitch revokes it,
// so the next configuration pass recreates the subscription instead of
// trusting a dead id.
func (s *Service) HandleRevocation(ctx context.Context, channelID int, eventsubID string) error {
	b, err := s.broadcasters.GetByID(ctx, channelID)
	if err != nil {
		return apperrors.InternalError("could not process revocation", err)
	}

	if b.EventSubID != eventsubID {
		slog.Warn("revocation for unknown eventsub id",
			"broadcaster_id", channelID, "eventsub_id", eventsubID, "stored_eventsub_id", b.EventSubID)
		return nil
	}

	if err := s.broadcasters.UpdateEventSubID(ctx, channelID, ""); err != nil {
		return apperrors.InternalError("could not process revocation", err)
	}

	slog.Info("cleared revoked eventsub", "broadcaster_id", channelID, "eventsub_id", eventsubID)
	return nil
}

// DeleteEventSub removes the broadcaster's stored subscription from Twitch and
// clears the stored id.
func (s *Service) DeleteEventSub(ctx context.Context, channelID int) error {
	b, err := s.lookupBroadcaster(ctx, channelID)
	if err != nil {
		return err
	}
	if b.EventSubID == "" {
		return nil
	}

	if err := s.helix.DeleteEventSub(ctx, b.EventSubID); err != nil {
		return err
	}

	if err := s.broadcasters.UpdateEventSubID(ctx, channelID, ""); err != nil {
		return apperrors.InternalError("could not clear eventsub id", err)
	}
	return nil
}

func (s *Service) lookupBroadcaster(ctx context.Context, channelID int) (*domain.Broadcaster, error) {
	b, err := s.broadcasters.GetByID(ctx, channelID)
	if errors.Is(err, domain.ErrBroadcasterNotFound) {
		return nil, apperrors.AuthorizationError("broadcaster is not authed yet")
	}
	if err != nil {
		return nil, apperrors.InternalError("could not get broadcaster", err)
	}
	return b, nil
}
