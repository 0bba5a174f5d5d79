package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jaedolph/verified-first/internal/domain"
	apperrors "github.com/jaedolph/verified-first/internal/platform/errors"
)

// eventSubType is the only subscription type this service registers.
const eventSubType = "channel.channel_points_custom_reward_redemption.add"

// API exposes the four Twitch Helix operations the service uses, routed
// through the Executor's retry protocol.
type API struct {
	exec           *Executor
	client         apiDoer
	baseURL        string
	callbackURL    string
	eventsubSecret string
}

// NewAPI creates the Helix API layer. baseURL is configurable for tests.
func NewAPI(exec *Executor, client apiDoer, baseURL, callbackURL, eventsubSecret string) *API {
	return &API{
		exec:           exec,
		client:         client,
		baseURL:        baseURL,
		callbackURL:    callbackURL,
		eventsubSecret: eventsubSecret,
	}
}

// GetUserFromToken looks up the user a token belongs to. The token is used
// as-is with no refresh; an invalid token is the caller's signal that the
// stored credentials are bad.
func (a *API) GetUserFromToken(ctx context.Context, accessToken string) (name string, id int, err error) {
	req := &Request{Method: http.MethodGet, URL: a.baseURL + "/users"}

	resp, err := a.client.Do(ctx, accessToken, req)
	if err != nil {
		return "", 0, apperrors.UpstreamAPIError("could not get broadcaster", err)
	}
	if resp.IsError() {
		return "", 0, apperrors.UpstreamAPIError(
			fmt.Sprintf("could not get broadcaster: twitch returned status %d", resp.StatusCode), nil)
	}

	var payload struct {
		Data []struct {
			ID    string `json:"id"`
			Login string `json:"login"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&payload); err != nil {
		return "", 0, apperrors.UpstreamAPIError("could not get broadcaster", err)
	}
	if len(payload.Data) == 0 {
		return "", 0, apperrors.UpstreamAPIError("could not get broadcaster: empty user data", nil)
	}

	id, err = strconv.Atoi(payload.Data[0].ID)
	if err != nil {
		return "", 0, apperrors.UpstreamAPIError("could not get broadcaster: invalid user id", err)
	}

	return payload.Data[0].Login, id, nil
}

// GetRewards lists the broadcaster's channel-point rewards using their user token.
func (a *API) GetRewards(ctx context.Context, b *domain.Broadcaster) ([]domain.Reward, error) {
	query := url.Values{}
	query.Set("broadcaster_id", strconv.Itoa(b.ID))
	query.Set("only_manageable_rewards", "false")

	req := &Request{
		Method: http.MethodGet,
		URL:    a.baseURL + "/channel_points/custom_rewards",
		Query:  query,
	}

	resp, err := a.exec.AsBroadcaster(ctx, b, req)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []domain.Reward `json:"data"`
	}
	if err := resp.DecodeJSON(&payload); err != nil {
		return nil, apperrors.UpstreamAPIError("could not get rewards", err)
	}

	return payload.Data, nil
}

// ListEventSubs returns all EventSub subscriptions registered for a
// broadcaster's user id, using the app token.
func (a *API) ListEventSubs(ctx context.Context, broadcasterID int) ([]domain.EventSubSubscription, error) {
	query := url.Values{}
	query.Set("user_id", strconv.Itoa(broadcasterID))

	req := &Request{
		Method: http.MethodGet,
		URL:    a.baseURL + "/eventsub/subscriptions",
		Query:  query,
	}

	resp, err := a.exec.AsApp(ctx, req)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []domain.EventSubSubscription `json:"data"`
	}
	if err := resp.DecodeJSON(&payload); err != nil {
		return nil, apperrors.UpstreamAPIError("could not get eventsubs", err)
	}

	return payload.Data, nil
}

// CreateEventSub registers a webhook subscription for reward redemptions and
// returns the new subscription id.
func (a *API) CreateEventSub(ctx context.Context, broadcasterID int, rewardID string) (string, error) {
	body := map[string]any{
		"type":    eventSubType,
		"version": "1",
		"condition": map[string]string{
			"broadcaster_user_id": strconv.Itoa(broadcasterID),
			"reward_id":           rewardID,
		},
		"transport": map[string]string{
			"method":   "webhook",
			"callback": a.callbackURL,
			"secret":   a.eventsubSecret,
		},
	}

	req := &Request{
		Method: http.MethodPost,
		URL:    a.baseURL + "/eventsub/subscriptions",
		JSON:   body,
	}

	resp, err := a.exec.AsApp(ctx, req)
	if err != nil {
		return "", err
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&payload); err != nil {
		return "", apperrors.UpstreamAPIError("could not create eventsub", err)
	}
	if len(payload.Data) == 0 || payload.Data[0].ID == "" {
		return "", apperrors.UpstreamAPIError("could not create eventsub: missing subscription id", nil)
	}

	return payload.Data[0].ID, nil
}

// DeleteEventSub removes a subscription by id using the app token.
func (a *API) DeleteEventSub(ctx context.Context, eventsubID string) error {
	query := url.Values{}
	query.Set("id", eventsubID)

	req := &Request{
		Method: http.MethodDelete,
		URL:    a.baseURL + "/eventsub/subscriptions",
		Query:  query,
	}

	if _, err := a.exec.AsApp(ctx, req); err != nil {
		return err
	}
	return nil
}
