package twitch

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaedolph/verified-first/internal/domain"
)

func newTestAPI(doer *mockDoer) *API {
	creds := &mockCredentials{appTokens: []string{"app-token"}}
	exec := NewExecutor(doer, creds, NewTokenCache())
	return NewAPI(exec, doer, "https://api.example.com", "https://callback.example.com/eventsub", "eventsub-secret")
}

func TestGetUserFromToken_Success(t *testing.T) {
	doer := &mockDoer{responses: []*Response{
		{StatusCode: http.StatusOK, Body: []byte(`{"data": [{"id": "12345", "login": "teststreamer"}]}`)},
	}}
	api := newTestAPI(doer)

	name, id, err := api.GetUserFromToken(context.Background(), "user-token")

	require.NoError(t, err)
	assert.Equal(t, "teststreamer", name)
	assert.Equal(t, 12345, id)
	assert.Equal(t, []string{"user-token"}, doer.calls, "the given token is used as-is")
}

func TestGetUserFromToken_InvalidTokenIsTerminal(t *testing.T) {
	doer := &mockDoer{responses: []*Response{{StatusCode: http.StatusUnauthorized}}}
	api := newTestAPI(doer)

	_, _, err := api.GetUserFromToken(context.Background(), "bad-token")

	require.Error(t, err)
	assert.Len(t, doer.calls, 1, "no refresh is possible for a token with no stored refresh token")
}

func TestGetUserFromToken_EmptyData(t *testing.T) {
	doer := &mockDoer{responses: []*Response{
		{StatusCode: http.StatusOK, Body: []byte(`{"data": []}`)},
	}}
	api := newTestAPI(doer)

	_, _, err := api.GetUserFromToken(context.Background(), "user-token")
	require.Error(t, err)
}

func TestGetRewards_UsesBroadcasterToken(t *testing.T) {
	doer := &mockDoer{responses: []*Response{
		{StatusCode: http.StatusOK, Body: []byte(`{"data": [{"id": "reward-1", "title": "First!", "cost": 100}]}`)},
	}}
	api := newTestAPI(doer)
	b := &domain.Broadcaster{ID: 12345, AccessToken: "user-token"}

	rewards, err := api.GetRewards(context.Background(), b)

	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, "reward-1", rewards[0].ID)
	assert.Equal(t, "First!", rewards[0].Title)
	assert.Equal(t, 100, rewards[0].Cost)

	assert.Equal(t, []string{"user-token"}, doer.calls)
	req := doer.requests[0]
	assert.Equal(t, "12345", req.Query.Get("broadcaster_id"))
	assert.Equal(t, "false", req.Query.Get("only_manageable_rewards"))
}

func TestListEventSubs_UsesAppToken(t *testing.T) {
	doer := &mockDoer{responses: []*Response{
		{StatusCode: http.StatusOK, Body: []byte(`{
			"data": [{
				"id": "sub-1",
				"status": "enabled",
				"type": "channel.channel_points_custom_reward_redemption.add",
				"condition": {"broadcaster_user_id": "12345", "reward_id": "reward-1"}
			}]
		}`)},
	}}
	api := newTestAPI(doer)

	subs, err := api.ListEventSubs(context.Background(), 12345)

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub-1", subs[0].ID)
	assert.True(t, subs[0].Enabled())
	assert.Equal(t, "reward-1", subs[0].RewardID())

	assert.Equal(t, []string{"app-token"}, doer.calls)
	assert.Equal(t, "12345", doer.requests[0].Query.Get("user_id"))
}

func TestCreateEventSub_BuildsSubscriptionRequest(t *testing.T) {
	doer := &mockDoer{responses: []*Response{
		{StatusCode: http.StatusAccepted, Body: []byte(`{"data": [{"id": "sub-new"}]}`)},
	}}
	api := newTestAPI(doer)

	id, err := api.CreateEventSub(context.Background(), 12345, "reward-1")

	require.NoError(t, err)
	assert.Equal(t, "sub-new", id)

	req := doer.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)

	body, ok := req.JSON.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "channel.channel_points_custom_reward_redemption.add", body["type"])
	assert.Equal(t, "1", body["version"])
	assert.Equal(t, map[string]string{
		"broadcaster_user_id": "12345",
		"reward_id":           "reward-1",
	}, body["condition"])
	assert.Equal(t, map[string]string{
		"method":   "webhook",
		"callback": "https://callback.example.com/eventsub",
		"secret":   "eventsub-secret",
	}, body["transport"])
}

func TestCreateEventSub_MissingID(t *testing.T) {
	doer := &mockDoer{responses: []*Response{
		{StatusCode: http.StatusAccepted, Body: []byte(`{"data": []}`)},
	}}
	api := newTestAPI(doer)

	_, err := api.CreateEventSub(context.Background(), 12345, "reward-1")
	require.Error(t, err)
}

func TestDeleteEventSub_Success(t *testing.T) {
	doer := &mockDoer{responses: []*Response{{StatusCode: http.StatusNoContent}}}
	api := newTestAPI(doer)

	err := api.DeleteEventSub(context.Background(), "sub-1")

	require.NoError(t, err)
	req := doer.requests[0]
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "sub-1", req.Query.Get("id"))
}
