package twitch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDo_SetsAuthHeaders(t *testing.T) {
	var gotAuth, gotClientID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotClientID = r.Header.Get("Client-Id")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	client := NewClient("client-id", srv.Client())
	resp, err := client.Do(context.Background(), "token123", &Request{Method: http.MethodGet, URL: srv.URL})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer token123", gotAuth)
	assert.Equal(t, "client-id", gotClientID)
}

func TestClientDo_EncodesQuery(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	query := url.Values{}
	query.Set("broadcaster_id", "12345")

	client := NewClient("client-id", srv.Client())
	_, err := client.Do(context.Background(), "token", &Request{Method: http.MethodGet, URL: srv.URL, Query: query})

	require.NoError(t, err)
	assert.Equal(t, "12345", gotQuery.Get("broadcaster_id"))
}

func TestClientDo_MarshalsJSONBody(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient("client-id", srv.Client())
	resp, err := client.Do(context.Background(), "token", &Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		JSON:   map[string]string{"type": "channel.channel_points_custom_reward_redemption.add"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "channel.channel_points_custom_reward_redemption.add", gotBody["type"])
}

func TestClientDo_RequestIsRepreparable(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("client-id", srv.Client())
	req := &Request{Method: http.MethodPost, URL: srv.URL, JSON: map[string]string{"k": "v"}}

	// The same Request must survive a second send, as the Executor retries it.
	_, err := client.Do(context.Background(), "token", req)
	require.NoError(t, err)
	_, err = client.Do(context.Background(), "token", req)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.NotEmpty(t, bodies[1], "retried request must carry the body again")
}

func TestResponseDecodeJSON(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`{"data": [{"id": "1"}]}`)}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, resp.DecodeJSON(&payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "1", payload.Data[0].ID)
}

func TestResponseIsError(t *testing.T) {
	assert.False(t, (&Response{StatusCode: http.StatusOK}).IsError())
	assert.False(t, (&Response{StatusCode: http.StatusNoContent}).IsError())
	assert.True(t, (&Response{StatusCode: http.StatusBadRequest}).IsError())
	assert.True(t, (&Response{StatusCode: http.StatusUnauthorized}).IsError())
	assert.True(t, (&Response{StatusCode: http.StatusInternalServerError}).IsError())
}
