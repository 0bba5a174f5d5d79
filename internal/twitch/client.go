package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Request describes a Twitch API call. It is re-prepared for every send so a
// call can be retried after a token refresh.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	// JSON is marshaled as the request body when non-nil.
	JSON any
}

// Response is a fully-read Twitch API response. The body is buffered so the
// caller can inspect the status before deciding whether to decode.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsError reports whether the response carries an error status.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// DecodeJSON unmarshals the buffered body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode twitch response: %w", err)
	}
	return nil
}

// Client is the low-level authenticated Twitch API caller. It attaches the
// Authorization and Client-Id headers and returns the raw response without
// inspecting the status; retries and status handling belong to the Executor.
type Client struct {
	httpClient *http.Client
	clientID   string
}

// NewClient creates a Client. The given http.Client carries the request
// timeout and any instrumented transport.
func NewClient(clientID string, httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient, clientID: clientID}
}

// Do sends the request with the given access token and buffers the response.
func (c *Client) Do(ctx context.Context, accessToken string, req *Request) (*Response, error) {
	httpReq, err := c.prepare(ctx, accessToken, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute twitch request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read twitch response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) prepare(ctx context.Context, accessToken string, req *Request) (*http.Request, error) {
	var body io.Reader
	if req.JSON != nil {
		payload, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create twitch request: %w", err)
	}

	if req.Query != nil {
		httpReq.URL.RawQuery = req.Query.Encode()
	}

	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Client-Id", c.clientID)
	if req.JSON != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}
