package twitch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jaedolph/verified-first/internal/domain"
	apperrors "github.com/jaedolph/verified-first/internal/platform/errors"
)

// apiDoer is the subset of Client used by the Executor.
type apiDoer interface {
	Do(ctx context.Context, accessToken string, req *Request) (*Response, error)
}

// credentialSource refreshes expired credentials. Implemented by AuthClient.
type credentialSource interface {
	RefreshBroadcasterToken(ctx context.Context, b *domain.Broadcaster) error
	AppAccessToken(ctx context.Context) (string, error)
}

// Executor wraps the low-level client with the refresh-and-retry protocol.
// Twitch access tokens expire silently and a 401 is the only reliable expiry
// signal, so 401 is the one retryable status: refresh once, retry once. All
// other error statuses are terminal.
type Executor struct {
	client   apiDoer
	auth     credentialSource
	appToken *TokenCache
}

// NewExecutor creates an Executor sharing the given app token cache.
func NewExecutor(client apiDoer, auth credentialSource, appToken *TokenCache) *Executor {
	return &Executor{client: client, auth: auth, appToken: appToken}
}

// AsBroadcaster sends the request with the broadcaster's user token. On a 401
// the broadcaster's tokens are refreshed and persisted, and the request is
// retried exactly once. A failed refresh propagates without a retry.
func (e *Executor) AsBroadcaster(ctx context.Context, b *domain.Broadcaster, req *Request) (*Response, error) {
	resp, err := e.client.Do(ctx, b.AccessToken, req)
	if err != nil {
		return nil, apperrors.UpstreamAPIError("request to twitch api failed", err)
	}
	if !resp.IsError() {
		return resp, nil
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return nil, statusError(resp)
	}

	slog.Debug("twitch returned 401, refreshing broadcaster token", "broadcaster_id", b.ID)
	if err := e.auth.RefreshBroadcasterToken(ctx, b); err != nil {
		slog.Error("failed to refresh broadcaster token", "broadcaster_id", b.ID, "error", err)
		return nil, err
	}

	return e.retry(ctx, b.AccessToken, req)
}

// AsApp sends the request with the shared app token, acquiring one first if
// the cache is empty. On a 401 a fresh app token is fetched via the
// client-credentials flow and the request is retried exactly once.
func (e *Executor) AsApp(ctx context.Context, req *Request) (*Response, error) {
	token := e.appToken.Get()
	if token == "" {
		var err error
		token, err = e.appToken.Refresh(ctx, e.auth.AppAccessToken)
		if err != nil {
			return nil, err
		}
	}

	resp, err := e.client.Do(ctx, token, req)
	if err != nil {
		return nil, apperrors.UpstreamAPIError("request to twitch api failed", err)
	}
	if !resp.IsError() {
		return resp, nil
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return nil, statusError(resp)
	}

	slog.Debug("twitch returned 401, refreshing app token")
	token, err = e.appToken.Refresh(ctx, e.auth.AppAccessToken)
	if err != nil {
		slog.Error("failed to refresh app token", "error", err)
		return nil, err
	}

	return e.retry(ctx, token, req)
}

// retry performs the single post-refresh attempt. Any error status here is
// terminal; there is at most one refresh-and-retry cycle per call.
func (e *Executor) retry(ctx context.Context, accessToken string, req *Request) (*Response, error) {
	resp, err := e.client.Do(ctx, accessToken, req)
	if err != nil {
		return nil, apperrors.UpstreamAPIError("retried request to twitch api failed", err)
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	return resp, nil
}

func statusError(resp *Response) *apperrors.Error {
	return apperrors.UpstreamAPIError(
		fmt.Sprintf("twitch api returned status %d", resp.StatusCode), nil).
		WithField("status", resp.StatusCode)
}
