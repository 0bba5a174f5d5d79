package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jaedolph/verified-first/internal/domain"
	apperrors "github.com/jaedolph/verified-first/internal/platform/errors"
)

// AuthClient performs the three OAuth flows against the Twitch token endpoint
// and persists refreshed broadcaster credentials.
type AuthClient struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	broadcasters domain.BroadcasterRepository
}

// NewAuthClient creates an AuthClient. tokenURL is configurable for tests.
func NewAuthClient(httpClient *http.Client, clientID, clientSecret, redirectURI, tokenURL string, broadcasters domain.BroadcasterRepository) *AuthClient {
	return &AuthClient{
		httpClient:   httpClient,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenURL:     tokenURL,
		broadcasters: broadcasters,
	}
}

// ExchangeCode runs the authorization-code grant flow and returns the token pair.
func (a *AuthClient) ExchangeCode(ctx context.Context, code string) (accessToken, refreshToken string, err error) {
	params := url.Values{}
	params.Set("code", code)
	params.Set("grant_type", "authorization_code")
	params.Set("redirect_uri", a.redirectURI)

	tokens, err := a.requestToken(ctx, params)
	if err != nil {
		return "", "", err
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return "", "", apperrors.UpstreamAuthError("token exchange response is missing tokens", nil)
	}

	return tokens.AccessToken, tokens.RefreshToken, nil
}

// AppAccessToken runs the client-credentials flow and returns a fresh app token.
func (a *AuthClient) AppAccessToken(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("grant_type", "client_credentials")

	tokens, err := a.requestToken(ctx, params)
	if err != nil {
		return "", err
	}
	if tokens.AccessToken == "" {
		return "", apperrors.UpstreamAuthError("app token response is missing access_token", nil)
	}

	slog.Debug("acquired new app access token")
	return tokens.AccessToken, nil
}

// RefreshBroadcasterToken runs the refresh-token flow for a broadcaster and
// overwrites the stored token pair in a single commit. The broadcaster struct
// is updated in place on success.
func (a *AuthClient) RefreshBroadcasterToken(ctx context.Context, b *domain.Broadcaster) error {
	params := url.Values{}
	params.Set("refresh_token", b.RefreshToken)
	params.Set("grant_type", "refresh_token")

	tokens, err := a.requestToken(ctx, params)
	if err != nil {
		return err
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return apperrors.UpstreamAuthError("token refresh response is missing tokens", nil)
	}

	if err := a.broadcasters.UpdateTokens(ctx, b.ID, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return fmt.Errorf("failed to store refreshed tokens: %w", err)
	}

	b.AccessToken = tokens.AccessToken
	b.RefreshToken = tokens.RefreshToken

	slog.Info("refreshed broadcaster tokens", "broadcaster_id", b.ID)
	return nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (a *AuthClient) requestToken(ctx context.Context, params url.Values) (*tokenResponse, error) {
	params.Set("client_id", a.clientID)
	params.Set("client_secret", a.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, apperrors.UpstreamAuthError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.UpstreamAuthError("token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.UpstreamAuthError("failed to read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.UpstreamAuthError(
			fmt.Sprintf("token request failed with status %d", resp.StatusCode), nil)
	}

	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, apperrors.UpstreamAuthError("failed to decode token response", err)
	}

	return &tokens, nil
}
