package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/jaedolph/verified-first/internal/domain"
	"github.com/jaedolph/verified-first/internal/platform/config"
	"github.com/jaedolph/verified-first/internal/verify"
)

const (
	testEventSubSecret  = "eventsub-secret-123"
	testExtensionSecret = "0123456789abcdef0123456789abcdef"
)

// --- Mock app service ---

type mockApp struct {
	completeAuthFn      func(ctx context.Context, code string) (*domain.Broadcaster, error)
	authCheckFn         func(ctx context.Context, channelID int) (bool, error)
	firstsFn            func(ctx context.Context, channelID int, start, end *time.Time) (map[string]int, error)
	rewardsFn           func(ctx context.Context, channelID int) ([]domain.Reward, error)
	configureEventSubFn func(ctx context.Context, channelID int, rewardID string) (string, error)
	recordFirstFn       func(ctx context.Context, channelID int, userName, rewardID string) (*domain.First, error)
	handleRevocationFn  func(ctx context.Context, channelID int, eventsubID string) error
}

func (m *mockApp) CompleteAuth(ctx context.Context, code string) (*domain.Broadcaster, error) {
	if m.completeAuthFn != nil {
		return m.completeAuthFn(ctx, code)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockApp) AuthCheck(ctx context.Context, channelID int) (bool, error) {
	if m.authCheckFn != nil {
		return m.authCheckFn(ctx, channelID)
	}
	return false, fmt.Errorf("not implemented")
}

func (m *mockApp) Firsts(ctx context.Context, channelID int, start, end *time.Time) (map[string]int, error) {
	if m.firstsFn != nil {
		return m.firstsFn(ctx, channelID, start, end)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockApp) Rewards(ctx context.Context, channelID int) ([]domain.Reward, error) {
	if m.rewardsFn != nil {
		return m.rewardsFn(ctx, channelID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockApp) ConfigureEventSub(ctx context.Context, channelID int, rewardID string) (string, error) {
	if m.configureEventSubFn != nil {
		return m.configureEventSubFn(ctx, channelID, rewardID)
	}
	return "", fmt.Errorf("not implemented")
}

func (m *mockApp) RecordFirst(ctx context.Context, channelID int, userName, rewardID string) (*domain.First, error) {
	if m.recordFirstFn != nil {
		return m.recordFirstFn(ctx, channelID, userName, rewardID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockApp) HandleRevocation(ctx context.Context, channelID int, eventsubID string) error {
	if m.handleRevocationFn != nil {
		return m.handleRevocationFn(ctx, channelID, eventsubID)
	}
	return fmt.Errorf("not implemented")
}

// --- Test harness ---

func newTestServer(t *testing.T, app *mockApp) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:            "test",
		Port:              "0",
		ExtensionSecret:   base64.StdEncoding.EncodeToString([]byte(testExtensionSecret)),
		EventSubSecret:    testEventSubSecret,
		AuthRatePerSecond: 1000,
		AuthRateBurst:     1000,
		AuthRateExpiry:    time.Minute,
	}

	srv, err := NewServer(cfg, app,
		verify.NewSignatureVerifier(testEventSubSecret),
		verify.NewTokenValidator([]byte(testExtensionSecret)),
		NewReplayCache(clockwork.NewFakeClock()),
		nil, nil, nil)
	require.NoError(t, err)

	return srv
}

func (s *Server) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func extensionJWT(t *testing.T, channelID, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"channel_id": channelID,
		"role":       role,
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testExtensionSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func signEventSub(req *http.Request, messageID, messageType string, body []byte) {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	mac := hmac.New(sha256.New, []byte(testEventSubSecret))
	mac.Write([]byte(messageID))
	mac.Write([]byte(timestamp))
	mac.Write(body)

	req.Header.Set(verify.HeaderMessageID, messageID)
	req.Header.Set(verify.HeaderMessageTimestamp, timestamp)
	req.Header.Set(verify.HeaderMessageSignature, "sha256="+hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set(verify.HeaderMessageType, messageType)
}
