package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "github.com/jaedolph/verified-first/internal/platform/errors"
	"github.com/jaedolph/verified-first/internal/verify"
)

// EventSub message types set on the Twitch-Eventsub-Message-Type header.
const (
	messageTypeVerification = "webhook_callback_verification"
	messageTypeNotification = "notification"
	messageTypeRevocation   = "revocation"
)

type eventSubMessage struct {
	Challenge    string `json:"challenge"`
	Subscription struct {
		ID        string            `json:"id"`
		Type      string            `json:"type"`
		Status    string            `json:"status"`
		Condition map[string]string `json:"condition"`
	} `json:"subscription"`
	Event struct {
		BroadcasterUserID string `json:"broadcaster_user_id"`
		// UserLogin is the redeeming user's login name, not the display name.
		UserLogin string `json:"user_login"`
		Reward    struct {
			ID string `json:"id"`
		} `json:"reward"`
	} `json:"event"`
}

// handleEventSub is the webhook endpoint Twitch delivers to. The HMAC gate
// runs before anything else; an unverifiable message gets a 401 and no
// further processing.
func (s *Server) handleEventSub(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperrors.InternalError("could not read eventsub message", err)
	}

	if !s.verifier.Verify(c.Request().Header, body) {
		return apperrors.AuthenticationError("could not verify hmac in eventsub message")
	}

	messageID := c.Request().Header.Get(verify.HeaderMessageID)
	if s.replay.Seen(messageID) {
		slog.Info("ignoring duplicate eventsub message", "message_id", messageID)
		return c.NoContent(http.StatusNoContent)
	}

	var msg eventSubMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return apperrors.ValidationError("could not parse eventsub message")
	}

	switch c.Request().Header.Get(verify.HeaderMessageType) {
	case messageTypeVerification:
		return s.handleVerification(c, &msg)
	case messageTypeNotification:
		return s.handleNotification(c, &msg)
	case messageTypeRevocation:
		return s.handleRevocation(c, &msg)
	default:
		return apperrors.AuthenticationError("could not process eventsub")
	}
}

// handleVerification echoes the challenge back as plain text so Twitch
// enables the subscription.
func (s *Server) handleVerification(c echo.Context, msg *eventSubMessage) error {
	if msg.Challenge == "" {
		return apperrors.ValidationError("verification message is missing challenge")
	}

	slog.Info("answering eventsub challenge", "eventsub_id", msg.Subscription.ID)
	if err := c.String(http.StatusOK, msg.Challenge); err != nil {
		return fmt.Errorf("failed to send challenge response: %w", err)
	}
	return nil
}

// handleNotification records a redemption. Failures after the HMAC gate still
// return 2xx where possible so Twitch does not disable the subscription over
// a transient store error; only malformed events are rejected.
func (s *Server) handleNotification(c echo.Context, msg *eventSubMessage) error {
	channelID, err := strconv.Atoi(msg.Event.BroadcasterUserID)
	if err != nil {
		return apperrors.ValidationError("could not parse broadcaster id in eventsub message")
	}
	if msg.Event.UserLogin == "" {
		return apperrors.ValidationError("eventsub message is missing user login")
	}

	_, err = s.app.RecordFirst(c.Request().Context(), channelID, msg.Event.UserLogin, msg.Event.Reward.ID)
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// handleRevocation clears the stored subscription id. Twitch revokes
// subscriptions when the broadcaster's authorization is removed.
func (s *Server) handleRevocation(c echo.Context, msg *eventSubMessage) error {
	channelID, err := strconv.Atoi(msg.Subscription.Condition["broadcaster_user_id"])
	if err != nil {
		return apperrors.ValidationError("could not parse broadcaster id in revocation message")
	}

	slog.Warn("eventsub subscription revoked",
		"eventsub_id", msg.Subscription.ID, "status", msg.Subscription.Status, "broadcaster_id", channelID)

	if err := s.app.HandleRevocation(c.Request().Context(), channelID, msg.Subscription.ID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
