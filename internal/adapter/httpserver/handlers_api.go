package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/jaedolph/verified-first/internal/platform/errors"
)

// handleFirsts returns redemption counts per viewer for the calling channel.
// Optional start/end query params (RFC 3339) bound the window inclusively.
func (s *Server) handleFirsts(c echo.Context) error {
	channelID, err := channelIDFromContext(c)
	if err != nil {
		return err
	}

	start, err := parseTimeParam(c, "start")
	if err != nil {
		return err
	}
	end, err := parseTimeParam(c, "end")
	if err != nil {
		return err
	}

	counts, err := s.app.Firsts(c.Request().Context(), channelID, start, end)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, counts); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleRewards lists the broadcaster's channel-point rewards.
func (s *Server) handleRewards(c echo.Context) error {
	channelID, err := channelIDFromContext(c)
	if err != nil {
		return err
	}

	rewards, err := s.app.Rewards(c.Request().Context(), channelID)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, rewards); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleCreateEventSub stores the selected reward and converges the channel's
// EventSub registration to it.
func (s *Server) handleCreateEventSub(c echo.Context) error {
	channelID, err := channelIDFromContext(c)
	if err != nil {
		return err
	}

	// The frontend serializes an unset selector as the literal "undefined".
	rewardID := c.QueryParam("reward_id")
	if rewardID == "" || rewardID == "undefined" {
		return apperrors.ValidationError("reward_id is required")
	}

	eventsubID, err := s.app.ConfigureEventSub(c.Request().Context(), channelID, rewardID)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]string{"eventsub_id": eventsubID}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func parseTimeParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.ValidationError(fmt.Sprintf("invalid %s time", name)).WithField(name, raw)
	}
	return &t, nil
}
