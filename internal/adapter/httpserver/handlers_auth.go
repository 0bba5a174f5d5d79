package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/jaedolph/verified-first/internal/platform/errors"
)

// Results rendered into the auth popup. The extension frontend matches on
// these exact strings.
const (
	authResultSuccess = "AUTH_SUCCESSFUL"
	authResultFailed  = "AUTH_FAILED"
)

// handleAuth is the OAuth redirect target. It always renders a 200 page so the
// popup can report the outcome to the extension; only unexpected errors
// propagate to the error middleware.
func (s *Server) handleAuth(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		logError(c, apperrors.ValidationError("missing code in auth redirect"))
		return s.renderTemplate(c, "auth.html", map[string]string{"Result": authResultFailed})
	}

	_, err := s.app.CompleteAuth(c.Request().Context(), code)
	if err != nil {
		var structuredErr *apperrors.Error
		if !errors.As(err, &structuredErr) {
			return err
		}
		logError(c, structuredErr)
		return s.renderTemplate(c, "auth.html", map[string]string{"Result": authResultFailed})
	}

	return s.renderTemplate(c, "auth.html", map[string]string{"Result": authResultSuccess})
}

// handleAuthCheck reports whether the calling channel has completed the OAuth
// flow.
func (s *Server) handleAuthCheck(c echo.Context) error {
	channelID, err := channelIDFromContext(c)
	if err != nil {
		return err
	}

	authed, err := s.app.AuthCheck(c.Request().Context(), channelID)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"authed": authed}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
