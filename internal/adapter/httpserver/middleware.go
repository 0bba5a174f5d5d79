package httpserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/jaedolph/verified-first/internal/platform/correlation"
	apperrors "github.com/jaedolph/verified-first/internal/platform/errors"
)

// Context keys set by the JWT middleware.
const (
	contextKeyChannelID = "channelID"
	contextKeyRole      = "role"
)

const roleBroadcaster = "broadcaster"

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// requireExtensionJWT validates the extension JWT on the Authorization header
// and stores the caller's channel id and role on the request context.
func (s *Server) requireExtensionJWT(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := s.validator.Validate(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return err
		}

		c.Set(contextKeyChannelID, identity.ChannelID)
		c.Set(contextKeyRole, identity.Role)
		return next(c)
	}
}

// requireBroadcaster rejects callers whose JWT role is not "broadcaster".
// Must run after requireExtensionJWT.
func (s *Server) requireBroadcaster(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get(contextKeyRole).(string)
		if !ok {
			return apperrors.InternalError("missing role in context", nil)
		}
		if role != roleBroadcaster {
			return apperrors.AuthorizationError("user role is not broadcaster").WithField("role", role)
		}
		return next(c)
	}
}

func channelIDFromContext(c echo.Context) (int, error) {
	channelID, ok := c.Get(contextKeyChannelID).(int)
	if !ok {
		return 0, apperrors.InternalError("missing channel id in context", nil)
	}
	return channelID, nil
}

func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			structuredErr := apperrors.AsStructuredError(err)
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	if channelID := c.Get(contextKeyChannelID); channelID != nil {
		attrs = append(attrs, "channel_id", channelID)
	}

	switch err.Type {
	case apperrors.TypeValidation:
		slog.Info("Validation error", attrs...)
	case apperrors.TypeNotFound:
		slog.Info("Not found", attrs...)
	case apperrors.TypeAuthentication:
		slog.Warn("Authentication failed", attrs...)
	case apperrors.TypeAuthorization:
		slog.Warn("Authorization denied", attrs...)
	case apperrors.TypeUpstreamAuth, apperrors.TypeUpstreamAPI:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Twitch API error", attrs...)
	case apperrors.TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Internal error", attrs...)
	default:
		slog.Error("Unknown error type", attrs...)
	}
}
