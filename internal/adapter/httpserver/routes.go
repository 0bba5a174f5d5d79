package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(correlationMiddleware)
	s.echo.Use(ErrorHandlingMiddleware())
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics)
	}

	s.registerHealthRoutes()

	authLimiter := newRateLimiter(s.config.AuthRatePerSecond, s.config.AuthRateBurst, s.config.AuthRateExpiry)
	s.echo.GET("/auth", s.handleAuth, authLimiter)
	s.echo.GET("/auth/check", s.handleAuthCheck, s.requireExtensionJWT)

	s.echo.GET("/firsts", s.handleFirsts, s.requireExtensionJWT)
	s.echo.GET("/rewards", s.handleRewards, s.requireExtensionJWT, s.requireBroadcaster)
	s.echo.POST("/eventsub/create", s.handleCreateEventSub, s.requireExtensionJWT, s.requireBroadcaster)

	s.echo.POST("/eventsub", s.handleEventSub)

	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
