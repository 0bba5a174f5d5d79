package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jaedolph/verified-first/internal/domain"
	"github.com/jaedolph/verified-first/internal/platform/config"
	"github.com/jaedolph/verified-first/internal/verify"
	"github.com/jaedolph/verified-first/web"
)

type appService interface {
	CompleteAuth(ctx context.Context, code string) (*domain.Broadcaster, error)
	AuthCheck(ctx context.Context, channelID int) (bool, error)
	Firsts(ctx context.Context, channelID int, start, end *time.Time) (map[string]int, error)
	Rewards(ctx context.Context, channelID int) ([]domain.Reward, error)
	ConfigureEventSub(ctx context.Context, channelID int, rewardID string) (string, error)
	RecordFirst(ctx context.Context, channelID int, userName, rewardID string) (*domain.First, error)
	HandleRevocation(ctx context.Context, channelID int, eventsubID string) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app       appService
	verifier  *verify.SignatureVerifier
	validator *verify.TokenValidator
	replay    *ReplayCache

	metricsHandler http.Handler
	httpMetrics    echo.MiddlewareFunc

	templates *template.Template

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, verifier *verify.SignatureVerifier, validator *verify.TokenValidator, replay *ReplayCache, metricsHandler http.Handler, httpMetrics echo.MiddlewareFunc, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		verifier:       verifier,
		validator:      validator,
		replay:         replay,
		metricsHandler: metricsHandler,
		httpMetrics:    httpMetrics,
		templates:      templates,
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
