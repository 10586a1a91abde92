package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ekisa-team/tabserve/internal/service"
)

// Config holds the HTTP listener settings.
type Config struct {
	MaxBodySize string
	Port        int
}

// Server serves /ping and /invocations.
type Server struct {
	echo *echo.Echo
	addr string
}

// NewServer builds the echo instance and registers the handlers.
func NewServer(cfg Config, svc *service.Inference) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = plainTextErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	if cfg.MaxBodySize != "" {
		e.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	NewInferenceHandler(e, svc)

	return &Server{
		echo: e,
		addr: fmt.Sprintf(":%d", cfg.Port),
	}
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("HTTP server starting", "addr", s.addr)

	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// plainTextErrorHandler renders every unhandled error as a plain-text body.
func plainTextErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.String(code, msg)
	}
	if err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}

// requestLogger logs one slog record per request.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}

			switch {
			case v.Error != nil:
				slog.Error("Request failed", append(attrs, "error", v.Error)...)
			case v.Status >= http.StatusInternalServerError:
				slog.Warn("Request served with server error", attrs...)
			default:
				slog.Debug("Request served", attrs...)
			}
			return nil
		},
	})
}
