package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	apperrors "saferun/internal/platform/errors"
	"saferun/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

// RouteRegistrar is implemented by inbound HTTP adapters.
type RouteRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

type Server struct {
	Echo *echo.Echo
	API  *echo.Group
	addr string
}

func New(addr string, gatherer prometheus.Gatherer, registrars ...RouteRegistrar) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api/v1")
	for _, r := range registrars {
		r.RegisterRoutes(api)
	}
	return &Server{Echo: e, API: api, addr: addr}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("http server listening")
		errCh <- s.Echo.Start(s.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Echo.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// StatusFor maps application errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrAlreadyResolved), errors.Is(err, apperrors.ErrPreconditionFailed):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.JSON(he.Code, map[string]any{"error": he.Message})
		return
	}
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
		msg = "internal server error"
	}
	_ = c.JSON(status, map[string]any{"error": msg})
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		ctx := logging.WithFields(req.Context(), map[string]any{
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			"method":     req.Method,
			"path":       req.URL.Path,
		})
		c.SetRequest(req.WithContext(ctx))
		logger := log.Ctx(ctx)

		err := next(c)
		if err != nil {
			c.Error(err)
		}
		logger.Info().
			Int("status", c.Response().Status).
			Dur("took", time.Since(start)).
			Msg("request")
		return nil
	}
}
