package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestObserver receives the route, status and latency of every request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, latency time.Duration)
}

// Logger writes one structured line per request. observer may be nil.
func Logger(logger zerolog.Logger, observer RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)
			if err != nil {
				// Let echo write the error response so the logged status is final.
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status

			evt := logger.Info()
			if status >= 500 {
				evt = logger.Error().Err(err)
			} else if status >= 400 {
				evt = logger.Warn()
			}

			evt.
				Str("request_id", requestID(c)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", latency).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			if observer != nil {
				route := c.Path()
				if route == "" {
					route = req.URL.Path
				}
				observer.ObserveRequest(req.Method, route, status, latency)
			}
			return nil
		}
	}
}
