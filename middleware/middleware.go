// Package middleware carries the request-scoped logging setup shared by
// all HTTP handlers.
package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// RequestLogging attaches a zerolog logger annotated with the request
// method and path to the request context, so handlers can use
// log.Ctx(ctx) and get correlated log lines.
func RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			logger := log.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			c.SetRequest(r.WithContext(logger.WithContext(r.Context())))
			logger.Debug().Msgf("r=%v", c.RealIP())
			return next(c)
		}
	}
}

// AddAll installs the full middleware stack on e.
func AddAll(e *echo.Echo) {
	e.Use(echomw.Recover())
	e.Use(RequestLogging())
}
