package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"pizza-authz/internal/ports"
)

// RequestLogger writes one line per request. Handler errors are resolved to
// a response here so the logged status is the one the client sees. Server
// errors log at error level.
func RequestLogger(logger ports.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			req := c.Request()
			res := c.Response()
			args := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"route_pattern", c.Path(),
				"status", res.Status,
				"duration", time.Since(started).String(),
			}
			if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
				args = append(args, "request_id", id)
			}
			if res.Status >= 500 {
				logger.Error(req.Context(), "http request", args...)
			} else {
				logger.Info(req.Context(), "http request", args...)
			}
			return nil
		}
	}
}
