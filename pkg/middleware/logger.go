package middleware

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/thistle/pkg/context"
)

// Logger writes one line per request. Sync calls that fail are logged at warn
// so a rejected merge stands out from routine traffic.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			ctx := c.Request().Context()
			res := c.Response()

			fields := context.LogFields(ctx)
			fields["uri"] = c.Request().RequestURI
			fields["status"] = res.Status
			fields["response_time_ms"] = time.Since(start).Milliseconds()
			fields["response_size"] = res.Size

			entry := logger.WithContext(ctx).WithFields(fields)
			if res.Status >= 400 {
				entry.Warn("Request failed")
				return nil
			}
			entry.Info("Request")
			return nil
		}
	}
}
