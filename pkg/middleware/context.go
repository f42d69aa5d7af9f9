package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/thistle/pkg/context"
)

// HeaderUserID carries the upstream user that triggered the sync request.
const HeaderUserID = "X-User-ID"

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := context.WithRequest(req.Context(), context.Request{
				ID:       requestID,
				UserID:   req.Header.Get(HeaderUserID),
				Method:   req.Method,
				Route:    c.Path(),
				RemoteIP: c.RealIP(),
			})
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
