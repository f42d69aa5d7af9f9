package utils

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

var bodyBinder = &echo.DefaultBinder{}

// BindRequest decodes the JSON body of c into T and validates it. Sync
// requests carry everything in the body; path values are read and validated
// by the handler.
func BindRequest[T any](c echo.Context) (T, error) {
	var v T

	if c.Request().ContentLength == 0 {
		return v, httperror.NewHTTPError(http.StatusBadRequest, "request body is required")
	}

	if err := bodyBinder.BindBody(c, &v); err != nil {
		return v, httperror.NewHTTPErrorf(http.StatusBadRequest, "malformed request body: %s", bindMessage(err))
	}

	v, err := Validate(v)
	if err != nil {
		return v, httperror.WrapError(http.StatusBadRequest, err)
	}

	return v, nil
}

func bindMessage(err error) string {
	if he, ok := err.(*echo.HTTPError); ok {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
