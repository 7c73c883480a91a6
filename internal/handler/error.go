// Package handler exposes the HTTP handlers for every API resource plus the
// central error handler that maps the error taxonomy onto transport.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wanderio/tourhub/internal/apperr"
)

// NewHTTPErrorHandler builds the Echo error handler. Every handler returns a
// classified error; this is the single place where kind becomes status code
// and where dev-vs-production verbosity is decided. Client errors render
// status "fail", server errors "error". In production the detail of
// non-operational errors is suppressed; in development the underlying error
// string is included for every failure that has one.
func NewHTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "something went very wrong"
		var detail string

		var ae *apperr.Error
		switch e := err.(type) {
		case *echo.HTTPError:
			// Routing-level failures (unknown path, method not allowed,
			// malformed body) arrive as echo errors.
			status = e.Code
			if s, ok := e.Message.(string); ok {
				message = s
			} else {
				message = http.StatusText(status)
			}
		default:
			kind := apperr.KindOf(err)
			status = kind.Status()
			if errors.As(err, &ae) && kind.Operational() {
				// The classified message is safe to reveal; the wrapped
				// cause is not, outside development.
				message = ae.Message
				if ae.Err != nil {
					detail = ae.Err.Error()
				}
			} else {
				slog.Error("unhandled error", "method", c.Request().Method,
					"path", c.Path(), "error", err)
				detail = err.Error()
			}
		}

		body := echo.Map{"message": message}
		if status >= http.StatusInternalServerError {
			body["status"] = "error"
		} else {
			body["status"] = "fail"
		}
		if !production && detail != "" {
			body["error"] = detail
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
