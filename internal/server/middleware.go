package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
)

// apiError is the error body of the mapping service.
type apiError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *apiError) Error() string { return e.Message }

func badRequest(msg string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Message: msg}
}

func notFound(msg string) *apiError {
	return &apiError{Status: http.StatusNotFound, Message: msg}
}

func internalError(msg string) *apiError {
	return &apiError{Status: http.StatusInternalServerError, Message: msg}
}

// ErrorHandler writes every handler and router error as {"error": message}.
// Usage: e.HTTPErrorHandler = ErrorHandler(logger)
func ErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body := internalError(http.StatusText(http.StatusInternalServerError))

		var ae *apiError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			body = ae
		case errors.As(err, &he):
			msg, ok := he.Message.(string)
			if !ok {
				msg = http.StatusText(he.Code)
			}
			body = &apiError{Status: he.Code, Message: msg}
		default:
			logger.Error("unhandled error", "path", c.Request().URL.Path, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(body.Status)
		} else {
			err = c.JSON(body.Status, body)
		}
		if err != nil {
			logger.Error("failed to write error response", "error", err)
		}
	}
}

// RequestLogger logs one line per request with method, path, status and duration.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			logger.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start),
			)
			return nil
		}
	}
}
