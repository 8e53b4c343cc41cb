package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"carrental/internal/common"

	"github.com/labstack/echo/v4"
)

// NewHTTPErrorHandler renders every error in the {"error":{...}} envelope.
// Domain errors map by kind; anything unrecognised is logged and hidden
// behind a generic 500.
func NewHTTPErrorHandler(l *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			l.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			l.Error("failed to write error response", "error", writeErr)
		}
	}
}

func errorResponse(err error) (int, *common.ErrorResponse) {
	if msg, ok := common.PublicMessage(err); ok {
		return common.HTTPStatus(err), common.CreateErrorResponse(common.ErrorCode(err), msg, detailsOf(err))
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		// echo-jwt and binding errors can wrap a domain error
		if he.Internal != nil {
			if msg, ok := common.PublicMessage(he.Internal); ok {
				return common.HTTPStatus(he.Internal), common.CreateErrorResponse(common.ErrorCode(he.Internal), msg, nil)
			}
		}
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			msg = "internal server error"
		}
		return he.Code, common.CreateErrorResponse(codeForStatus(he.Code), msg, nil)
	}

	return http.StatusInternalServerError, common.CreateErrorResponse("SERVER_ERROR", "internal server error", nil)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	return "SERVER_ERROR"
}

// fieldError is a validation error tied to one request field.
type fieldError struct {
	err   error
	field string
}

func (e *fieldError) Error() string { return e.err.Error() }

func (e *fieldError) Unwrap() error { return e.err }

// withField attaches the offending field to a validation error.
func withField(err error, field string) error {
	if err == nil {
		return nil
	}
	return &fieldError{err: err, field: field}
}

func detailsOf(err error) map[string]string {
	var fe *fieldError
	if errors.As(err, &fe) {
		return map[string]string{fe.field: fe.err.Error()}
	}
	return nil
}
