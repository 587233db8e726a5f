package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rickgao/casualty-monitor/internal/pipeline"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

const (
	RangeInvalid          ErrorCode = "RANGE_001"
	WindowInvalid         ErrorCode = "WINDOW_001"
	SeriesEmpty           ErrorCode = "SERIES_001"
	DataUnavailable       ErrorCode = "DATA_001"
	ValidationGeneral     ErrorCode = "VALIDATION_001"
	ValidationInvalidDate ErrorCode = "VALIDATION_002"
	NotFound              ErrorCode = "NOT_FOUND_001"
	SystemInternalError   ErrorCode = "SYSTEM_001"
	SystemUnavailable     ErrorCode = "SYSTEM_002"
)

// errInvalidDate marks a range bound that is not a YYYY-MM-DD date.
var errInvalidDate = errors.New("invalid date")

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorRecorder counts error responses. *metrics.Metrics implements it.
type ErrorRecorder interface {
	ObserveAPIError(code, endpoint string, status int)
}

// errorHandler builds the echo.HTTPErrorHandler that renders ErrorResponse
// bodies and logs each failure.
func errorHandler(recorder ErrorRecorder, logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, detail := classify(err)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request().Context(), level, "http error",
			"code", detail.Code,
			"status", status,
			"path", c.Request().URL.Path,
			"method", c.Request().Method,
			"error", err,
		)

		if recorder != nil {
			recorder.ObserveAPIError(string(detail.Code), c.Path(), status)
		}

		if sendErr := c.JSON(status, ErrorResponse{Error: detail}); sendErr != nil {
			logger.Error("failed to send error response", "error", sendErr)
		}
	}
}

// classify maps an error to a status code and response detail.
func classify(err error) (int, ErrorDetail) {
	var (
		httpErr        *echo.HTTPError
		validationErrs validator.ValidationErrors
	)

	switch {
	case errors.Is(err, pipeline.ErrInvalidRange):
		return http.StatusBadRequest, ErrorDetail{Code: RangeInvalid, Message: err.Error()}
	case errors.Is(err, pipeline.ErrInvalidWindow):
		return http.StatusBadRequest, ErrorDetail{Code: WindowInvalid, Message: err.Error()}
	case errors.Is(err, pipeline.ErrEmptySeries):
		return http.StatusNotFound, ErrorDetail{Code: SeriesEmpty, Message: "no daily reports available"}
	case errors.Is(err, pipeline.ErrDataUnavailable):
		return http.StatusServiceUnavailable, ErrorDetail{Code: DataUnavailable, Message: "source datasets are unavailable"}
	case errors.Is(err, errInvalidDate):
		return http.StatusBadRequest, ErrorDetail{Code: ValidationInvalidDate, Message: err.Error()}
	case errors.As(err, &validationErrs):
		// Only malformed dates get the date-specific code.
		code := ValidationInvalidDate
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = formatValidationError(fe)
			if fe.Tag() != "datetime" {
				code = ValidationGeneral
			}
		}
		return http.StatusBadRequest, ErrorDetail{Code: code, Message: "invalid query parameters", Fields: fields}
	case errors.As(err, &httpErr):
		return httpErr.Code, ErrorDetail{Code: codeForStatus(httpErr.Code), Message: fmt.Sprintf("%v", httpErr.Message)}
	default:
		return http.StatusInternalServerError, ErrorDetail{Code: SystemInternalError, Message: "internal server error"}
	}
}

func codeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusUnprocessableEntity:
		return ValidationGeneral
	case http.StatusNotFound:
		return NotFound
	case http.StatusServiceUnavailable:
		return SystemUnavailable
	default:
		return SystemInternalError
	}
}

// formatValidationError converts a validator.FieldError to a readable message.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return fmt.Sprintf("must be a date in the form %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation for '%s'", fe.Tag())
	}
}
