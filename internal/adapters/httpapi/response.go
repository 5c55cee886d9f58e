package httpapi

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/shared/validation"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Response defines the base API payload.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo holds error details to send to clients.
type ErrorInfo struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

var (
	errBadBody      = errors.New("request body is not valid JSON")
	errUnauthorized = errors.New("missing or invalid admin token")
	errNotFound     = errors.New("route not found")
	errInternal     = errors.New("internal server error")
)

// Success writes a JSON success response.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// Error maps err onto a status code and writes the error envelope.
// Unmapped errors are logged and reported as a generic 500.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = errInternal
	}
	status, info := describe(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Int("status", status).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, Response{Success: false, Error: info})
}

func describe(err error) (int, *ErrorInfo) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, &ErrorInfo{Code: "validation_failed", Message: err.Error(), Fields: verrs}
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, &ErrorInfo{Code: "invalid_body", Message: err.Error()}
	case errors.Is(err, domain.ErrUnknownSource):
		return http.StatusBadRequest, &ErrorInfo{Code: "unknown_source", Message: err.Error()}
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, &ErrorInfo{Code: "unauthorized", Message: err.Error()}
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden, &ErrorInfo{Code: "forbidden", Message: err.Error()}
	case errors.Is(err, domain.ErrChallengeNotFound):
		return http.StatusNotFound, &ErrorInfo{Code: "not_found", Message: err.Error()}
	case errors.Is(err, errNotFound):
		return http.StatusNotFound, &ErrorInfo{Code: "not_found", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrMissingCredentials),
		errors.Is(err, domain.ErrContractNotSigned),
		errors.Is(err, domain.ErrFinalPhase):
		return http.StatusConflict, &ErrorInfo{Code: "conflict", Message: err.Error()}
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, &ErrorInfo{Code: "source_unavailable", Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, &ErrorInfo{Code: "timeout", Message: "request timed out"}
	}
	return http.StatusInternalServerError, &ErrorInfo{Code: "internal_error", Message: errInternal.Error()}
}
