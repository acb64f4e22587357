package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/teach-portal/backend/services"
	"github.com/upb/teach-portal/backend/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Only the
// domain error's own message reaches the client; wrapped causes are logged.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	status := serviceErrorStatus(err)
	message := publicMessage(err)
	var details map[string]interface{}

	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusTooManyRequests:
		if d := services.GetErrorDetails(err); len(d) > 0 {
			details = d
		}
	case http.StatusInternalServerError:
		if services.GetErrorType(err) == services.ErrorTypeInternal {
			logger.Error("internal server error", zap.Error(err))
			message = "An internal error occurred"
		} else {
			logger.Error("unhandled error type", zap.Error(err))
			message = "An unexpected error occurred"
		}
	}

	if writeErr := utils.WriteError(w, status, message, details); writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// serviceErrorStatus returns the HTTP status for a domain error type
func serviceErrorStatus(err error) int {
	switch {
	case services.IsNotFoundError(err):
		return http.StatusNotFound
	case services.IsValidationError(err):
		return http.StatusBadRequest
	case services.IsUnauthorizedError(err):
		return http.StatusUnauthorized
	case services.IsForbiddenError(err):
		return http.StatusForbidden
	case services.IsConflictError(err):
		return http.StatusConflict
	case services.IsRateLimitedError(err):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the domain error's message without its cause
func publicMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		if err := utils.WriteValidationError(w, utils.GetValidationFields(err)); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, "Invalid request", nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
