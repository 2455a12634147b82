package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Performance domain errors
	case errors.Is(err, performance.ErrInvalidConfiguration):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, performance.ErrModelNotFound):
		NotFound(w, "Model not trained. Please run clustering analysis first.")
	case errors.Is(err, performance.ErrEmptyDataset):
		UnprocessableEntity(w, "EMPTY_DATASET", "No employees with enough approved attendance in the requested period")
	case errors.Is(err, performance.ErrInsufficientData):
		NotFound(w, "No approved attendance data found for this employee in the requested period")
	case errors.Is(err, performance.ErrIncompatibleSnapshot), errors.Is(err, performance.ErrSnapshotChecksum):
		slog.Error("stored model snapshot is unusable", "error", err)
		InternalServerError(w, "Stored model is unusable, retrain required")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	case errors.Is(err, context.DeadlineExceeded):
		GatewayTimeout(w, "The analysis took too long to complete")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
