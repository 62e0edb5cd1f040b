package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventticketing/internal/domain"
)

// WriteServiceError maps a service error to its HTTP status and error code.
// Unmapped errors are logged and reported as internal_error.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	var defErr *domain.FieldDefinitionError
	switch {
	case errors.As(err, &verr):
		WriteJSONErrorDetails(w, http.StatusUnprocessableEntity, ErrCodeValidationFailed, verr.Error(), verr)
	case errors.As(err, &defErr):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, defErr.Error())
	case errors.Is(err, domain.ErrMalformedIdentifier),
		errors.Is(err, domain.ErrMalformedCredential),
		errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrEventNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "event not found")
	case errors.Is(err, domain.ErrFormNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "form not found")
	case errors.Is(err, domain.ErrResponseNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "response not found")
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrTicketDispatch):
		logger.WarnContext(r.Context(), "ticket dispatch failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusBadGateway, ErrCodeBadGateway, "ticket could not be sent, try again later")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}
