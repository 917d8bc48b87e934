package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/booking"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func writeViolations(w http.ResponseWriter, vs []validation.Violation) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Error:      "validation_failed",
		Violations: toViolationResponses(vs),
	})
}

// handleServiceError maps service errors onto HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeViolations(w, verr.Violations)
	case errors.Is(err, clinic.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, clinic.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, clinic.ErrVisitNotFound):
		writeError(w, http.StatusNotFound, "visit_not_found", err.Error())
	case errors.Is(err, clinic.ErrDiagnosisNotFound):
		writeError(w, http.StatusNotFound, "diagnosis_not_found", err.Error())
	case errors.Is(err, clinic.ErrDuplicateUser):
		writeError(w, http.StatusConflict, "username_taken", err.Error())
	case errors.Is(err, clinic.ErrValueTooLong):
		writeError(w, http.StatusBadRequest, "value_too_long", err.Error())
	case errors.Is(err, booking.ErrCalendarBusy):
		writeError(w, http.StatusConflict, "calendar_busy", "the calendar is being changed, please retry shortly")
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
