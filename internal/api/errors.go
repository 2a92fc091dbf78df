package api

import (
	"errors"
	"net/http"

	"github.com/brightsmile/clinic-scheduling/internal/booking"
	"github.com/brightsmile/clinic-scheduling/internal/catalog"
	"github.com/brightsmile/clinic-scheduling/internal/schedule"
)

// writeDomainError maps sentinel errors from the domain packages onto HTTP
// statuses. Anything unrecognized is a 500 with no internals leaked.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, booking.ErrMissingPatient):
		writeError(w, http.StatusBadRequest, "missing_patient", err.Error())
	case errors.Is(err, booking.ErrServiceTooLong):
		writeError(w, http.StatusBadRequest, "service_too_long", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "invalid_status_transition", err.Error())

	case errors.Is(err, schedule.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		// Missing, deactivated and past slots are all "not offered".
		writeError(w, http.StatusNotFound, "slot_unavailable", err.Error())
	case errors.Is(err, catalog.ErrServiceTypeInactive):
		writeError(w, http.StatusNotFound, "service_type_inactive", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrGuestNotFound):
		writeError(w, http.StatusNotFound, "guest_patient_not_found", err.Error())
	case errors.Is(err, catalog.ErrSpecialtyNotFound):
		writeError(w, http.StatusNotFound, "specialty_not_found", err.Error())
	case errors.Is(err, catalog.ErrServiceTypeNotFound):
		writeError(w, http.StatusNotFound, "service_type_not_found", err.Error())
	case errors.Is(err, catalog.ErrDentistNotFound):
		writeError(w, http.StatusNotFound, "dentist_not_found", err.Error())

	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_already_reserved", err.Error())
	case errors.Is(err, booking.ErrDoubleBooking):
		writeError(w, http.StatusConflict, "double_booking", err.Error())
	case errors.Is(err, booking.ErrConfirmTokenSpent):
		writeError(w, http.StatusConflict, "confirmation_token_invalid", err.Error())
	case errors.Is(err, schedule.ErrSlotOverlap):
		writeError(w, http.StatusConflict, "slot_overlap", err.Error())
	case errors.Is(err, schedule.ErrSlotHasAppointments):
		writeError(w, http.StatusConflict, "slot_has_appointments", err.Error())
	case errors.Is(err, catalog.ErrSpecialtyInUse):
		writeError(w, http.StatusConflict, "specialty_in_use", err.Error())
	case errors.Is(err, catalog.ErrServiceTypeInUse):
		writeError(w, http.StatusConflict, "service_type_in_use", err.Error())
	case errors.Is(err, catalog.ErrDentistInactive):
		writeError(w, http.StatusConflict, "dentist_inactive", err.Error())
	case errors.Is(err, catalog.ErrSpecialtyInactive):
		writeError(w, http.StatusConflict, "specialty_inactive", err.Error())

	case errors.Is(err, booking.ErrPatientAtCapacity):
		writeError(w, http.StatusTooManyRequests, "patient_at_capacity", err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
