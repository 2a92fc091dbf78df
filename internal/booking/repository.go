package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrGuestNotFound       = errors.New("guest patient not found")

	// ErrSlotTaken is raised both by the in-transaction pre-check and by the
	// storage-layer uniqueness constraint; callers see one error either way.
	ErrSlotTaken         = errors.New("slot already reserved")
	ErrDoubleBooking     = errors.New("patient already has an appointment at this time")
	ErrPatientAtCapacity = errors.New("patient has reached the live appointment limit")
)

// GuestDetails is the contact identity submitted with a guest booking.
type GuestDetails struct {
	Name  string
	Email string
	Phone string
}

// CreateAppointmentInput crosses the ledger's transaction boundary. Exactly
// one of UserID/Guest is set. Cap is the live-appointment limit for the
// patient's class. SlotStartsAt feeds the double-booking check.
type CreateAppointmentInput struct {
	SlotID        uuid.UUID
	SlotStartsAt  time.Time
	ServiceTypeID uuid.UUID
	Notes         string

	UserID *uuid.UUID
	Guest  *GuestDetails

	Cap int
}

// Repository contains the ledger DB interactions. CreateAppointment performs
// guest resolution, the conflict/capacity checks and the insert as one
// transaction.
type Repository interface {
	CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*Appointment, *GuestPatient, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsByPatient(ctx context.Context, ref PatientRef, limit, offset int) ([]AppointmentDetail, error)

	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// ResolveGuest is the standalone find-or-create used outside the booking
	// transaction; repeated calls with one email converge on one row.
	ResolveGuest(ctx context.Context, details GuestDetails) (*GuestPatient, error)
}
