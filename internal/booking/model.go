package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brightsmile/clinic-scheduling/internal/catalog"
	"github.com/brightsmile/clinic-scheduling/internal/schedule"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus rejects anything outside the closed status set before it can
// reach the engine.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

// GuestPatient is an unauthenticated booking identity unified by email.
type GuestPatient struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PatientRef points at exactly one of a registered user or a guest patient.
type PatientRef struct {
	UserID         *uuid.UUID
	GuestPatientID *uuid.UUID
}

func (r PatientRef) IsGuest() bool {
	return r.GuestPatientID != nil
}

func (r PatientRef) Valid() bool {
	return (r.UserID != nil) != (r.GuestPatientID != nil)
}

type Appointment struct {
	ID            uuid.UUID
	Patient       PatientRef
	SlotID        uuid.UUID
	ServiceTypeID uuid.UUID
	Status        Status
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Live appointments count against slot exclusivity and patient capacity.
func (a *Appointment) Live() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// PatientInfo is the denormalized patient view used in responses and emails.
type PatientInfo struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
	Guest bool
}

type AppointmentDetail struct {
	Appointment
	Slot        *schedule.Slot
	ServiceType *catalog.ServiceType
	DentistName string
	Patient     PatientInfo
}
