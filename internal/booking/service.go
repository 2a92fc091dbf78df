package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brightsmile/clinic-scheduling/internal/catalog"
	"github.com/brightsmile/clinic-scheduling/internal/observability/metrics"
	redisclient "github.com/brightsmile/clinic-scheduling/internal/redis"
	"github.com/brightsmile/clinic-scheduling/internal/schedule"
	"github.com/brightsmile/clinic-scheduling/pkg/logging"
)

var (
	// ErrSlotUnavailable covers missing, deactivated and past slots alike;
	// none of them are offered for booking.
	ErrSlotUnavailable = errors.New("slot is not available for booking")

	ErrServiceTooLong    = errors.New("service requires more time than the slot provides")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingPatient    = errors.New("booking needs exactly one patient identity")
	ErrConfirmTokenSpent = errors.New("confirmation token is invalid, expired or already used")
)

// SlotReader is the slice of the slot registry the ledger reads.
type SlotReader interface {
	GetSlotByID(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
}

// ServiceCatalog supplies active service-type data; read-only here.
type ServiceCatalog interface {
	GetActiveServiceType(ctx context.Context, id uuid.UUID) (*catalog.ServiceType, error)
}

// Notifier dispatches the post-commit confirmation email. Failures are the
// notifier's problem to report, never the booking's.
type Notifier interface {
	SendConfirmation(ctx context.Context, detail *AppointmentDetail, confirmToken string) error
}

// TokenStore issues and redeems single-use confirmation tokens.
type TokenStore interface {
	Issue(ctx context.Context, appointmentID uuid.UUID) (string, error)
	Redeem(ctx context.Context, token string) (uuid.UUID, error)
}

// Caps are the live-appointment limits per patient class.
type Caps struct {
	Guest      int
	Registered int
}

// Service is the appointment ledger: it validates a candidate booking,
// commits it atomically and drives the status lifecycle.
type Service struct {
	repo     Repository
	slots    SlotReader
	catalog  ServiceCatalog
	notifier Notifier
	tokens   TokenStore
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	caps     Caps
	now      func() time.Time
}

func NewService(
	repo Repository,
	slots SlotReader,
	cat ServiceCatalog,
	notifier Notifier,
	tokens TokenStore,
	m *metrics.BookingMetrics,
	caps Caps,
	logger *logging.Logger,
) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if caps.Guest <= 0 {
		caps.Guest = 3
	}
	if caps.Registered <= 0 {
		caps.Registered = 5
	}
	return &Service{
		repo:     repo,
		slots:    slots,
		catalog:  cat,
		notifier: notifier,
		tokens:   tokens,
		metrics:  m,
		logger:   logger,
		caps:     caps,
		now:      time.Now,
	}
}

type CreateBookingInput struct {
	SlotID        uuid.UUID
	ServiceTypeID uuid.UUID
	Notes         string

	// Exactly one of the two.
	UserID *uuid.UUID
	Guest  *GuestDetails
}

// CreateBooking runs the full reservation: resolve patient, validate slot,
// service and capacity, insert atomically, then dispatch the confirmation
// email best-effort.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*AppointmentDetail, error) {
	if (in.UserID == nil) == (in.Guest == nil) {
		return nil, ErrMissingPatient
	}

	slot, err := s.slots.GetSlotByID(ctx, in.SlotID)
	if err != nil {
		if errors.Is(err, schedule.ErrSlotNotFound) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if !slot.Active || !slot.StartsAt.After(s.now()) {
		return nil, ErrSlotUnavailable
	}

	serviceType, err := s.catalog.GetActiveServiceType(ctx, in.ServiceTypeID)
	if err != nil {
		return nil, err
	}
	if serviceType.DurationMinutes > slot.DurationMinutes() {
		return nil, ErrServiceTooLong
	}

	limit := s.caps.Registered
	if in.Guest != nil {
		limit = s.caps.Guest
	}

	appt, guest, err := s.repo.CreateAppointment(ctx, CreateAppointmentInput{
		SlotID:        slot.ID,
		SlotStartsAt:  slot.StartsAt,
		ServiceTypeID: serviceType.ID,
		Notes:         in.Notes,
		UserID:        in.UserID,
		Guest:         in.Guest,
		Cap:           limit,
	})
	if err != nil {
		s.metrics.ObserveBooking(bookingOutcome(err))
		return nil, err
	}
	s.metrics.ObserveBooking("created")

	if guest != nil {
		s.logger.Info("guest patient resolved", "guest_patient_id", guest.ID)
	}
	s.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"slot_id", appt.SlotID,
		"service_type_id", appt.ServiceTypeID,
	)

	detail, err := s.repo.GetAppointmentDetail(ctx, appt.ID)
	if err != nil {
		return nil, fmt.Errorf("load created appointment: %w", err)
	}

	s.dispatchConfirmation(ctx, detail)

	return detail, nil
}

// dispatchConfirmation runs strictly after commit. Nothing here may fail the
// booking: errors are counted and logged, and the parent context's
// cancellation is detached so an impatient client cannot abort the email.
func (s *Service) dispatchConfirmation(ctx context.Context, detail *AppointmentDetail) {
	if s.notifier == nil {
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var token string
	if s.tokens != nil {
		var err error
		token, err = s.tokens.Issue(sendCtx, detail.ID)
		if err != nil {
			s.logger.Error("confirmation token issue failed", "error", err, "appointment_id", detail.ID)
			token = ""
		}
	}

	if err := s.notifier.SendConfirmation(sendCtx, detail, token); err != nil {
		s.metrics.ObserveNotificationFailure()
		s.logger.Error("confirmation email failed", "error", err, "appointment_id", detail.ID)
	}
}

// UpdateStatus moves an appointment along the state machine. Requests outside
// the graph are rejected; a concurrent transition shows up as a failed
// compare-and-set and is reported the same way.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*AppointmentDetail, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !ValidTransition(appt.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The row exists; the status moved under us.
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
		}
		return nil, err
	}

	s.metrics.ObserveTransition(string(appt.Status), string(to))
	s.logger.Info("appointment status updated",
		"appointment_id", id,
		"from", appt.Status,
		"to", updated.Status,
	)

	return s.repo.GetAppointmentDetail(ctx, id)
}

// ConfirmByToken redeems an emailed confirmation token. Tokens are single-use
// and expiring; a missing token and a spent token are indistinguishable.
func (s *Service) ConfirmByToken(ctx context.Context, token string) (*AppointmentDetail, error) {
	if s.tokens == nil {
		return nil, ErrConfirmTokenSpent
	}

	apptID, err := s.tokens.Redeem(ctx, token)
	if err != nil {
		if errors.Is(err, redisclient.ErrTokenNotFound) {
			return nil, ErrConfirmTokenSpent
		}
		return nil, fmt.Errorf("redeem confirmation token: %w", err)
	}

	return s.UpdateStatus(ctx, apptID, StatusConfirmed)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	return s.repo.GetAppointmentDetail(ctx, id)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, ref PatientRef, limit, offset int) ([]AppointmentDetail, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListAppointmentsByPatient(ctx, ref, limit, offset)
}

// ResolveGuest is the standalone guest find-or-create; the booking path runs
// the same upsert inside its own transaction.
func (s *Service) ResolveGuest(ctx context.Context, details GuestDetails) (*GuestPatient, error) {
	return s.repo.ResolveGuest(ctx, details)
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrDoubleBooking):
		return "double_booking"
	case errors.Is(err, ErrPatientAtCapacity):
		return "capacity"
	default:
		return "error"
	}
}
