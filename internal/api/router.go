package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/brightsmile/clinic-scheduling/internal/auth"
	"github.com/brightsmile/clinic-scheduling/internal/booking"
	"github.com/brightsmile/clinic-scheduling/internal/catalog"
	"github.com/brightsmile/clinic-scheduling/internal/schedule"
	"github.com/brightsmile/clinic-scheduling/pkg/logging"
)

// SlotService is the slice of the slot registry the handlers use.
type SlotService interface {
	Create(ctx context.Context, in schedule.CreateSlotInput) (*schedule.Slot, error)
	Update(ctx context.Context, id uuid.UUID, in schedule.UpdateSlotInput) (*schedule.Slot, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
	FindFuture(ctx context.Context, filter schedule.Filter) ([]schedule.Slot, error)
}

// BookingService is the slice of the appointment ledger the handlers use.
type BookingService interface {
	CreateBooking(ctx context.Context, in booking.CreateBookingInput) (*booking.AppointmentDetail, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to booking.Status) (*booking.AppointmentDetail, error)
	ConfirmByToken(ctx context.Context, token string) (*booking.AppointmentDetail, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*booking.AppointmentDetail, error)
	ListAppointmentsByPatient(ctx context.Context, ref booking.PatientRef, limit, offset int) ([]booking.AppointmentDetail, error)
}

// CatalogService is the admin surface over specialties and service types.
type CatalogService interface {
	ListSpecialties(ctx context.Context) ([]catalog.Specialty, error)
	CreateSpecialty(ctx context.Context, name string) (*catalog.Specialty, error)
	DeactivateSpecialty(ctx context.Context, id uuid.UUID) (*catalog.Specialty, error)
	ListServiceTypes(ctx context.Context, specialtyID *uuid.UUID) ([]catalog.ServiceType, error)
	CreateServiceType(ctx context.Context, specialtyID uuid.UUID, name string, durationMinutes int) (*catalog.ServiceType, error)
	DeactivateServiceType(ctx context.Context, id uuid.UUID) (*catalog.ServiceType, error)
}

type RouterConfig struct {
	Slots    SlotService
	Bookings BookingService
	Catalog  CatalogService
	Verifier *auth.Verifier
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   *logging.Logger
	Metrics  http.Handler
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Get("/slots", listSlotsHandler(cfg.Slots))
	r.Post("/slots", createSlotHandler(cfg.Slots))
	r.Patch("/slots/{id}", updateSlotHandler(cfg.Slots))
	r.Delete("/slots/{id}", deactivateSlotHandler(cfg.Slots))

	r.Post("/bookings/guest", createGuestBookingHandler(cfg.Bookings))

	r.Get("/appointments/confirm", confirmAppointmentHandler(cfg.Bookings))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Bookings))
	r.Post("/appointments/{id}/status", updateAppointmentStatusHandler(cfg.Bookings))

	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth(cfg.Verifier))
		pr.Post("/bookings", createBookingHandler(cfg.Bookings))
		pr.Get("/appointments", listAppointmentsHandler(cfg.Bookings))
	})

	r.Get("/specialties", listSpecialtiesHandler(cfg.Catalog))
	r.Post("/specialties", createSpecialtyHandler(cfg.Catalog))
	r.Delete("/specialties/{id}", deactivateSpecialtyHandler(cfg.Catalog))

	r.Get("/service-types", listServiceTypesHandler(cfg.Catalog))
	r.Post("/service-types", createServiceTypeHandler(cfg.Catalog))
	r.Delete("/service-types/{id}", deactivateServiceTypeHandler(cfg.Catalog))

	return r
}
