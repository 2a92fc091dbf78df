package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/brightsmile/clinic-scheduling/internal/catalog"
	"github.com/brightsmile/clinic-scheduling/pkg/logging"
)

var ErrInvalidInterval = errors.New("slot end must be after slot start")

// Catalog is the slice of the clinical catalog the registry needs.
type Catalog interface {
	GetActiveDentist(ctx context.Context, id uuid.UUID) (*catalog.Dentist, error)
	GetActiveSpecialty(ctx context.Context, id uuid.UUID) (*catalog.Specialty, error)
}

// Service owns slot publication for dentists: no-overlap creation, guarded
// deactivation and future-only listing.
type Service struct {
	repo    Repository
	catalog Catalog
	logger  *logging.Logger
	now     func() time.Time
}

func NewService(repo Repository, cat Catalog, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		catalog: cat,
		logger:  logger,
		now:     time.Now,
	}
}

type CreateSlotInput struct {
	DentistID   uuid.UUID
	SpecialtyID uuid.UUID
	StartsAt    time.Time
	EndsAt      time.Time
}

func (s *Service) Create(ctx context.Context, in CreateSlotInput) (*Slot, error) {
	if !in.EndsAt.After(in.StartsAt) {
		return nil, ErrInvalidInterval
	}
	if _, err := s.catalog.GetActiveDentist(ctx, in.DentistID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetActiveSpecialty(ctx, in.SpecialtyID); err != nil {
		return nil, err
	}

	slot, err := s.repo.CreateSlot(ctx, &Slot{
		DentistID:   in.DentistID,
		SpecialtyID: in.SpecialtyID,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot published",
		"slot_id", slot.ID,
		"dentist_id", slot.DentistID,
		"starts_at", slot.StartsAt,
		"ends_at", slot.EndsAt,
	)
	return slot, nil
}

type UpdateSlotInput struct {
	DentistID   *uuid.UUID
	SpecialtyID *uuid.UUID
	StartsAt    *time.Time
	EndsAt      *time.Time
}

// Update applies partial changes and re-runs the overlap check against the
// (possibly changed) dentist's other active slots.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateSlotInput) (*Slot, error) {
	slot, err := s.repo.GetSlotByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !slot.Active {
		return nil, ErrSlotNotFound
	}

	if in.DentistID != nil {
		slot.DentistID = *in.DentistID
	}
	if in.SpecialtyID != nil {
		slot.SpecialtyID = *in.SpecialtyID
	}
	if in.StartsAt != nil {
		slot.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		slot.EndsAt = *in.EndsAt
	}

	if !slot.EndsAt.After(slot.StartsAt) {
		return nil, ErrInvalidInterval
	}
	if _, err := s.catalog.GetActiveDentist(ctx, slot.DentistID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetActiveSpecialty(ctx, slot.SpecialtyID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateSlot(ctx, slot)
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot updated", "slot_id", updated.ID, "dentist_id", updated.DentistID)
	return updated, nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Slot, error) {
	slot, err := s.repo.DeactivateSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("slot deactivated", "slot_id", slot.ID)
	return slot, nil
}

// FindFuture lists bookable slots: active, strictly after now, soonest first.
func (s *Service) FindFuture(ctx context.Context, filter Filter) ([]Slot, error) {
	return s.repo.FindFutureSlots(ctx, s.now(), filter)
}

func (s *Service) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.repo.GetSlotByID(ctx, id)
}
