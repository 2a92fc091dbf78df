package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/brightsmile/clinic-scheduling/pkg/logging"
)

var (
	ErrServiceTypeInactive = errors.New("service type is not active")
	ErrDentistInactive     = errors.New("dentist is not an active practitioner")
	ErrSpecialtyInactive   = errors.New("specialty is not active")
)

// Service is the read/admin surface over the clinical catalog. The booking
// engine consumes it through the active-entity lookups only.
type Service struct {
	repo   Repository
	logger *logging.Logger
}

func NewService(repo Repository, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// GetActiveServiceType returns the service type only if it is active.
func (s *Service) GetActiveServiceType(ctx context.Context, id uuid.UUID) (*ServiceType, error) {
	st, err := s.repo.GetServiceTypeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.Active {
		return nil, ErrServiceTypeInactive
	}
	return st, nil
}

// GetActiveDentist returns the dentist only if they are an active practitioner.
func (s *Service) GetActiveDentist(ctx context.Context, id uuid.UUID) (*Dentist, error) {
	d, err := s.repo.GetDentistByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Active {
		return nil, ErrDentistInactive
	}
	return d, nil
}

// GetActiveSpecialty returns the specialty only if it is active.
func (s *Service) GetActiveSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	sp, err := s.repo.GetSpecialtyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sp.Active {
		return nil, ErrSpecialtyInactive
	}
	return sp, nil
}

func (s *Service) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	return s.repo.ListSpecialties(ctx)
}

func (s *Service) ListServiceTypes(ctx context.Context, specialtyID *uuid.UUID) ([]ServiceType, error) {
	return s.repo.ListServiceTypes(ctx, specialtyID)
}

func (s *Service) CreateSpecialty(ctx context.Context, name string) (*Specialty, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("specialty name is required")
	}
	sp, err := s.repo.CreateSpecialty(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("specialty created", "specialty_id", sp.ID, "name", sp.Name)
	return sp, nil
}

func (s *Service) CreateServiceType(ctx context.Context, specialtyID uuid.UUID, name string, durationMinutes int) (*ServiceType, error) {
	if _, err := s.GetActiveSpecialty(ctx, specialtyID); err != nil {
		return nil, err
	}
	st, err := s.repo.CreateServiceType(ctx, specialtyID, strings.TrimSpace(name), durationMinutes)
	if err != nil {
		return nil, err
	}
	s.logger.Info("service type created", "service_type_id", st.ID, "duration_minutes", st.DurationMinutes)
	return st, nil
}

func (s *Service) DeactivateSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	sp, err := s.repo.DeactivateSpecialty(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("specialty deactivated", "specialty_id", sp.ID)
	return sp, nil
}

func (s *Service) DeactivateServiceType(ctx context.Context, id uuid.UUID) (*ServiceType, error) {
	st, err := s.repo.DeactivateServiceType(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("service type deactivated", "service_type_id", st.ID)
	return st, nil
}
