package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSpecialtyNotFound   = errors.New("specialty not found")
	ErrServiceTypeNotFound = errors.New("service type not found")
	ErrDentistNotFound     = errors.New("dentist not found")

	// Deactivation is a guarded transition: it is refused while live
	// appointments or active dependents still reference the entity.
	ErrSpecialtyInUse   = errors.New("specialty has active service types or slots")
	ErrServiceTypeInUse = errors.New("service type has live appointments")
)

// Repository contains all catalog DB interactions.
type Repository interface {
	GetSpecialtyByID(ctx context.Context, id uuid.UUID) (*Specialty, error)
	ListSpecialties(ctx context.Context) ([]Specialty, error)
	CreateSpecialty(ctx context.Context, name string) (*Specialty, error)
	DeactivateSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error)

	GetServiceTypeByID(ctx context.Context, id uuid.UUID) (*ServiceType, error)
	ListServiceTypes(ctx context.Context, specialtyID *uuid.UUID) ([]ServiceType, error)
	CreateServiceType(ctx context.Context, specialtyID uuid.UUID, name string, durationMinutes int) (*ServiceType, error)
	DeactivateServiceType(ctx context.Context, id uuid.UUID) (*ServiceType, error)

	GetDentistByID(ctx context.Context, id uuid.UUID) (*Dentist, error)
}
