package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type stubRepo struct {
	specialties  map[uuid.UUID]*Specialty
	serviceTypes map[uuid.UUID]*ServiceType
	dentists     map[uuid.UUID]*Dentist
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		specialties:  map[uuid.UUID]*Specialty{},
		serviceTypes: map[uuid.UUID]*ServiceType{},
		dentists:     map[uuid.UUID]*Dentist{},
	}
}

func (s *stubRepo) GetSpecialtyByID(_ context.Context, id uuid.UUID) (*Specialty, error) {
	if sp, ok := s.specialties[id]; ok {
		return sp, nil
	}
	return nil, ErrSpecialtyNotFound
}

func (s *stubRepo) ListSpecialties(context.Context) ([]Specialty, error) { return nil, nil }

func (s *stubRepo) CreateSpecialty(_ context.Context, name string) (*Specialty, error) {
	sp := &Specialty{ID: uuid.New(), Name: name, Active: true}
	s.specialties[sp.ID] = sp
	return sp, nil
}

func (s *stubRepo) DeactivateSpecialty(_ context.Context, id uuid.UUID) (*Specialty, error) {
	sp, ok := s.specialties[id]
	if !ok {
		return nil, ErrSpecialtyNotFound
	}
	sp.Active = false
	return sp, nil
}

func (s *stubRepo) GetServiceTypeByID(_ context.Context, id uuid.UUID) (*ServiceType, error) {
	if st, ok := s.serviceTypes[id]; ok {
		return st, nil
	}
	return nil, ErrServiceTypeNotFound
}

func (s *stubRepo) ListServiceTypes(context.Context, *uuid.UUID) ([]ServiceType, error) {
	return nil, nil
}

func (s *stubRepo) CreateServiceType(_ context.Context, specialtyID uuid.UUID, name string, durationMinutes int) (*ServiceType, error) {
	st := &ServiceType{ID: uuid.New(), SpecialtyID: specialtyID, Name: name, DurationMinutes: durationMinutes, Active: true}
	s.serviceTypes[st.ID] = st
	return st, nil
}

func (s *stubRepo) DeactivateServiceType(_ context.Context, id uuid.UUID) (*ServiceType, error) {
	st, ok := s.serviceTypes[id]
	if !ok {
		return nil, ErrServiceTypeNotFound
	}
	st.Active = false
	return st, nil
}

func (s *stubRepo) GetDentistByID(_ context.Context, id uuid.UUID) (*Dentist, error) {
	if d, ok := s.dentists[id]; ok {
		return d, nil
	}
	return nil, ErrDentistNotFound
}

func TestGetActiveServiceType(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	active := &ServiceType{ID: uuid.New(), Active: true, DurationMinutes: 30}
	inactive := &ServiceType{ID: uuid.New(), Active: false, DurationMinutes: 30}
	repo.serviceTypes[active.ID] = active
	repo.serviceTypes[inactive.ID] = inactive

	if _, err := svc.GetActiveServiceType(ctx, active.ID); err != nil {
		t.Fatalf("active service type rejected: %v", err)
	}
	if _, err := svc.GetActiveServiceType(ctx, inactive.ID); !errors.Is(err, ErrServiceTypeInactive) {
		t.Fatalf("inactive service type error = %v, want ErrServiceTypeInactive", err)
	}
	if _, err := svc.GetActiveServiceType(ctx, uuid.New()); !errors.Is(err, ErrServiceTypeNotFound) {
		t.Fatalf("missing service type error = %v, want ErrServiceTypeNotFound", err)
	}
}

func TestGetActiveDentist(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	retired := &Dentist{ID: uuid.New(), Active: false}
	repo.dentists[retired.ID] = retired

	if _, err := svc.GetActiveDentist(ctx, retired.ID); !errors.Is(err, ErrDentistInactive) {
		t.Fatalf("retired dentist error = %v, want ErrDentistInactive", err)
	}
}

func TestCreateServiceTypeRequiresActiveSpecialty(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	closed := &Specialty{ID: uuid.New(), Name: "Orthodontics", Active: false}
	repo.specialties[closed.ID] = closed

	if _, err := svc.CreateServiceType(ctx, closed.ID, "Braces fitting", 45); !errors.Is(err, ErrSpecialtyInactive) {
		t.Fatalf("error = %v, want ErrSpecialtyInactive", err)
	}
}
