package catalog

import (
	"time"

	"github.com/google/uuid"
)

type Specialty struct {
	ID        uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ServiceType struct {
	ID              uuid.UUID
	SpecialtyID     uuid.UUID
	Name            string
	DurationMinutes int
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Dentist struct {
	ID          uuid.UUID
	Name        string
	SpecialtyID uuid.UUID
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
