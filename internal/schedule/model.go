package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a dentist's offered interval. Deactivated slots are kept for the
// appointments that reference them; they are never hard-deleted.
type Slot struct {
	ID          uuid.UUID
	DentistID   uuid.UUID
	SpecialtyID uuid.UUID
	StartsAt    time.Time
	EndsAt      time.Time
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Slot) DurationMinutes() int {
	return int(s.EndsAt.Sub(s.StartsAt) / time.Minute)
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Filter narrows FindFuture listings.
type Filter struct {
	DentistID   *uuid.UUID
	SpecialtyID *uuid.UUID
	Until       *time.Time
}
