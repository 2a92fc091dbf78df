package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrSlotOverlap         = errors.New("slot overlaps an existing active slot for this dentist")
	ErrSlotHasAppointments = errors.New("slot has pending or confirmed appointments")
)

// Repository contains all slot DB interactions. Create and Update run the
// overlap check inside the same transaction as the write, holding a row lock
// on the dentist so concurrent publishes for one dentist serialize.
type Repository interface {
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	CreateSlot(ctx context.Context, slot *Slot) (*Slot, error)
	UpdateSlot(ctx context.Context, slot *Slot) (*Slot, error)
	DeactivateSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
	FindFutureSlots(ctx context.Context, now time.Time, filter Filter) ([]Slot, error)
}
