package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/brightsmile/clinic-scheduling/internal/catalog"
)

// stubSlotRepo keeps slots in memory and mirrors the overlap semantics of the
// pg repository.
type stubSlotRepo struct {
	slots map[uuid.UUID]*Slot
	live  map[uuid.UUID]bool // slot id -> has live appointment
}

func newStubSlotRepo() *stubSlotRepo {
	return &stubSlotRepo{
		slots: map[uuid.UUID]*Slot{},
		live:  map[uuid.UUID]bool{},
	}
}

func (r *stubSlotRepo) GetSlotByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	if s, ok := r.slots[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrSlotNotFound
}

func (r *stubSlotRepo) overlaps(slot *Slot, exclude uuid.UUID) bool {
	for _, other := range r.slots {
		if other.ID == exclude || !other.Active || other.DentistID != slot.DentistID {
			continue
		}
		if Overlaps(other.StartsAt, other.EndsAt, slot.StartsAt, slot.EndsAt) {
			return true
		}
	}
	return false
}

func (r *stubSlotRepo) CreateSlot(_ context.Context, slot *Slot) (*Slot, error) {
	if r.overlaps(slot, uuid.Nil) {
		return nil, ErrSlotOverlap
	}
	cp := *slot
	cp.ID = uuid.New()
	cp.Active = true
	r.slots[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *stubSlotRepo) UpdateSlot(_ context.Context, slot *Slot) (*Slot, error) {
	if _, ok := r.slots[slot.ID]; !ok {
		return nil, ErrSlotNotFound
	}
	if r.overlaps(slot, slot.ID) {
		return nil, ErrSlotOverlap
	}
	cp := *slot
	r.slots[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *stubSlotRepo) DeactivateSlot(_ context.Context, id uuid.UUID) (*Slot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if r.live[id] {
		return nil, ErrSlotHasAppointments
	}
	s.Active = false
	cp := *s
	return &cp, nil
}

func (r *stubSlotRepo) FindFutureSlots(_ context.Context, now time.Time, filter Filter) ([]Slot, error) {
	var out []Slot
	for _, s := range r.slots {
		if !s.Active || !s.StartsAt.After(now) {
			continue
		}
		if filter.DentistID != nil && s.DentistID != *filter.DentistID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

type stubCatalog struct {
	inactiveDentists    map[uuid.UUID]bool
	inactiveSpecialties map[uuid.UUID]bool
}

func (c *stubCatalog) GetActiveDentist(_ context.Context, id uuid.UUID) (*catalog.Dentist, error) {
	if c.inactiveDentists[id] {
		return nil, catalog.ErrDentistInactive
	}
	return &catalog.Dentist{ID: id, Active: true}, nil
}

func (c *stubCatalog) GetActiveSpecialty(_ context.Context, id uuid.UUID) (*catalog.Specialty, error) {
	if c.inactiveSpecialties[id] {
		return nil, catalog.ErrSpecialtyInactive
	}
	return &catalog.Specialty{ID: id, Active: true}, nil
}

func newTestService() (*Service, *stubSlotRepo, *stubCatalog) {
	repo := newStubSlotRepo()
	cat := &stubCatalog{
		inactiveDentists:    map[uuid.UUID]bool{},
		inactiveSpecialties: map[uuid.UUID]bool{},
	}
	svc := NewService(repo, cat, nil)
	return svc, repo, cat
}

func TestCreateRejectsOverlap(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	dentist := uuid.New()
	specialty := uuid.New()

	_, err := svc.Create(ctx, CreateSlotInput{
		DentistID: dentist, SpecialtyID: specialty,
		StartsAt: at(9, 0), EndsAt: at(10, 0),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateSlotInput{
		DentistID: dentist, SpecialtyID: specialty,
		StartsAt: at(9, 30), EndsAt: at(10, 30),
	})
	require.ErrorIs(t, err, ErrSlotOverlap)

	// Adjacent interval is fine.
	_, err = svc.Create(ctx, CreateSlotInput{
		DentistID: dentist, SpecialtyID: specialty,
		StartsAt: at(10, 0), EndsAt: at(11, 0),
	})
	require.NoError(t, err)

	// Same interval for another dentist is fine.
	_, err = svc.Create(ctx, CreateSlotInput{
		DentistID: uuid.New(), SpecialtyID: specialty,
		StartsAt: at(9, 0), EndsAt: at(10, 0),
	})
	require.NoError(t, err)
}

func TestCreateRejectsInvalidInterval(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateSlotInput{
		DentistID: uuid.New(), SpecialtyID: uuid.New(),
		StartsAt: at(10, 0), EndsAt: at(9, 0),
	})
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = svc.Create(context.Background(), CreateSlotInput{
		DentistID: uuid.New(), SpecialtyID: uuid.New(),
		StartsAt: at(9, 0), EndsAt: at(9, 0),
	})
	require.ErrorIs(t, err, ErrInvalidInterval)
}

func TestCreateRejectsInactivePractitioner(t *testing.T) {
	svc, _, cat := newTestService()
	retired := uuid.New()
	cat.inactiveDentists[retired] = true

	_, err := svc.Create(context.Background(), CreateSlotInput{
		DentistID: retired, SpecialtyID: uuid.New(),
		StartsAt: at(9, 0), EndsAt: at(10, 0),
	})
	require.ErrorIs(t, err, catalog.ErrDentistInactive)
}

func TestUpdateExcludesSelfFromOverlapCheck(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	dentist := uuid.New()

	slot, err := svc.Create(ctx, CreateSlotInput{
		DentistID: dentist, SpecialtyID: uuid.New(),
		StartsAt: at(9, 0), EndsAt: at(10, 0),
	})
	require.NoError(t, err)

	// Shrinking within its own interval must not self-conflict.
	newEnd := at(9, 30)
	updated, err := svc.Update(ctx, slot.ID, UpdateSlotInput{EndsAt: &newEnd})
	require.NoError(t, err)
	require.Equal(t, newEnd, updated.EndsAt)
}

func TestUpdateRejectsMovingOntoNeighbour(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	dentist := uuid.New()
	specialty := uuid.New()

	_, err := svc.Create(ctx, CreateSlotInput{
		DentistID: dentist, SpecialtyID: specialty,
		StartsAt: at(9, 0), EndsAt: at(10, 0),
	})
	require.NoError(t, err)

	second, err := svc.Create(ctx, CreateSlotInput{
		DentistID: dentist, SpecialtyID: specialty,
		StartsAt: at(10, 0), EndsAt: at(11, 0),
	})
	require.NoError(t, err)

	newStart := at(9, 30)
	_, err = svc.Update(ctx, second.ID, UpdateSlotInput{StartsAt: &newStart})
	require.ErrorIs(t, err, ErrSlotOverlap)
}

func TestDeactivateGuardedByLiveAppointments(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	slot, err := svc.Create(ctx, CreateSlotInput{
		DentistID: uuid.New(), SpecialtyID: uuid.New(),
		StartsAt: at(9, 0), EndsAt: at(10, 0),
	})
	require.NoError(t, err)

	repo.live[slot.ID] = true
	_, err = svc.Deactivate(ctx, slot.ID)
	require.ErrorIs(t, err, ErrSlotHasAppointments)

	repo.live[slot.ID] = false
	got, err := svc.Deactivate(ctx, slot.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestFindFutureSkipsPastSlots(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	dentist := uuid.New()

	past := &Slot{ID: uuid.New(), DentistID: dentist, StartsAt: at(8, 0), EndsAt: at(9, 0), Active: true}
	future := &Slot{ID: uuid.New(), DentistID: dentist, StartsAt: at(15, 0), EndsAt: at(16, 0), Active: true}
	repo.slots[past.ID] = past
	repo.slots[future.ID] = future

	svc.now = func() time.Time { return at(12, 0) }

	slots, err := svc.FindFuture(ctx, Filter{DentistID: &dentist})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, future.ID, slots[0].ID)
}
