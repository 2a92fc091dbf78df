package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/brightsmile/clinic-scheduling/internal/catalog"
	redisclient "github.com/brightsmile/clinic-scheduling/internal/redis"
	"github.com/brightsmile/clinic-scheduling/internal/schedule"
)

// memRepo mirrors the transactional semantics of the pg repository in memory:
// the same conflict, double-booking and capacity rules, applied atomically
// per call.
type memRepo struct {
	appts       map[uuid.UUID]*Appointment
	apptStarts  map[uuid.UUID]time.Time
	guests      map[string]*GuestPatient
	slots       map[uuid.UUID]*schedule.Slot
	serviceType *catalog.ServiceType
}

func newMemRepo() *memRepo {
	return &memRepo{
		appts:      map[uuid.UUID]*Appointment{},
		apptStarts: map[uuid.UUID]time.Time{},
		guests:     map[string]*GuestPatient{},
		slots:      map[uuid.UUID]*schedule.Slot{},
		serviceType: &catalog.ServiceType{
			ID: uuid.New(), Name: "Cleaning", DurationMinutes: 60, Active: true,
		},
	}
}

func (r *memRepo) sameRef(a *Appointment, ref PatientRef) bool {
	if ref.UserID != nil {
		return a.Patient.UserID != nil && *a.Patient.UserID == *ref.UserID
	}
	return a.Patient.GuestPatientID != nil && *a.Patient.GuestPatientID == *ref.GuestPatientID
}

func (r *memRepo) CreateAppointment(_ context.Context, in CreateAppointmentInput) (*Appointment, *GuestPatient, error) {
	var guest *GuestPatient
	ref := PatientRef{UserID: in.UserID}
	if in.Guest != nil {
		if g, ok := r.guests[in.Guest.Email]; ok {
			g.Name = in.Guest.Name
			g.Phone = in.Guest.Phone
			g.Active = true
			guest = g
		} else {
			guest = &GuestPatient{
				ID: uuid.New(), Name: in.Guest.Name, Email: in.Guest.Email,
				Phone: in.Guest.Phone, Active: true,
			}
			r.guests[in.Guest.Email] = guest
		}
		ref = PatientRef{GuestPatientID: &guest.ID}
	}

	liveCount := 0
	for _, a := range r.appts {
		if !a.Live() {
			continue
		}
		if a.SlotID == in.SlotID {
			return nil, nil, ErrSlotTaken
		}
		if r.sameRef(a, ref) {
			if r.apptStarts[a.ID].Equal(in.SlotStartsAt) {
				return nil, nil, ErrDoubleBooking
			}
			liveCount++
		}
	}
	if liveCount >= in.Cap {
		return nil, nil, ErrPatientAtCapacity
	}

	appt := &Appointment{
		ID: uuid.New(), Patient: ref, SlotID: in.SlotID,
		ServiceTypeID: in.ServiceTypeID, Status: StatusPending,
		Notes: in.Notes, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	r.appts[appt.ID] = appt
	r.apptStarts[appt.ID] = in.SlotStartsAt
	return appt, guest, nil
}

func (r *memRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	if a, ok := r.appts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrAppointmentNotFound
}

func (r *memRepo) GetAppointmentDetail(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	det := &AppointmentDetail{Appointment: *a, ServiceType: r.serviceType, DentistName: "Dr. Test"}
	if slot, ok := r.slots[a.SlotID]; ok {
		det.Slot = slot
	} else {
		det.Slot = &schedule.Slot{ID: a.SlotID, StartsAt: r.apptStarts[a.ID], EndsAt: r.apptStarts[a.ID].Add(time.Hour)}
	}
	if a.Patient.GuestPatientID != nil {
		for _, g := range r.guests {
			if g.ID == *a.Patient.GuestPatientID {
				det.Patient = PatientInfo{ID: g.ID, Name: g.Name, Email: g.Email, Phone: g.Phone, Guest: true}
			}
		}
	} else if a.Patient.UserID != nil {
		det.Patient = PatientInfo{ID: *a.Patient.UserID, Name: "Reg User", Email: "user@example.com"}
	}
	return det, nil
}

func (r *memRepo) ListAppointmentsByPatient(_ context.Context, ref PatientRef, _, _ int) ([]AppointmentDetail, error) {
	var out []AppointmentDetail
	for id, a := range r.appts {
		if r.sameRef(a, ref) {
			det, _ := r.GetAppointmentDetail(context.Background(), id)
			out = append(out, *det)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *memRepo) ResolveGuest(_ context.Context, details GuestDetails) (*GuestPatient, error) {
	if g, ok := r.guests[details.Email]; ok {
		g.Name = details.Name
		g.Phone = details.Phone
		g.Active = true
		return g, nil
	}
	g := &GuestPatient{ID: uuid.New(), Name: details.Name, Email: details.Email, Phone: details.Phone, Active: true}
	r.guests[details.Email] = g
	return g, nil
}

type memSlots struct {
	slots map[uuid.UUID]*schedule.Slot
}

func (m *memSlots) GetSlotByID(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	if s, ok := m.slots[id]; ok {
		return s, nil
	}
	return nil, schedule.ErrSlotNotFound
}

type memCatalog struct {
	types map[uuid.UUID]*catalog.ServiceType
}

func (m *memCatalog) GetActiveServiceType(_ context.Context, id uuid.UUID) (*catalog.ServiceType, error) {
	st, ok := m.types[id]
	if !ok {
		return nil, catalog.ErrServiceTypeNotFound
	}
	if !st.Active {
		return nil, catalog.ErrServiceTypeInactive
	}
	return st, nil
}

type recordingNotifier struct {
	calls  int
	tokens []string
	err    error
}

func (n *recordingNotifier) SendConfirmation(_ context.Context, _ *AppointmentDetail, token string) error {
	n.calls++
	n.tokens = append(n.tokens, token)
	return n.err
}

type memTokens struct {
	issued map[string]uuid.UUID
	seq    int
}

func (t *memTokens) Issue(_ context.Context, id uuid.UUID) (string, error) {
	if t.issued == nil {
		t.issued = map[string]uuid.UUID{}
	}
	t.seq++
	token := uuid.NewString()
	t.issued[token] = id
	return token, nil
}

func (t *memTokens) Redeem(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := t.issued[token]
	if !ok {
		return uuid.Nil, redisclient.ErrTokenNotFound
	}
	delete(t.issued, token)
	return id, nil
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	slots    *memSlots
	catalog  *memCatalog
	notifier *recordingNotifier
	tokens   *memTokens

	slot        *schedule.Slot
	serviceType *catalog.ServiceType
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	slot := &schedule.Slot{
		ID:          uuid.New(),
		DentistID:   uuid.New(),
		SpecialtyID: uuid.New(),
		StartsAt:    time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		Active:      true,
	}
	repo.slots[slot.ID] = slot

	slots := &memSlots{slots: map[uuid.UUID]*schedule.Slot{slot.ID: slot}}
	cat := &memCatalog{types: map[uuid.UUID]*catalog.ServiceType{
		repo.serviceType.ID: repo.serviceType,
	}}
	notifier := &recordingNotifier{}
	tokens := &memTokens{}

	svc := NewService(repo, slots, cat, notifier, tokens, nil, Caps{Guest: 3, Registered: 5}, nil)
	svc.now = func() time.Time { return now }

	return &fixture{
		svc: svc, repo: repo, slots: slots, catalog: cat,
		notifier: notifier, tokens: tokens,
		slot: slot, serviceType: repo.serviceType, now: now,
	}
}

func (f *fixture) addSlot(startsAt time.Time, length time.Duration) *schedule.Slot {
	s := &schedule.Slot{
		ID: uuid.New(), DentistID: uuid.New(), SpecialtyID: uuid.New(),
		StartsAt: startsAt, EndsAt: startsAt.Add(length), Active: true,
	}
	f.slots.slots[s.ID] = s
	f.repo.slots[s.ID] = s
	return s
}

func guestInput(f *fixture, email string) CreateBookingInput {
	return CreateBookingInput{
		SlotID:        f.slot.ID,
		ServiceTypeID: f.serviceType.ID,
		Guest:         &GuestDetails{Name: "Bob Vance", Email: email, Phone: "555-0101"},
	}
}

func TestCreateBookingGuestSucceeds(t *testing.T) {
	f := newFixture(t)

	det, err := f.svc.CreateBooking(context.Background(), guestInput(f, "bob@example.com"))
	require.NoError(t, err)
	require.Equal(t, StatusPending, det.Status)
	require.True(t, det.Patient.Guest)
	require.Equal(t, 1, f.notifier.calls)
	require.NotEmpty(t, f.notifier.tokens[0])
}

func TestCreateBookingSlotExclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, guestInput(f, "first@example.com"))
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, guestInput(f, "second@example.com"))
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestCreateBookingDurationGuard(t *testing.T) {
	f := newFixture(t)

	short := f.addSlot(time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), 30*time.Minute)

	in := guestInput(f, "bob@example.com")
	in.SlotID = short.ID
	_, err := f.svc.CreateBooking(context.Background(), in)
	require.ErrorIs(t, err, ErrServiceTooLong)

	// Exactly fitting duration passes.
	exact := f.addSlot(time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC), 60*time.Minute)
	in.SlotID = exact.ID
	_, err = f.svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
}

func TestCreateBookingRejectsPastAndInactiveSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := f.addSlot(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC), time.Hour)
	in := guestInput(f, "bob@example.com")
	in.SlotID = past.ID
	_, err := f.svc.CreateBooking(ctx, in)
	require.ErrorIs(t, err, ErrSlotUnavailable)

	inactive := f.addSlot(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), time.Hour)
	inactive.Active = false
	in.SlotID = inactive.ID
	_, err = f.svc.CreateBooking(ctx, in)
	require.ErrorIs(t, err, ErrSlotUnavailable)

	in.SlotID = uuid.New()
	_, err = f.svc.CreateBooking(ctx, in)
	require.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateBookingRejectsInactiveService(t *testing.T) {
	f := newFixture(t)

	dead := &catalog.ServiceType{ID: uuid.New(), DurationMinutes: 30, Active: false}
	f.catalog.types[dead.ID] = dead

	in := guestInput(f, "bob@example.com")
	in.ServiceTypeID = dead.ID
	_, err := f.svc.CreateBooking(context.Background(), in)
	require.ErrorIs(t, err, catalog.ErrServiceTypeInactive)
}

func TestCreateBookingGuestCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s := f.addSlot(time.Date(2025, 3, 10+i, 14, 0, 0, 0, time.UTC), time.Hour)
		in := guestInput(f, "busy@example.com")
		in.SlotID = s.ID
		_, err := f.svc.CreateBooking(ctx, in)
		require.NoError(t, err, "booking %d below the cap must succeed", i+1)
	}

	s := f.addSlot(time.Date(2025, 3, 20, 14, 0, 0, 0, time.UTC), time.Hour)
	in := guestInput(f, "busy@example.com")
	in.SlotID = s.ID
	_, err := f.svc.CreateBooking(ctx, in)
	require.ErrorIs(t, err, ErrPatientAtCapacity)
}

func TestCreateBookingRegisteredCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		s := f.addSlot(time.Date(2025, 3, 10+i, 15, 0, 0, 0, time.UTC), time.Hour)
		_, err := f.svc.CreateBooking(ctx, CreateBookingInput{
			SlotID: s.ID, ServiceTypeID: f.serviceType.ID, UserID: &userID,
		})
		require.NoError(t, err, "booking %d below the cap must succeed", i+1)
	}

	s := f.addSlot(time.Date(2025, 3, 21, 15, 0, 0, 0, time.UTC), time.Hour)
	_, err := f.svc.CreateBooking(ctx, CreateBookingInput{
		SlotID: s.ID, ServiceTypeID: f.serviceType.ID, UserID: &userID,
	})
	require.ErrorIs(t, err, ErrPatientAtCapacity)
}

func TestCreateBookingDoubleBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := f.svc.CreateBooking(ctx, CreateBookingInput{
		SlotID: f.slot.ID, ServiceTypeID: f.serviceType.ID, UserID: &userID,
	})
	require.NoError(t, err)

	// A different slot at the same start instant.
	parallel := f.addSlot(f.slot.StartsAt, time.Hour)
	_, err = f.svc.CreateBooking(ctx, CreateBookingInput{
		SlotID: parallel.ID, ServiceTypeID: f.serviceType.ID, UserID: &userID,
	})
	require.ErrorIs(t, err, ErrDoubleBooking)
}

func TestCreateBookingGuestIdempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, guestInput(f, "same@example.com"))
	require.NoError(t, err)

	other := f.addSlot(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), time.Hour)
	in := guestInput(f, "same@example.com")
	in.SlotID = other.ID
	in.Guest.Name = "Robert Vance" // latest submission wins
	_, err = f.svc.CreateBooking(ctx, in)
	require.NoError(t, err)

	require.Len(t, f.repo.guests, 1)
	require.Equal(t, "Robert Vance", f.repo.guests["same@example.com"].Name)
}

func TestCreateBookingNotificationFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp is down")

	det, err := f.svc.CreateBooking(context.Background(), guestInput(f, "bob@example.com"))
	require.NoError(t, err)
	require.Equal(t, StatusPending, det.Status)
	require.Equal(t, 1, f.notifier.calls)
}

func TestCreateBookingRequiresExactlyOnePatient(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	in := guestInput(f, "bob@example.com")
	in.UserID = &userID
	_, err := f.svc.CreateBooking(context.Background(), in)
	require.ErrorIs(t, err, ErrMissingPatient)

	_, err = f.svc.CreateBooking(context.Background(), CreateBookingInput{
		SlotID: f.slot.ID, ServiceTypeID: f.serviceType.ID,
	})
	require.ErrorIs(t, err, ErrMissingPatient)
}

func TestUpdateStatusFollowsGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	det, err := f.svc.CreateBooking(ctx, guestInput(f, "bob@example.com"))
	require.NoError(t, err)

	confirmed, err := f.svc.UpdateStatus(ctx, det.ID, StatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, confirmed.Status)

	completed, err := f.svc.UpdateStatus(ctx, det.ID, StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, completed.Status)

	_, err = f.svc.UpdateStatus(ctx, det.ID, StatusPending)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, det.ID, StatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusUnknownAppointment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), StatusConfirmed)
	require.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestConfirmByToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, guestInput(f, "bob@example.com"))
	require.NoError(t, err)
	require.Len(t, f.notifier.tokens, 1)
	token := f.notifier.tokens[0]

	confirmed, err := f.svc.ConfirmByToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, confirmed.Status)

	// Single use: the second redemption fails.
	_, err = f.svc.ConfirmByToken(ctx, token)
	require.ErrorIs(t, err, ErrConfirmTokenSpent)
}

func TestConfirmByTokenUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ConfirmByToken(context.Background(), "nope")
	require.ErrorIs(t, err, ErrConfirmTokenSpent)
}
