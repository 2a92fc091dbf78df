package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brightsmile/clinic-scheduling/internal/catalog"
	"github.com/brightsmile/clinic-scheduling/internal/schedule"
)

// liveSlotIndex is the partial unique index that enforces at most one
// pending/confirmed appointment per slot. A violation there is the losing
// side of a booking race, not an internal failure.
const liveSlotIndex = "appointments_live_slot_idx"

// DB is the subset of pgxpool.Pool the repository uses; pgxmock implements
// it for tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var userID, guestID *uuid.UUID

	err := row.Scan(
		&a.ID,
		&userID,
		&guestID,
		&a.SlotID,
		&a.ServiceTypeID,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Patient = PatientRef{UserID: userID, GuestPatientID: guestID}
	return &a, nil
}

func scanGuest(row pgx.Row) (*GuestPatient, error) {
	var g GuestPatient
	var phone *string

	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Email,
		&phone,
		&g.Active,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}

	if phone != nil {
		g.Phone = *phone
	}
	return &g, nil
}

const appointmentColumns = `id, user_id, guest_patient_id, slot_id, service_type_id, status, notes, created_at, updated_at`

// CreateAppointment books a slot as one atomic unit: resolve the guest
// identity, re-check slot exclusivity, double booking and capacity against
// the transaction's own reads, then insert at pending. Any error rolls the
// whole unit back.
func (r *PgRepository) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*Appointment, *GuestPatient, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var guest *GuestPatient
	ref := PatientRef{UserID: in.UserID}
	if in.Guest != nil {
		guest, err = upsertGuest(ctx, tx, *in.Guest)
		if err != nil {
			return nil, nil, err
		}
		ref = PatientRef{GuestPatientID: &guest.ID}
	}

	// Pre-check for the friendly error; the partial unique index still
	// backstops the race below.
	var slotTaken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE slot_id = $1
			  AND status IN ('pending', 'confirmed')
		)
	`, in.SlotID).Scan(&slotTaken)
	if err != nil {
		return nil, nil, err
	}
	if slotTaken {
		err = ErrSlotTaken
		return nil, nil, err
	}

	var doubleBooked bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments a
			JOIN availability_slots s ON s.id = a.slot_id
			WHERE (a.user_id = $1 OR a.guest_patient_id = $2)
			  AND a.status IN ('pending', 'confirmed')
			  AND s.starts_at = $3
		)
	`, ref.UserID, ref.GuestPatientID, in.SlotStartsAt).Scan(&doubleBooked)
	if err != nil {
		return nil, nil, err
	}
	if doubleBooked {
		err = ErrDoubleBooking
		return nil, nil, err
	}

	var liveCount int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE (user_id = $1 OR guest_patient_id = $2)
		  AND status IN ('pending', 'confirmed')
	`, ref.UserID, ref.GuestPatientID).Scan(&liveCount)
	if err != nil {
		return nil, nil, err
	}
	if liveCount >= in.Cap {
		err = ErrPatientAtCapacity
		return nil, nil, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, guest_patient_id, slot_id, service_type_id, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, now(), now())
		RETURNING `+appointmentColumns+`
	`, uuid.New(), ref.UserID, ref.GuestPatientID, in.SlotID, in.ServiceTypeID, in.Notes)

	var appt *Appointment
	appt, err = scanAppointment(row)
	if err != nil {
		err = remapUniqueViolation(err)
		return nil, nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		err = remapUniqueViolation(err)
		return nil, nil, err
	}

	return appt, guest, nil
}

// upsertGuest unifies guest identities by email: create on first contact,
// refresh name/phone and reactivate on return visits. The unique index on
// email resolves concurrent first bookings to a single row.
func upsertGuest(ctx context.Context, tx pgx.Tx, details GuestDetails) (*GuestPatient, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO guest_patients (id, name, email, phone, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, now(), now())
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
		    phone = EXCLUDED.phone,
		    active = TRUE,
		    updated_at = now()
		RETURNING id, name, email, phone, active, created_at, updated_at
	`, uuid.New(), details.Name, details.Email, details.Phone)
	return scanGuest(row)
}

func remapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == liveSlotIndex {
		return ErrSlotTaken
	}
	return err
}

func (r *PgRepository) ResolveGuest(ctx context.Context, details GuestDetails) (*GuestPatient, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var guest *GuestPatient
	guest, err = upsertGuest(ctx, tx, details)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return guest, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)
	return scanAppointment(row)
}

const detailQuery = `
	SELECT a.id, a.user_id, a.guest_patient_id, a.slot_id, a.service_type_id, a.status, a.notes, a.created_at, a.updated_at,
	       s.id, s.dentist_id, s.specialty_id, s.starts_at, s.ends_at, s.active, s.created_at, s.updated_at,
	       st.id, st.specialty_id, st.name, st.duration_minutes, st.active, st.created_at, st.updated_at,
	       d.name,
	       COALESCE(u.id, g.id), COALESCE(u.name, g.name), COALESCE(u.email, g.email), COALESCE(u.phone, g.phone, '')
	FROM appointments a
	JOIN availability_slots s ON s.id = a.slot_id
	JOIN service_types st ON st.id = a.service_type_id
	JOIN dentists d ON d.id = s.dentist_id
	LEFT JOIN users u ON u.id = a.user_id
	LEFT JOIN guest_patients g ON g.id = a.guest_patient_id
`

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var det AppointmentDetail
	var slot schedule.Slot
	var st catalog.ServiceType
	var userID, guestID *uuid.UUID

	err := row.Scan(
		&det.ID, &userID, &guestID, &det.SlotID, &det.ServiceTypeID, &det.Status, &det.Notes, &det.CreatedAt, &det.UpdatedAt,
		&slot.ID, &slot.DentistID, &slot.SpecialtyID, &slot.StartsAt, &slot.EndsAt, &slot.Active, &slot.CreatedAt, &slot.UpdatedAt,
		&st.ID, &st.SpecialtyID, &st.Name, &st.DurationMinutes, &st.Active, &st.CreatedAt, &st.UpdatedAt,
		&det.DentistName,
		&det.Patient.ID, &det.Patient.Name, &det.Patient.Email, &det.Patient.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	det.Patient.Guest = guestID != nil
	det.Appointment.Patient = PatientRef{UserID: userID, GuestPatientID: guestID}
	det.Slot = &slot
	det.ServiceType = &st
	return &det, nil
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.db.QueryRow(ctx, detailQuery+` WHERE a.id = $1`, id)
	return scanDetail(row)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, ref PatientRef, limit, offset int) ([]AppointmentDetail, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("patient reference must name exactly one identity")
	}

	rows, err := r.db.Query(ctx, detailQuery+`
		WHERE (a.user_id = $1 OR a.guest_patient_id = $2)
		ORDER BY s.starts_at DESC
		LIMIT $3 OFFSET $4
	`, ref.UserID, ref.GuestPatientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		det, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *det)
	}

	return result, rows.Err()
}
