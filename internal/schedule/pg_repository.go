package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DentistID,
		&s.SpecialtyID,
		&s.StartsAt,
		&s.EndsAt,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, dentist_id, specialty_id, starts_at, ends_at, active, created_at, updated_at
		FROM availability_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) CreateSlot(ctx context.Context, slot *Slot) (*Slot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockDentist(ctx, tx, slot.DentistID); err != nil {
		return nil, err
	}

	var overlap bool
	overlap, err = hasOverlap(ctx, tx, slot, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if overlap {
		err = ErrSlotOverlap
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO availability_slots (id, dentist_id, specialty_id, starts_at, ends_at, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, now(), now())
		RETURNING id, dentist_id, specialty_id, starts_at, ends_at, active, created_at, updated_at
	`, uuid.New(), slot.DentistID, slot.SpecialtyID, slot.StartsAt, slot.EndsAt)

	var created *Slot
	created, err = scanSlot(row)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) UpdateSlot(ctx context.Context, slot *Slot) (*Slot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockDentist(ctx, tx, slot.DentistID); err != nil {
		return nil, err
	}

	// The slot itself is excluded: an unchanged interval must not conflict
	// with its own row.
	var overlap bool
	overlap, err = hasOverlap(ctx, tx, slot, slot.ID)
	if err != nil {
		return nil, err
	}
	if overlap {
		err = ErrSlotOverlap
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE availability_slots
		SET dentist_id = $2,
		    specialty_id = $3,
		    starts_at = $4,
		    ends_at = $5,
		    updated_at = now()
		WHERE id = $1
		  AND active
		RETURNING id, dentist_id, specialty_id, starts_at, ends_at, active, created_at, updated_at
	`, slot.ID, slot.DentistID, slot.SpecialtyID, slot.StartsAt, slot.EndsAt)

	var updated *Slot
	updated, err = scanSlot(row)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeactivateSlot refuses while a pending/confirmed appointment references the
// slot. The existence check and the flag write share a transaction so a
// booking committing in between cannot orphan itself.
func (r *PgRepository) DeactivateSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var live bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE slot_id = $1
			  AND status IN ('pending', 'confirmed')
		)
	`, id).Scan(&live)
	if err != nil {
		return nil, err
	}
	if live {
		err = ErrSlotHasAppointments
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE availability_slots
		SET active = FALSE,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, dentist_id, specialty_id, starts_at, ends_at, active, created_at, updated_at
	`, id)

	var slot *Slot
	slot, err = scanSlot(row)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return slot, nil
}

func (r *PgRepository) FindFutureSlots(ctx context.Context, now time.Time, filter Filter) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, dentist_id, specialty_id, starts_at, ends_at, active, created_at, updated_at
		FROM availability_slots
		WHERE active
		  AND starts_at > $1
		  AND ($2::uuid IS NULL OR dentist_id = $2)
		  AND ($3::uuid IS NULL OR specialty_id = $3)
		  AND ($4::timestamptz IS NULL OR starts_at <= $4)
		ORDER BY starts_at
	`, now, filter.DentistID, filter.SpecialtyID, filter.Until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

// lockDentist serializes slot writes per dentist for the overlap check.
func lockDentist(ctx context.Context, tx pgx.Tx, dentistID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT id FROM dentists WHERE id = $1 FOR UPDATE
	`, dentistID).Scan(&id)
	if err != nil {
		return fmt.Errorf("lock dentist %s: %w", dentistID, err)
	}
	return nil
}

func hasOverlap(ctx context.Context, tx pgx.Tx, slot *Slot, excludeID uuid.UUID) (bool, error) {
	var overlap bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM availability_slots
			WHERE dentist_id = $1
			  AND active
			  AND id <> $2
			  AND starts_at < $4
			  AND ends_at > $3
		)
	`, slot.DentistID, excludeID, slot.StartsAt, slot.EndsAt).Scan(&overlap)
	return overlap, err
}
