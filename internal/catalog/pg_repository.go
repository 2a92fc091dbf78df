package catalog

import (
	"context"
	"errors"

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

// Helpers

func scanSpecialty(row pgx.Row) (*Specialty, error) {
	var s Specialty

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanServiceType(row pgx.Row) (*ServiceType, error) {
	var st ServiceType

	err := row.Scan(
		&st.ID,
		&st.SpecialtyID,
		&st.Name,
		&st.DurationMinutes,
		&st.Active,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceTypeNotFound
		}
		return nil, err
	}

	return &st, nil
}

func scanDentist(row pgx.Row) (*Dentist, error) {
	var d Dentist

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.SpecialtyID,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDentistNotFound
		}
		return nil, err
	}

	return &d, nil
}

// Interface methods

func (r *PgRepository) GetSpecialtyByID(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM specialties
		WHERE id = $1
	`, id)
	return scanSpecialty(row)
}

func (r *PgRepository) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM specialties
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateSpecialty(ctx context.Context, name string) (*Specialty, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO specialties (id, name, active, created_at, updated_at)
		VALUES ($1, $2, TRUE, now(), now())
		RETURNING id, name, active, created_at, updated_at
	`, uuid.New(), name)
	return scanSpecialty(row)
}

// DeactivateSpecialty refuses while any active service type or active slot
// still belongs to the specialty.
func (r *PgRepository) DeactivateSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var inUse bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM service_types WHERE specialty_id = $1 AND active
		) OR EXISTS (
			SELECT 1 FROM availability_slots WHERE specialty_id = $1 AND active
		)
	`, id).Scan(&inUse)
	if err != nil {
		return nil, err
	}
	if inUse {
		err = ErrSpecialtyInUse
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE specialties
		SET active = FALSE,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, active, created_at, updated_at
	`, id)

	var s *Specialty
	s, err = scanSpecialty(row)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *PgRepository) GetServiceTypeByID(ctx context.Context, id uuid.UUID) (*ServiceType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, specialty_id, name, duration_minutes, active, created_at, updated_at
		FROM service_types
		WHERE id = $1
	`, id)
	return scanServiceType(row)
}

func (r *PgRepository) ListServiceTypes(ctx context.Context, specialtyID *uuid.UUID) ([]ServiceType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, specialty_id, name, duration_minutes, active, created_at, updated_at
		FROM service_types
		WHERE ($1::uuid IS NULL OR specialty_id = $1)
		ORDER BY name
	`, specialtyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ServiceType
	for rows.Next() {
		st, err := scanServiceType(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *st)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateServiceType(ctx context.Context, specialtyID uuid.UUID, name string, durationMinutes int) (*ServiceType, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO service_types (id, specialty_id, name, duration_minutes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, now(), now())
		RETURNING id, specialty_id, name, duration_minutes, active, created_at, updated_at
	`, uuid.New(), specialtyID, name, durationMinutes)
	return scanServiceType(row)
}

// DeactivateServiceType refuses while any pending/confirmed appointment
// references the service type.
func (r *PgRepository) DeactivateServiceType(ctx context.Context, id uuid.UUID) (*ServiceType, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var inUse bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE service_type_id = $1
			  AND status IN ('pending', 'confirmed')
		)
	`, id).Scan(&inUse)
	if err != nil {
		return nil, err
	}
	if inUse {
		err = ErrServiceTypeInUse
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE service_types
		SET active = FALSE,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, specialty_id, name, duration_minutes, active, created_at, updated_at
	`, id)

	var st *ServiceType
	st, err = scanServiceType(row)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return st, nil
}

func (r *PgRepository) GetDentistByID(ctx context.Context, id uuid.UUID) (*Dentist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty_id, active, created_at, updated_at
		FROM dentists
		WHERE id = $1
	`, id)
	return scanDentist(row)
}
