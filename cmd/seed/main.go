package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightsmile/clinic-scheduling/internal/db"
)

var specialtyServices = map[string][]struct {
	Name     string
	Duration int
}{
	"General Dentistry": {
		{"Checkup", 30},
		{"Cleaning", 60},
		{"Filling", 45},
	},
	"Orthodontics": {
		{"Braces Consultation", 30},
		{"Braces Adjustment", 45},
	},
	"Endodontics": {
		{"Root Canal", 90},
		{"Root Canal Follow-up", 30},
	},
	"Periodontics": {
		{"Deep Cleaning", 60},
		{"Gum Assessment", 30},
	},
	"Oral Surgery": {
		{"Extraction", 60},
		{"Wisdom Tooth Removal", 90},
	},
	"Pediatric Dentistry": {
		{"Child Checkup", 30},
		{"Fluoride Treatment", 30},
	},
	"Prosthodontics": {
		{"Crown Fitting", 60},
		{"Denture Consultation", 45},
	},
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	seedCtx := context.Background()

	specialtyIDs, err := seedCatalog(seedCtx, pool)
	if err != nil {
		log.Fatalf("seed catalog: %v", err)
	}
	dentistIDs, err := seedDentists(seedCtx, pool, specialtyIDs, 25)
	if err != nil {
		log.Fatalf("seed dentists: %v", err)
	}
	if err := seedUsers(seedCtx, pool, 2000); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	if err := seedSlots(seedCtx, pool, dentistIDs, 14); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

// seedCatalog inserts specialties and their service types, returning
// specialty IDs keyed by name.
func seedCatalog(ctx context.Context, pool *pgxpool.Pool) (map[string]uuid.UUID, error) {
	log.Printf("seeding %d specialties", len(specialtyServices))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make(map[string]uuid.UUID, len(specialtyServices))
	for name, services := range specialtyServices {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO specialties (id, name, active, created_at, updated_at)
			VALUES ($1, $2, TRUE, now(), now())
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids[name] = id

		for _, svc := range services {
			_, err := tx.Exec(ctx, `
				INSERT INTO service_types (id, specialty_id, name, duration_minutes, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, TRUE, now(), now())
			`, uuid.New(), id, svc.Name, svc.Duration)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("catalog seeded")
	return ids, nil
}

type dentistRef struct {
	ID          uuid.UUID
	SpecialtyID uuid.UUID
}

func seedDentists(ctx context.Context, pool *pgxpool.Pool, specialties map[string]uuid.UUID, count int) ([]dentistRef, error) {
	log.Printf("seeding %d dentists", count)

	names := make([]string, 0, len(specialties))
	for name := range specialties {
		names = append(names, name)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	dentists := make([]dentistRef, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		specialtyID := specialties[names[gofakeit.Number(0, len(names)-1)]]

		_, err := tx.Exec(ctx, `
			INSERT INTO dentists (id, name, specialty_id, active, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, now(), now())
		`, id, "Dr. "+gofakeit.Name(), specialtyID)
		if err != nil {
			return nil, err
		}
		dentists = append(dentists, dentistRef{ID: id, SpecialtyID: specialtyID})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("dentists seeded")
	return dentists, nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d users", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, name, email, phone, role, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 'patient', TRUE, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email(), gofakeit.Phone())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("users seeded: %d/%d", end, count)
	}

	log.Println("users seeded")
	return nil
}

// seedSlots publishes back-to-back future slots per dentist, so none of them
// can trip the overlap constraint.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, dentists []dentistRef, days int) error {
	log.Printf("seeding slots for %d dentists over %d days", len(dentists), days)

	firstDay := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	total := 0

	for _, dentist := range dentists {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for day := 0; day < days; day++ {
			date := firstDay.Add(time.Duration(day) * 24 * time.Hour)
			cursor := date.Add(9 * time.Hour)
			dayEnd := date.Add(17 * time.Hour)

			for cursor.Before(dayEnd) {
				length := time.Duration(gofakeit.Number(1, 3)) * 30 * time.Minute
				endsAt := cursor.Add(length)
				if endsAt.After(dayEnd) {
					break
				}

				// Leave the occasional gap so listings look organic.
				if gofakeit.Number(0, 4) > 0 {
					_, err := tx.Exec(ctx, `
						INSERT INTO availability_slots (id, dentist_id, specialty_id, starts_at, ends_at, active, created_at, updated_at)
						VALUES ($1, $2, $3, $4, $5, TRUE, now(), now())
					`, uuid.New(), dentist.ID, dentist.SpecialtyID, cursor, endsAt)
					if err != nil {
						_ = tx.Rollback(ctx)
						return err
					}
					total++
				}

				cursor = endsAt
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Printf("slots seeded: %d", total)
	return nil
}
