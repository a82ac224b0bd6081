package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medicare-gh/clinic-scheduling/internal/db"
	"github.com/medicare-gh/clinic-scheduling/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	clinicians, err := seedClinicians(context.Background(), pool, 40)
	if err != nil {
		log.Fatalf("seed clinicians: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedTemplates(context.Background(), pool, clinicians); err != nil {
		log.Fatalf("seed templates: %v", err)
	}
	if err := seedHolidays(context.Background(), pool); err != nil {
		log.Fatalf("seed holidays: %v", err)
	}

	log.Println("seed complete")
}

func seedClinicians(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clinicians", count)

	specialties := []string{
		"General Practice",
		"Pediatrics",
		"Obstetrics",
		"Cardiology",
		"Dermatology",
		"Dentistry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		phone := ghanaPhone()

		_, err := tx.Exec(ctx, `
			INSERT INTO clinicians (id, name, phone, specialty, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, now(), now())
		`, id, name, phone, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("clinicians seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

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
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			phone := ghanaPhone()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, phone, email, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, id, name, phone, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

// seedTemplates gives every clinician a Monday-to-Friday 08:00-17:00 week
// with the default capacity split.
func seedTemplates(ctx context.Context, pool *pgxpool.Pool, clinicians []uuid.UUID) error {
	log.Printf("seeding weekly templates for %d clinicians", len(clinicians))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	alloc := schedule.DefaultAllocation
	for _, clinicianID := range clinicians {
		for day := 1; day <= 5; day++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO weekly_templates (
					id, clinician_id, day_of_week, start_time, end_time,
					slot_minutes, appointment_percent, walk_in_percent,
					emergency_percent, is_active, created_at, updated_at
				) VALUES ($1, $2, $3, '08:00', '17:00', $4, $5, $6, $7, TRUE, now(), now())
			`, uuid.New(), clinicianID, day, schedule.DefaultSlotMinutes,
				alloc.AppointmentPercent, alloc.WalkInPercent, alloc.EmergencyPercent)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("weekly templates seeded")
	return nil
}

func seedHolidays(ctx context.Context, pool *pgxpool.Pool) error {
	year := time.Now().Year()
	holidays := schedule.BuiltinHolidays(year)
	log.Printf("seeding %d holidays for %d", len(holidays), year)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, h := range holidays {
		_, err := tx.Exec(ctx, `
			INSERT INTO holidays (id, name, date, is_recurring)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name, date) DO NOTHING
		`, uuid.New(), h.Name, h.Date, h.IsRecurring)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("holidays seeded")
	return nil
}

func ghanaPhone() string {
	prefixes := []string{"024", "054", "055", "020", "050", "027"}
	p := prefixes[gofakeit.Number(0, len(prefixes)-1)]
	return fmt.Sprintf("%s%07d", p, gofakeit.Number(0, 9999999))
}
