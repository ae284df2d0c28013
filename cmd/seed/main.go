// Seed fills a carewatch database with realistic demo data: patients,
// healthcare workers, care-team assignments, and alerts in every lifecycle
// state. Intended for local development and load testing, never production.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/carewatch/internal/postgres"
)

const (
	patientCount = 200
	workerCount  = 25
	alertCount   = 600
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	// .env is optional, env vars win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	dsn := os.Getenv("CAREWATCH_DATABASE_URL")
	if dsn == "" {
		log.Fatal("CAREWATCH_DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	patients, err := seedPatients(context.Background(), pool, patientCount)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	workers, err := seedWorkers(context.Background(), pool, workerCount)
	if err != nil {
		log.Fatalf("seed workers: %v", err)
	}
	if err := seedAssignments(context.Background(), pool, patients, workers); err != nil {
		log.Fatalf("seed assignments: %v", err)
	}
	if err := seedAlerts(context.Background(), pool, patients, workers, alertCount); err != nil {
		log.Fatalf("seed alerts: %v", err)
	}

	log.Println("seed complete")
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]string, error) {
	log.Printf("seeding %d patients", count)

	statuses := []string{"CRITICAL", "TO_MONITOR", "STABLE", "STABLE", "STABLE"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New().String()
		status := statuses[gofakeit.Number(0, len(statuses)-1)]
		admitted := gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now())
		room := gofakeit.Numerify("###")

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, full_name, medical_record_id, status, room_number, admitted_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`, id, gofakeit.Name(), gofakeit.Numerify("MRN-########"), status, room, admitted)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("patients seeded")
	return ids, nil
}

func seedWorkers(ctx context.Context, pool *pgxpool.Pool, count int) ([]string, error) {
	log.Printf("seeding %d healthcare workers", count)

	specialties := []string{
		"Cardiology",
		"Internal Medicine",
		"Geriatrics",
		"Psychiatry",
		"Critical Care",
		"General Nursing",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New().String()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO healthcare_workers (id, full_name, specialty, created_at)
			VALUES ($1, $2, $3, now())
		`, id, gofakeit.Name(), spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("workers seeded")
	return ids, nil
}

// seedAssignments gives every patient one primary caregiver plus up to two
// secondary team members. Uniqueness rules in the schema hold by
// construction here.
func seedAssignments(ctx context.Context, pool *pgxpool.Pool, patients, workers []string) error {
	log.Printf("seeding assignments for %d patients", len(patients))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, patientID := range patients {
		team := pickWorkers(workers, 1+gofakeit.Number(0, 2))
		for i, workerID := range team {
			assignedAt := gofakeit.DateRange(time.Now().AddDate(0, -1, 0), time.Now())
			_, err := tx.Exec(ctx, `
				INSERT INTO patient_assignments (id, healthcare_worker_id, patient_id, assigned_at, active, is_primary, notes, created_at)
				VALUES ($1, $2, $3, $4, TRUE, $5, $6, now())
			`, ulid.Make().String(), workerID, patientID, assignedAt, i == 0, gofakeit.Sentence(6))
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("assignments seeded")
	return nil
}

func seedAlerts(ctx context.Context, pool *pgxpool.Pool, patients, workers []string, count int) error {
	log.Printf("seeding %d alerts", count)

	types := []string{"HEART_RATE", "MOOD", "SLEEP", "CORRELATION", "MEDICATION", "EMERGENCY"}
	priorities := []string{"CRITICAL", "HIGH", "MEDIUM", "MEDIUM", "LOW", "LOW"}
	ranks := map[string]int{"CRITICAL": 4, "HIGH": 3, "MEDIUM": 2, "LOW": 1}

	const batchSize = 200

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
			patientID := patients[gofakeit.Number(0, len(patients)-1)]
			typ := types[gofakeit.Number(0, len(types)-1)]
			prio := priorities[gofakeit.Number(0, len(priorities)-1)]
			created := gofakeit.DateRange(time.Now().AddDate(0, 0, -14), time.Now())

			// roughly half the alerts are still open
			status := "ACTIVE"
			var ackBy, resBy any
			var ackAt, resAt any
			ackNote, resNote := "", ""
			switch gofakeit.Number(0, 3) {
			case 1:
				status = "ACKNOWLEDGED"
				ackBy = workers[gofakeit.Number(0, len(workers)-1)]
				ackAt = created.Add(time.Duration(gofakeit.Number(5, 120)) * time.Minute)
				ackNote = gofakeit.Sentence(5)
			case 2:
				status = "RESOLVED"
				resBy = workers[gofakeit.Number(0, len(workers)-1)]
				resAt = created.Add(time.Duration(gofakeit.Number(10, 360)) * time.Minute)
				resNote = gofakeit.Sentence(8)
			case 3:
				if gofakeit.Bool() {
					status = "IGNORED"
					resBy = workers[gofakeit.Number(0, len(workers)-1)]
					resAt = created.Add(time.Duration(gofakeit.Number(10, 360)) * time.Minute)
					resNote = gofakeit.Sentence(4)
				}
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO alerts (id, patient_id, type, priority, priority_rank, status, title, message,
					acknowledged_by, acknowledged_at, acknowledgment_note,
					resolved_by, resolved_at, resolution_note,
					created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
			`, ulid.Make().String(), patientID, typ, prio, ranks[prio], status,
				gofakeit.Sentence(4), gofakeit.Sentence(12),
				ackBy, ackAt, ackNote, resBy, resAt, resNote, created)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("alerts seeded: %d/%d", end, count)
	}

	log.Println("alerts seeded")
	return nil
}

// pickWorkers draws n distinct workers.
func pickWorkers(workers []string, n int) []string {
	if n > len(workers) {
		n = len(workers)
	}
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		w := workers[gofakeit.Number(0, len(workers)-1)]
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
