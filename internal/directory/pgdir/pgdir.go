// Package pgdir provides a PostgreSQL implementation of
// directory.Directory. It is strictly read-only at runtime; rows come from
// the patient-management system (or cmd/seed in dev). The deleted flag is
// filtered in every query here, so callers never see soft-deleted patients.
package pgdir

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/carewatch/internal/care"
	"github.com/linnemanlabs/carewatch/internal/directory"
)

var tracer = otel.Tracer("github.com/linnemanlabs/carewatch/internal/directory/pgdir")

//go:embed schema.sql
var schema string

// Directory reads patient and worker identity from PostgreSQL.
type Directory struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Directory.
func New(ctx context.Context, pool *pgxpool.Pool) (*Directory, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply directory schema: %w", err)
	}
	return &Directory{pool: pool}, nil
}

const patientColumns = `id, full_name, medical_record_id, status, room_number, admitted_at, updated_at`

// ResolvePatient looks up a non-deleted patient by id.
func (d *Directory) ResolvePatient(ctx context.Context, id string) (*directory.PatientRef, error) {
	ctx, span := d.span(ctx, "pgdir.ResolvePatient")
	defer span.End()

	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND NOT deleted`
	p, err := scanPatient(d.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &care.NotFoundError{Entity: "patient", ID: id}
		}
		return nil, err
	}
	return p, nil
}

// ResolveWorker looks up a healthcare worker by id.
func (d *Directory) ResolveWorker(ctx context.Context, id string) (*directory.WorkerRef, error) {
	ctx, span := d.span(ctx, "pgdir.ResolveWorker")
	defer span.End()

	var w directory.WorkerRef
	err := d.pool.QueryRow(ctx,
		`SELECT id, full_name FROM healthcare_workers WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &care.NotFoundError{Entity: "healthcare worker", ID: id}
		}
		return nil, fmt.Errorf("query worker: %w", err)
	}
	return &w, nil
}

// PatientsByIDs batch-resolves patients in one round trip.
func (d *Directory) PatientsByIDs(ctx context.Context, ids []string) (map[string]*directory.PatientRef, error) {
	ctx, span := d.span(ctx, "pgdir.PatientsByIDs")
	defer span.End()

	out := make(map[string]*directory.PatientRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = ANY($1) AND NOT deleted`
	rows, err := d.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query patients batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return out, nil
}

// RecentPatients returns up to limit patients, most recently updated first.
func (d *Directory) RecentPatients(ctx context.Context, limit int) ([]directory.PatientRef, error) {
	ctx, span := d.span(ctx, "pgdir.RecentPatients")
	defer span.End()

	query := `SELECT ` + patientColumns + ` FROM patients
		WHERE NOT deleted ORDER BY updated_at DESC LIMIT $1`
	rows, err := d.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent patients: %w", err)
	}
	defer rows.Close()

	var out []directory.PatientRef
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return out, nil
}

// CountPatients counts non-deleted patients.
func (d *Directory) CountPatients(ctx context.Context) (int, error) {
	ctx, span := d.span(ctx, "pgdir.CountPatients")
	defer span.End()

	var n int
	err := d.pool.QueryRow(ctx, `SELECT count(*) FROM patients WHERE NOT deleted`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

// CountPatientsByStatus counts non-deleted patients in the given status.
func (d *Directory) CountPatientsByStatus(ctx context.Context, st directory.PatientStatus) (int, error) {
	ctx, span := d.span(ctx, "pgdir.CountPatientsByStatus")
	defer span.End()

	var n int
	err := d.pool.QueryRow(ctx,
		`SELECT count(*) FROM patients WHERE status = $1 AND NOT deleted`, string(st),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count patients by status: %w", err)
	}
	return n, nil
}

// CountAdmittedSince counts non-deleted patients admitted at or after t.
func (d *Directory) CountAdmittedSince(ctx context.Context, t time.Time) (int, error) {
	ctx, span := d.span(ctx, "pgdir.CountAdmittedSince")
	defer span.End()

	var n int
	err := d.pool.QueryRow(ctx,
		`SELECT count(*) FROM patients WHERE admitted_at >= $1 AND NOT deleted`, t,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admissions: %w", err)
	}
	return n, nil
}

func (d *Directory) span(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
}

func scanPatient(row pgx.Row) (*directory.PatientRef, error) {
	var (
		p      directory.PatientRef
		status string
	)
	err := row.Scan(&p.ID, &p.Name, &p.MedicalRecordID, &status, &p.RoomNumber, &p.AdmittedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = directory.PatientStatus(status)
	return &p, nil
}
