// Package pgstore provides a PostgreSQL implementation of assignment.Store.
// The active-pair and single-active-primary invariants are partial unique
// indexes, so racing Assign calls lose with a unique violation rather than
// producing two active rows.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/carewatch/internal/assignment"
	"github.com/linnemanlabs/carewatch/internal/care"
)

var tracer = otel.Tracer("github.com/linnemanlabs/carewatch/internal/assignment/pgstore")

//go:embed schema.sql
var schema string

const (
	pgUniqueViolation = "23505"

	constraintActivePair    = "uniq_assignments_active_pair"
	constraintActivePrimary = "uniq_assignments_active_primary"
)

// Store persists assignments in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply assignments schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const assignmentColumns = `id, healthcare_worker_id, patient_id, assigned_at, unassigned_at,
	active, is_primary, notes, created_at`

// Assign inserts an active assignment. Unique-index violations map onto the
// Conflict kind, naming the violated rule.
func (s *Store) Assign(ctx context.Context, a *assignment.Assignment) error {
	ctx, span := s.span(ctx, "pgstore.Assign", "INSERT")
	defer span.End()

	now := time.Now().UTC()
	if a.AssignedAt.IsZero() {
		a.AssignedAt = now
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.AssignedAt
	}
	a.Active = true

	_, err := s.pool.Exec(ctx,
		`INSERT INTO patient_assignments (id, healthcare_worker_id, patient_id, assigned_at, active, is_primary, notes, created_at)
		 VALUES ($1,$2,$3,$4,TRUE,$5,$6,$7)`,
		a.ID, a.WorkerID, a.PatientID, a.AssignedAt, a.Primary, a.Notes, a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case constraintActivePair:
				return &care.ConflictError{
					Entity: "assignment",
					Detail: "patient " + a.PatientID + " already assigned to worker " + a.WorkerID,
				}
			case constraintActivePrimary:
				return &care.ConflictError{
					Entity: "assignment",
					Detail: "patient " + a.PatientID + " already has a primary caregiver",
				}
			}
		}
		return s.fail(span, fmt.Errorf("insert assignment: %w", err))
	}
	return nil
}

// Unassign deactivates the pair's active assignment; the conditional UPDATE
// makes a repeated call observe zero rows and fail NotFound.
func (s *Store) Unassign(ctx context.Context, workerID, patientID string) error {
	ctx, span := s.span(ctx, "pgstore.Unassign", "UPDATE")
	defer span.End()

	tag, err := s.pool.Exec(ctx,
		`UPDATE patient_assignments
		 SET active = FALSE, unassigned_at = $3
		 WHERE healthcare_worker_id = $1 AND patient_id = $2 AND active`,
		workerID, patientID, time.Now().UTC(),
	)
	if err != nil {
		return s.fail(span, fmt.Errorf("deactivate assignment: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return &care.NotFoundError{Entity: "assignment", ID: workerID + "/" + patientID}
	}
	return nil
}

// ActiveForWorker returns the worker's active assignments.
func (s *Store) ActiveForWorker(ctx context.Context, workerID string) ([]assignment.Assignment, error) {
	ctx, span := s.span(ctx, "pgstore.ActiveForWorker", "SELECT")
	defer span.End()

	query := `SELECT ` + assignmentColumns + ` FROM patient_assignments
		WHERE healthcare_worker_id = $1 AND active ORDER BY assigned_at DESC`
	rows, err := s.pool.Query(ctx, query, workerID)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query worker assignments: %w", err))
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ActiveForPatient returns the patient's active assignments.
func (s *Store) ActiveForPatient(ctx context.Context, patientID string) ([]assignment.Assignment, error) {
	ctx, span := s.span(ctx, "pgstore.ActiveForPatient", "SELECT")
	defer span.End()

	query := `SELECT ` + assignmentColumns + ` FROM patient_assignments
		WHERE patient_id = $1 AND active ORDER BY assigned_at DESC`
	rows, err := s.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query patient assignments: %w", err))
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// IsAssigned reports whether an active assignment exists for the pair.
func (s *Store) IsAssigned(ctx context.Context, workerID, patientID string) (bool, error) {
	ctx, span := s.span(ctx, "pgstore.IsAssigned", "SELECT")
	defer span.End()

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM patient_assignments
			WHERE healthcare_worker_id = $1 AND patient_id = $2 AND active
		)`, workerID, patientID,
	).Scan(&exists)
	if err != nil {
		return false, s.fail(span, fmt.Errorf("check assignment: %w", err))
	}
	return exists, nil
}

// CountActiveForWorker counts the worker's active assignments.
func (s *Store) CountActiveForWorker(ctx context.Context, workerID string) (int, error) {
	ctx, span := s.span(ctx, "pgstore.CountActiveForWorker", "SELECT")
	defer span.End()

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM patient_assignments WHERE healthcare_worker_id = $1 AND active`,
		workerID,
	).Scan(&n)
	if err != nil {
		return 0, s.fail(span, fmt.Errorf("count worker assignments: %w", err))
	}
	return n, nil
}

func (s *Store) span(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func (s *Store) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func collectAssignments(rows pgx.Rows) ([]assignment.Assignment, error) {
	var out []assignment.Assignment
	for rows.Next() {
		var a assignment.Assignment
		if err := rows.Scan(
			&a.ID, &a.WorkerID, &a.PatientID, &a.AssignedAt, &a.UnassignedAt,
			&a.Active, &a.Primary, &a.Notes, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return out, nil
}
