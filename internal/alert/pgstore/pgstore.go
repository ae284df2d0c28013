// Package pgstore provides a PostgreSQL implementation of alert.Store.
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
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/carewatch/internal/alert"
	"github.com/linnemanlabs/carewatch/internal/care"
)

var tracer = otel.Tracer("github.com/linnemanlabs/carewatch/internal/alert/pgstore")

//go:embed schema.sql
var schema string

// Store persists alerts in PostgreSQL. Lifecycle transitions are applied
// with a conditional UPDATE on the current status, so concurrent callers
// race on the row itself: exactly one wins, the rest observe the
// post-transition state.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply alerts schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const alertColumns = `id, patient_id, type, priority, status, title, message, metadata,
	acknowledged_by, acknowledged_at, acknowledgment_note,
	resolved_by, resolved_at, resolution_note, created_at, updated_at`

// Create inserts a new alert with status ACTIVE.
func (s *Store) Create(ctx context.Context, a *alert.Alert) error {
	ctx, span := s.span(ctx, "pgstore.Create", "INSERT")
	defer span.End()

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	a.Status = alert.StatusActive

	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (id, patient_id, type, priority, priority_rank, status, title, message, metadata, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.PatientID, string(a.Type), string(a.Priority), a.Priority.Rank(),
		string(a.Status), a.Title, a.Message, a.Metadata, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return s.fail(span, fmt.Errorf("insert alert: %w", err))
	}
	return nil
}

// Get retrieves an alert by ID.
func (s *Store) Get(ctx context.Context, id string) (*alert.Alert, error) {
	ctx, span := s.span(ctx, "pgstore.Get", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	a, err := scanAlert(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &care.NotFoundError{Entity: "alert", ID: id}
		}
		return nil, s.fail(span, err)
	}
	return a, nil
}

// Acknowledge moves ACTIVE -> ACKNOWLEDGED and stamps the ack fields.
func (s *Store) Acknowledge(ctx context.Context, id, workerID, note string, at time.Time) (*alert.Alert, error) {
	ctx, span := s.span(ctx, "pgstore.Acknowledge", "UPDATE")
	defer span.End()

	query := `UPDATE alerts
		SET status = $2, acknowledged_by = $3, acknowledged_at = $4, acknowledgment_note = $5, updated_at = $4
		WHERE id = $1 AND status = 'ACTIVE'
		RETURNING ` + alertColumns
	a, err := scanAlert(s.pool.QueryRow(ctx, query, id, string(alert.StatusAcknowledged), workerID, at, note))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionFailure(ctx, id, alert.StatusAcknowledged)
		}
		return nil, s.fail(span, err)
	}
	return a, nil
}

// Resolve moves ACTIVE or ACKNOWLEDGED -> RESOLVED. The ack fields, set or
// null, are left untouched.
func (s *Store) Resolve(ctx context.Context, id, workerID, note string, at time.Time) (*alert.Alert, error) {
	ctx, span := s.span(ctx, "pgstore.Resolve", "UPDATE")
	defer span.End()

	query := `UPDATE alerts
		SET status = $2, resolved_by = $3, resolved_at = $4, resolution_note = $5, updated_at = $4
		WHERE id = $1 AND status IN ('ACTIVE', 'ACKNOWLEDGED')
		RETURNING ` + alertColumns
	a, err := scanAlert(s.pool.QueryRow(ctx, query, id, string(alert.StatusResolved), workerID, at, note))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionFailure(ctx, id, alert.StatusResolved)
		}
		return nil, s.fail(span, err)
	}
	return a, nil
}

// Ignore moves ACTIVE -> IGNORED, recording the dismissal in the resolution
// fields.
func (s *Store) Ignore(ctx context.Context, id, workerID, note string, at time.Time) (*alert.Alert, error) {
	ctx, span := s.span(ctx, "pgstore.Ignore", "UPDATE")
	defer span.End()

	query := `UPDATE alerts
		SET status = $2, resolved_by = $3, resolved_at = $4, resolution_note = $5, updated_at = $4
		WHERE id = $1 AND status = 'ACTIVE'
		RETURNING ` + alertColumns
	a, err := scanAlert(s.pool.QueryRow(ctx, query, id, string(alert.StatusIgnored), workerID, at, note))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionFailure(ctx, id, alert.StatusIgnored)
		}
		return nil, s.fail(span, err)
	}
	return a, nil
}

// ListByPatient returns the patient's alerts, createdAt descending.
func (s *Store) ListByPatient(ctx context.Context, patientID string) ([]alert.Alert, error) {
	ctx, span := s.span(ctx, "pgstore.ListByPatient", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE patient_id = $1 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query patient alerts: %w", err))
	}
	defer rows.Close()

	out, err := collectAlerts(rows)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return out, nil
}

// ListActive pages ACTIVE alerts in triage order.
func (s *Store) ListActive(ctx context.Context, page, pageSize int) (*care.Page[alert.Alert], error) {
	ctx, span := s.span(ctx, "pgstore.ListActive", "SELECT")
	defer span.End()

	page, pageSize = care.ClampPaging(page, pageSize)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM alerts WHERE status = 'ACTIVE'`,
	).Scan(&total); err != nil {
		return nil, s.fail(span, fmt.Errorf("count active alerts: %w", err))
	}

	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE status = 'ACTIVE'
		ORDER BY priority_rank DESC, created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := s.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query active alerts: %w", err))
	}
	defer rows.Close()

	items, err := collectAlerts(rows)
	if err != nil {
		return nil, s.fail(span, err)
	}

	return &care.Page[alert.Alert]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// TopActive returns up to n ACTIVE alerts in triage order.
func (s *Store) TopActive(ctx context.Context, n int) ([]alert.Alert, error) {
	ctx, span := s.span(ctx, "pgstore.TopActive", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE status = 'ACTIVE'
		ORDER BY priority_rank DESC, created_at DESC
		LIMIT $1`
	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query top active alerts: %w", err))
	}
	defer rows.Close()

	out, err := collectAlerts(rows)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return out, nil
}

// CountByStatus counts alerts in the given status.
func (s *Store) CountByStatus(ctx context.Context, st alert.Status) (int, error) {
	ctx, span := s.span(ctx, "pgstore.CountByStatus", "SELECT")
	defer span.End()

	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM alerts WHERE status = $1`, string(st)).Scan(&n)
	if err != nil {
		return 0, s.fail(span, fmt.Errorf("count by status: %w", err))
	}
	return n, nil
}

// CountByPatientAndStatus counts a patient's alerts in the given status.
func (s *Store) CountByPatientAndStatus(ctx context.Context, patientID string, st alert.Status) (int, error) {
	ctx, span := s.span(ctx, "pgstore.CountByPatientAndStatus", "SELECT")
	defer span.End()

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM alerts WHERE patient_id = $1 AND status = $2`,
		patientID, string(st),
	).Scan(&n)
	if err != nil {
		return 0, s.fail(span, fmt.Errorf("count by patient and status: %w", err))
	}
	return n, nil
}

// CountActiveByPriority counts ACTIVE alerts at the given priority.
func (s *Store) CountActiveByPriority(ctx context.Context, p alert.Priority) (int, error) {
	ctx, span := s.span(ctx, "pgstore.CountActiveByPriority", "SELECT")
	defer span.End()

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM alerts WHERE status = 'ACTIVE' AND priority = $1`,
		string(p),
	).Scan(&n)
	if err != nil {
		return 0, s.fail(span, fmt.Errorf("count active by priority: %w", err))
	}
	return n, nil
}

// transitionFailure disambiguates a zero-row conditional UPDATE: either the
// alert is gone (NotFound) or it sits in a state the transition may not
// start from (InvalidTransition, carrying the observed state).
func (s *Store) transitionFailure(ctx context.Context, id string, target alert.Status) error {
	var current string
	err := s.pool.QueryRow(ctx, `SELECT status FROM alerts WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return &care.NotFoundError{Entity: "alert", ID: id}
	}
	if err != nil {
		return fmt.Errorf("read alert status: %w", err)
	}
	return &care.TransitionError{AlertID: id, From: current, To: string(target)}
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

func scanAlert(row pgx.Row) (*alert.Alert, error) {
	var (
		a                  alert.Alert
		typ, prio, status  string
		ackBy, resBy       *string
		ackAt, resAt       *time.Time
	)
	err := row.Scan(
		&a.ID, &a.PatientID, &typ, &prio, &status, &a.Title, &a.Message, &a.Metadata,
		&ackBy, &ackAt, &a.AcknowledgmentNote,
		&resBy, &resAt, &a.ResolutionNote, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Type = alert.Type(typ)
	a.Priority = alert.Priority(prio)
	a.Status = alert.Status(status)
	a.AcknowledgedBy, a.AcknowledgedAt = ackBy, ackAt
	a.ResolvedBy, a.ResolvedAt = resBy, resAt
	return &a, nil
}

func collectAlerts(rows pgx.Rows) ([]alert.Alert, error) {
	var out []alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}
