// Package lifecycle orchestrates writes across the alert store and the
// assignment registry. It is the only component that touches both. The
// acting worker is always an explicit parameter, never ambient state.
package lifecycle

import (
	"context"
	"encoding/json"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/carewatch/internal/alert"
	"github.com/linnemanlabs/carewatch/internal/assignment"
	"github.com/linnemanlabs/carewatch/internal/care"
	"github.com/linnemanlabs/carewatch/internal/directory"
)

// RaiseAlertParams is what the external detector supplies when raising an
// alert. Type and Priority arrive as raw strings and are validated here at
// the boundary.
type RaiseAlertParams struct {
	PatientID string
	Type      string
	Priority  string
	Title     string
	Message   string
	Metadata  json.RawMessage
}

// Coordinator enforces cross-cutting rules and delegates each write to the
// component owning the record. Errors from below propagate unchanged.
type Coordinator struct {
	alerts      alert.Store
	assignments assignment.Store
	dir         directory.Directory
	metrics     *Metrics
	logger      log.Logger
}

// NewCoordinator creates a coordinator. metrics may be nil.
func NewCoordinator(alerts alert.Store, assignments assignment.Store, dir directory.Directory, m *Metrics, logger log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Nop()
	}
	return &Coordinator{
		alerts:      alerts,
		assignments: assignments,
		dir:         dir,
		metrics:     m,
		logger:      logger,
	}
}

// RaiseAlert validates and persists a new ACTIVE alert. This is the sole
// creation entry point; detectors do not reach the store directly.
func (c *Coordinator) RaiseAlert(ctx context.Context, p RaiseAlertParams) (*alert.Alert, error) {
	if p.PatientID == "" {
		return nil, &care.ValidationError{Field: "patient_id", Reason: "required"}
	}
	if p.Title == "" {
		return nil, &care.ValidationError{Field: "title", Reason: "required"}
	}
	if p.Message == "" {
		return nil, &care.ValidationError{Field: "message", Reason: "required"}
	}
	typ, err := alert.ParseType(p.Type)
	if err != nil {
		return nil, err
	}
	prio, err := alert.ParsePriority(p.Priority)
	if err != nil {
		return nil, err
	}

	if _, err := c.dir.ResolvePatient(ctx, p.PatientID); err != nil {
		return nil, err
	}

	a := &alert.Alert{
		ID:        ulid.Make().String(),
		PatientID: p.PatientID,
		Type:      typ,
		Priority:  prio,
		Title:     p.Title,
		Message:   p.Message,
		Metadata:  p.Metadata,
	}
	if err := c.alerts.Create(ctx, a); err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.AlertsRaisedTotal.WithLabelValues(string(typ), string(prio)).Inc()
	}
	c.logger.Info(ctx, "alert raised",
		"alert_id", a.ID,
		"patient_id", a.PatientID,
		"type", a.Type,
		"priority", a.Priority,
	)
	return a, nil
}

// AssignPatient verifies both identities exist, then records the
// assignment. Conflict surfaces unchanged from the registry.
func (c *Coordinator) AssignPatient(ctx context.Context, patientID, workerID string, primary bool, notes string) (*assignment.Assignment, error) {
	if patientID == "" {
		return nil, &care.ValidationError{Field: "patient_id", Reason: "required"}
	}
	if workerID == "" {
		return nil, &care.ValidationError{Field: "healthcare_worker_id", Reason: "required"}
	}

	if _, err := c.dir.ResolvePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if _, err := c.dir.ResolveWorker(ctx, workerID); err != nil {
		return nil, err
	}

	a := &assignment.Assignment{
		ID:        ulid.Make().String(),
		WorkerID:  workerID,
		PatientID: patientID,
		Primary:   primary,
		Notes:     notes,
	}
	if err := c.assignments.Assign(ctx, a); err != nil {
		c.observeAssignment("assign", err)
		return nil, err
	}
	c.observeAssignment("assign", nil)

	c.logger.Info(ctx, "patient assigned",
		"assignment_id", a.ID,
		"patient_id", patientID,
		"worker_id", workerID,
		"primary", primary,
	)
	return a, nil
}

// UnassignPatient deactivates the pair's active assignment.
func (c *Coordinator) UnassignPatient(ctx context.Context, patientID, workerID string) error {
	if patientID == "" {
		return &care.ValidationError{Field: "patient_id", Reason: "required"}
	}
	if workerID == "" {
		return &care.ValidationError{Field: "healthcare_worker_id", Reason: "required"}
	}

	if err := c.assignments.Unassign(ctx, workerID, patientID); err != nil {
		c.observeAssignment("unassign", err)
		return err
	}
	c.observeAssignment("unassign", nil)

	c.logger.Info(ctx, "patient unassigned", "patient_id", patientID, "worker_id", workerID)
	return nil
}

// AcknowledgeAlert marks the alert seen by the worker. Any known worker may
// acknowledge regardless of assignment.
func (c *Coordinator) AcknowledgeAlert(ctx context.Context, alertID, workerID, note string) (*alert.Alert, error) {
	if err := c.checkActor(ctx, alertID, workerID); err != nil {
		return nil, err
	}

	a, err := c.alerts.Acknowledge(ctx, alertID, workerID, note, time.Now().UTC())
	c.observeTransition("acknowledge", err)
	if err != nil {
		return nil, err
	}

	c.logger.Info(ctx, "alert acknowledged", "alert_id", alertID, "worker_id", workerID)
	return a, nil
}

// ResolveAlert closes the alert. The resolution note is required and the
// request is rejected before any storage access when it is missing.
func (c *Coordinator) ResolveAlert(ctx context.Context, alertID, workerID, note string) (*alert.Alert, error) {
	if note == "" {
		return nil, &care.ValidationError{Field: "resolution_note", Reason: "required"}
	}
	if err := c.checkActor(ctx, alertID, workerID); err != nil {
		return nil, err
	}

	a, err := c.alerts.Resolve(ctx, alertID, workerID, note, time.Now().UTC())
	c.observeTransition("resolve", err)
	if err != nil {
		return nil, err
	}

	c.logger.Info(ctx, "alert resolved", "alert_id", alertID, "worker_id", workerID)
	return a, nil
}

// IgnoreAlert dismisses an ACTIVE alert without action.
func (c *Coordinator) IgnoreAlert(ctx context.Context, alertID, workerID, note string) (*alert.Alert, error) {
	if err := c.checkActor(ctx, alertID, workerID); err != nil {
		return nil, err
	}

	a, err := c.alerts.Ignore(ctx, alertID, workerID, note, time.Now().UTC())
	c.observeTransition("ignore", err)
	if err != nil {
		return nil, err
	}

	c.logger.Info(ctx, "alert ignored", "alert_id", alertID, "worker_id", workerID)
	return a, nil
}

func (c *Coordinator) checkActor(ctx context.Context, alertID, workerID string) error {
	if alertID == "" {
		return &care.ValidationError{Field: "alert_id", Reason: "required"}
	}
	if workerID == "" {
		return &care.ValidationError{Field: "healthcare_worker_id", Reason: "required"}
	}
	_, err := c.dir.ResolveWorker(ctx, workerID)
	return err
}

func (c *Coordinator) observeTransition(op string, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.TransitionsTotal.WithLabelValues(op, outcome(err)).Inc()
}

func (c *Coordinator) observeAssignment(op string, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.AssignmentsTotal.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
