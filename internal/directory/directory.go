// Package directory is the read-only boundary to patient and healthcare
// worker identity. Alert and assignment records reference these entities by
// id only; every cross-aggregate join goes through this interface as an
// explicit (batched where useful) lookup.
package directory

import (
	"context"
	"time"

	"github.com/linnemanlabs/carewatch/internal/care"
)

// PatientStatus is the clinical status a patient is tracked under.
type PatientStatus string

const (
	StatusCritical   PatientStatus = "CRITICAL"
	StatusToMonitor  PatientStatus = "TO_MONITOR"
	StatusStable     PatientStatus = "STABLE"
	StatusDischarged PatientStatus = "DISCHARGED"
)

// ParsePatientStatus validates a patient status value at the boundary.
func ParsePatientStatus(s string) (PatientStatus, error) {
	switch PatientStatus(s) {
	case StatusCritical, StatusToMonitor, StatusStable, StatusDischarged:
		return PatientStatus(s), nil
	}
	return "", &care.ValidationError{Field: "patient_status", Reason: "unknown value " + s}
}

// PatientRef is the slice of patient identity this core reads.
type PatientRef struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	MedicalRecordID string        `json:"medical_record_id"`
	Status          PatientStatus `json:"status"`
	RoomNumber      string        `json:"room_number,omitempty"`
	AdmittedAt      time.Time     `json:"admitted_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// WorkerRef is the slice of clinician identity this core reads.
type WorkerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Directory resolves identities and answers the aggregate questions the
// query engine asks. Soft-deleted patients are invisible through every
// method; that visibility rule lives here, not in each caller.
type Directory interface {
	// ResolvePatient fails with care.ErrNotFound for unknown or deleted ids.
	ResolvePatient(ctx context.Context, id string) (*PatientRef, error)

	// ResolveWorker fails with care.ErrNotFound for unknown ids.
	ResolveWorker(ctx context.Context, id string) (*WorkerRef, error)

	// PatientsByIDs batch-resolves patients; unknown or deleted ids are
	// simply absent from the result, no error.
	PatientsByIDs(ctx context.Context, ids []string) (map[string]*PatientRef, error)

	// RecentPatients returns up to limit patients, most recently updated
	// first.
	RecentPatients(ctx context.Context, limit int) ([]PatientRef, error)

	CountPatients(ctx context.Context) (int, error)
	CountPatientsByStatus(ctx context.Context, st PatientStatus) (int, error)

	// CountAdmittedSince counts patients admitted at or after t.
	CountAdmittedSince(ctx context.Context, t time.Time) (int, error)
}
