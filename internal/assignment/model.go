// Package assignment owns the patient/healthcare-worker responsibility
// mapping. Records are never deleted; unassignment only deactivates, so the
// full history remains as an audit trail.
package assignment

import "time"

// Assignment links one healthcare worker to one patient as a responsible
// caregiver. At most one active record exists per (worker, patient) pair,
// and at most one active record per patient carries Primary.
type Assignment struct {
	ID           string     `json:"id"`
	WorkerID     string     `json:"healthcare_worker_id"`
	PatientID    string     `json:"patient_id"`
	AssignedAt   time.Time  `json:"assigned_at"`
	UnassignedAt *time.Time `json:"unassigned_at,omitempty"`
	Active       bool       `json:"active"`
	Primary      bool       `json:"primary"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
