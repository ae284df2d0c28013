// Package memstore provides an in-memory implementation of assignment.Store.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/linnemanlabs/carewatch/internal/assignment"
	"github.com/linnemanlabs/carewatch/internal/care"
)

// Store holds assignments in memory. Suitable for dev/testing. Invariant
// checks and writes share one mutex, matching the atomicity the Postgres
// unique indexes give.
type Store struct {
	mu      sync.RWMutex
	records []*assignment.Assignment
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{}
}

// Assign appends an active assignment after checking both uniqueness
// invariants under the lock.
func (s *Store) Assign(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if !r.Active {
			continue
		}
		if r.WorkerID == a.WorkerID && r.PatientID == a.PatientID {
			return &care.ConflictError{
				Entity: "assignment",
				Detail: "patient " + a.PatientID + " already assigned to worker " + a.WorkerID,
			}
		}
		if a.Primary && r.Primary && r.PatientID == a.PatientID {
			return &care.ConflictError{
				Entity: "assignment",
				Detail: "patient " + a.PatientID + " already has a primary caregiver",
			}
		}
	}

	cp := *a
	cp.Active = true
	if cp.AssignedAt.IsZero() {
		cp.AssignedAt = time.Now().UTC()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.AssignedAt
	}
	s.records = append(s.records, &cp)
	*a = cp
	return nil
}

// Unassign deactivates the pair's active assignment.
func (s *Store) Unassign(_ context.Context, workerID, patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Active && r.WorkerID == workerID && r.PatientID == patientID {
			now := time.Now().UTC()
			r.Active = false
			r.UnassignedAt = &now
			return nil
		}
	}
	return &care.NotFoundError{Entity: "assignment", ID: workerID + "/" + patientID}
}

// ActiveForWorker returns copies of the worker's active assignments.
func (s *Store) ActiveForWorker(_ context.Context, workerID string) ([]assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []assignment.Assignment
	for _, r := range s.records {
		if r.Active && r.WorkerID == workerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// ActiveForPatient returns copies of the patient's active assignments.
func (s *Store) ActiveForPatient(_ context.Context, patientID string) ([]assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []assignment.Assignment
	for _, r := range s.records {
		if r.Active && r.PatientID == patientID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// IsAssigned reports whether an active assignment exists for the pair.
func (s *Store) IsAssigned(_ context.Context, workerID, patientID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.Active && r.WorkerID == workerID && r.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

// CountActiveForWorker counts the worker's active assignments.
func (s *Store) CountActiveForWorker(_ context.Context, workerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if r.Active && r.WorkerID == workerID {
			n++
		}
	}
	return n, nil
}
