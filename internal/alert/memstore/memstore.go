// Package memstore provides an in-memory implementation of alert.Store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linnemanlabs/carewatch/internal/alert"
	"github.com/linnemanlabs/carewatch/internal/care"
)

// Store holds alerts in memory. Suitable for dev/testing. All transitions
// run under the store mutex, so the compare-and-set semantics match the
// Postgres implementation.
type Store struct {
	mu     sync.RWMutex
	alerts map[string]*alert.Alert
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{alerts: make(map[string]*alert.Alert)}
}

// Create persists a copy of the alert with status ACTIVE. CreatedAt/UpdatedAt
// are stamped when unset so tests can control ordering.
func (s *Store) Create(_ context.Context, a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	cp.Status = alert.StatusActive
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}
	s.alerts[cp.ID] = &cp
	*a = cp
	return nil
}

// Get retrieves an alert by ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, &care.NotFoundError{Entity: "alert", ID: id}
	}
	cp := *a
	return &cp, nil
}

// Acknowledge moves ACTIVE -> ACKNOWLEDGED and stamps the ack fields.
func (s *Store) Acknowledge(_ context.Context, id, workerID, note string, at time.Time) (*alert.Alert, error) {
	return s.transition(id, alert.StatusAcknowledged, workerID, note, at)
}

// Resolve moves ACTIVE or ACKNOWLEDGED -> RESOLVED. Ack fields are left
// untouched either way.
func (s *Store) Resolve(_ context.Context, id, workerID, note string, at time.Time) (*alert.Alert, error) {
	return s.transition(id, alert.StatusResolved, workerID, note, at)
}

// Ignore moves ACTIVE -> IGNORED, recording the dismissal in the resolution
// fields so the audit trail keeps who dismissed it and why.
func (s *Store) Ignore(_ context.Context, id, workerID, note string, at time.Time) (*alert.Alert, error) {
	return s.transition(id, alert.StatusIgnored, workerID, note, at)
}

func (s *Store) transition(id string, target alert.Status, workerID, note string, at time.Time) (*alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, &care.NotFoundError{Entity: "alert", ID: id}
	}
	if !alert.CanTransition(a.Status, target) {
		return nil, &care.TransitionError{AlertID: id, From: string(a.Status), To: string(target)}
	}

	switch target {
	case alert.StatusAcknowledged:
		a.AcknowledgedBy = &workerID
		a.AcknowledgedAt = &at
		a.AcknowledgmentNote = note
	case alert.StatusResolved, alert.StatusIgnored:
		a.ResolvedBy = &workerID
		a.ResolvedAt = &at
		a.ResolutionNote = note
	}
	a.Status = target
	a.UpdatedAt = at

	cp := *a
	return &cp, nil
}

// ListByPatient returns the patient's alerts, createdAt descending.
func (s *Store) ListByPatient(_ context.Context, patientID string) ([]alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []alert.Alert
	for _, a := range s.alerts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListActive pages ACTIVE alerts in triage order.
func (s *Store) ListActive(_ context.Context, page, pageSize int) (*care.Page[alert.Alert], error) {
	page, pageSize = care.ClampPaging(page, pageSize)

	s.mu.RLock()
	active := s.activeSorted()
	s.mu.RUnlock()

	total := len(active)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &care.Page[alert.Alert]{
		Items:    active[start:end],
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// TopActive returns up to n ACTIVE alerts in triage order.
func (s *Store) TopActive(_ context.Context, n int) ([]alert.Alert, error) {
	s.mu.RLock()
	active := s.activeSorted()
	s.mu.RUnlock()

	if n < len(active) {
		active = active[:n]
	}
	return active, nil
}

// CountByStatus counts alerts in the given status.
func (s *Store) CountByStatus(_ context.Context, st alert.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.alerts {
		if a.Status == st {
			n++
		}
	}
	return n, nil
}

// CountByPatientAndStatus counts a patient's alerts in the given status.
func (s *Store) CountByPatientAndStatus(_ context.Context, patientID string, st alert.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.alerts {
		if a.PatientID == patientID && a.Status == st {
			n++
		}
	}
	return n, nil
}

// CountActiveByPriority counts ACTIVE alerts at the given priority.
func (s *Store) CountActiveByPriority(_ context.Context, p alert.Priority) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.alerts {
		if a.Status == alert.StatusActive && a.Priority == p {
			n++
		}
	}
	return n, nil
}

// activeSorted snapshots ACTIVE alerts ordered by priority rank descending,
// then createdAt descending. Callers must hold at least the read lock.
func (s *Store) activeSorted() []alert.Alert {
	var active []alert.Alert
	for _, a := range s.alerts {
		if a.Status == alert.StatusActive {
			active = append(active, *a)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		ri, rj := active[i].Priority.Rank(), active[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active
}
