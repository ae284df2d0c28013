// Package memdir provides an in-memory implementation of
// directory.Directory. Suitable for dev/testing.
package memdir

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linnemanlabs/carewatch/internal/care"
	"github.com/linnemanlabs/carewatch/internal/directory"
)

// Directory holds identities in memory.
type Directory struct {
	mu       sync.RWMutex
	patients map[string]*patientRecord
	workers  map[string]*directory.WorkerRef
}

type patientRecord struct {
	directory.PatientRef
	Deleted bool
}

// New initializes an empty in-memory Directory.
func New() *Directory {
	return &Directory{
		patients: make(map[string]*patientRecord),
		workers:  make(map[string]*directory.WorkerRef),
	}
}

// PutPatient adds or replaces a patient record.
func (d *Directory) PutPatient(p directory.PatientRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patients[p.ID] = &patientRecord{PatientRef: p}
}

// PutWorker adds or replaces a worker record.
func (d *Directory) PutWorker(w directory.WorkerRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := w
	d.workers[w.ID] = &cp
}

// MarkDeleted soft-deletes a patient, hiding it from every lookup.
func (d *Directory) MarkDeleted(patientID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.patients[patientID]; ok {
		p.Deleted = true
	}
}

// ResolvePatient returns a copy of the patient, NotFound if unknown/deleted.
func (d *Directory) ResolvePatient(_ context.Context, id string) (*directory.PatientRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.patients[id]
	if !ok || p.Deleted {
		return nil, &care.NotFoundError{Entity: "patient", ID: id}
	}
	cp := p.PatientRef
	return &cp, nil
}

// ResolveWorker returns a copy of the worker, NotFound if unknown.
func (d *Directory) ResolveWorker(_ context.Context, id string) (*directory.WorkerRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	w, ok := d.workers[id]
	if !ok {
		return nil, &care.NotFoundError{Entity: "healthcare worker", ID: id}
	}
	cp := *w
	return &cp, nil
}

// PatientsByIDs batch-resolves patients; missing ids are absent, not errors.
func (d *Directory) PatientsByIDs(_ context.Context, ids []string) (map[string]*directory.PatientRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]*directory.PatientRef, len(ids))
	for _, id := range ids {
		if p, ok := d.patients[id]; ok && !p.Deleted {
			cp := p.PatientRef
			out[id] = &cp
		}
	}
	return out, nil
}

// RecentPatients returns up to limit patients, most recently updated first.
func (d *Directory) RecentPatients(_ context.Context, limit int) ([]directory.PatientRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []directory.PatientRef
	for _, p := range d.patients {
		if !p.Deleted {
			out = append(out, p.PatientRef)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// CountPatients counts non-deleted patients.
func (d *Directory) CountPatients(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, p := range d.patients {
		if !p.Deleted {
			n++
		}
	}
	return n, nil
}

// CountPatientsByStatus counts non-deleted patients in the given status.
func (d *Directory) CountPatientsByStatus(_ context.Context, st directory.PatientStatus) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, p := range d.patients {
		if !p.Deleted && p.Status == st {
			n++
		}
	}
	return n, nil
}

// CountAdmittedSince counts non-deleted patients admitted at or after t.
func (d *Directory) CountAdmittedSince(_ context.Context, t time.Time) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, p := range d.patients {
		if !p.Deleted && !p.AdmittedAt.Before(t) {
			n++
		}
	}
	return n, nil
}
