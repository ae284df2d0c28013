package assignment

import "context"

// Store is the persistence interface for assignments. Implementations must
// enforce the active-pair and single-active-primary invariants atomically
// (unique constraints in Postgres, the store mutex in memory), so a race
// between two Assign calls surfaces as care.ErrConflict rather than two
// active rows.
type Store interface {
	// Assign creates an active assignment. Fails with care.ErrConflict when
	// an active assignment for the pair already exists, or when primary is
	// requested while the patient already has an active primary caregiver.
	Assign(ctx context.Context, a *Assignment) error

	// Unassign deactivates the pair's active assignment and stamps
	// UnassignedAt. Fails with care.ErrNotFound when no active assignment
	// exists; a second call for the same pair therefore fails, it is not a
	// silent no-op.
	Unassign(ctx context.Context, workerID, patientID string) error

	// ActiveForWorker returns the worker's active assignments.
	ActiveForWorker(ctx context.Context, workerID string) ([]Assignment, error)

	// ActiveForPatient returns the patient's active assignments.
	ActiveForPatient(ctx context.Context, patientID string) ([]Assignment, error)

	// IsAssigned reports whether an active assignment exists for the pair.
	IsAssigned(ctx context.Context, workerID, patientID string) (bool, error)

	// CountActiveForWorker counts the worker's active assignments.
	CountActiveForWorker(ctx context.Context, workerID string) (int, error)
}
