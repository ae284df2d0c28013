package alert

import (
	"context"
	"time"

	"github.com/linnemanlabs/carewatch/internal/care"
)

// Store is the persistence interface for alerts. Implementations must apply
// each lifecycle transition atomically against the alert's current status:
// of two racing acknowledges exactly one succeeds and the other observes the
// post-transition state and fails with care.ErrInvalidTransition.
type Store interface {
	// Create persists a new alert. The caller supplies ID, PatientID, Type,
	// Priority, Title, Message, Metadata; the store stamps Status=ACTIVE and
	// CreatedAt/UpdatedAt.
	Create(ctx context.Context, a *Alert) error

	// Get fails with care.ErrNotFound if the alert does not exist.
	Get(ctx context.Context, id string) (*Alert, error)

	// Acknowledge moves ACTIVE -> ACKNOWLEDGED and stamps the ack fields,
	// which are immutable once set.
	Acknowledge(ctx context.Context, id, workerID, note string, at time.Time) (*Alert, error)

	// Resolve moves ACTIVE or ACKNOWLEDGED -> RESOLVED. Resolving an
	// unacknowledged alert leaves the ack fields null.
	Resolve(ctx context.Context, id, workerID, note string, at time.Time) (*Alert, error)

	// Ignore moves ACTIVE -> IGNORED.
	Ignore(ctx context.Context, id, workerID, note string, at time.Time) (*Alert, error)

	// ListByPatient returns all alerts for a patient, createdAt descending.
	ListByPatient(ctx context.Context, patientID string) ([]Alert, error)

	// ListActive pages ACTIVE alerts ordered by priority rank descending,
	// then createdAt descending.
	ListActive(ctx context.Context, page, pageSize int) (*care.Page[Alert], error)

	// TopActive returns up to n ACTIVE alerts in the same order as ListActive.
	TopActive(ctx context.Context, n int) ([]Alert, error)

	CountByStatus(ctx context.Context, st Status) (int, error)
	CountByPatientAndStatus(ctx context.Context, patientID string, st Status) (int, error)

	// CountActiveByPriority counts ACTIVE alerts at the given priority.
	CountActiveByPriority(ctx context.Context, p Priority) (int, error)
}
