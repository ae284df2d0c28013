// Package careapi exposes the monitoring core over HTTP. Handlers decode,
// delegate, and map domain errors to status codes; no business rules live
// here.
package careapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/carewatch/internal/alert"
	"github.com/linnemanlabs/carewatch/internal/assignment"
	"github.com/linnemanlabs/carewatch/internal/care"
	"github.com/linnemanlabs/carewatch/internal/lifecycle"
	"github.com/linnemanlabs/carewatch/internal/triage"
)

// workerHeader carries the acting worker's id on write requests.
const workerHeader = "X-Worker-Id"

// Coordinator defines the write operations careapi needs.
type Coordinator interface {
	RaiseAlert(ctx context.Context, p lifecycle.RaiseAlertParams) (*alert.Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID, workerID, note string) (*alert.Alert, error)
	ResolveAlert(ctx context.Context, alertID, workerID, note string) (*alert.Alert, error)
	IgnoreAlert(ctx context.Context, alertID, workerID, note string) (*alert.Alert, error)
	AssignPatient(ctx context.Context, patientID, workerID string, primary bool, notes string) (*assignment.Assignment, error)
	UnassignPatient(ctx context.Context, patientID, workerID string) error
}

// QueryEngine defines the read operations careapi needs.
type QueryEngine interface {
	Dashboard(ctx context.Context) (*triage.Dashboard, error)
	ActiveAlerts(ctx context.Context, page, pageSize int) (*care.Page[alert.Alert], error)
	AlertByID(ctx context.Context, id string) (*alert.Alert, error)
	AlertsForPatient(ctx context.Context, patientID string) ([]alert.Alert, error)
	AssignedPatientsFor(ctx context.Context, workerID string, page, pageSize int) (*care.Page[triage.PatientSummary], error)
	AssignedPatientCountFor(ctx context.Context, workerID string) (int, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	coord  Coordinator
	query  QueryEngine
}

// New creates a new API handler.
func New(logger log.Logger, coord Coordinator, query QueryEngine) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if coord == nil {
		panic(xerrors.New("coordinator is required"))
	}
	if query == nil {
		panic(xerrors.New("query engine is required"))
	}
	return &API{
		logger: logger,
		coord:  coord,
		query:  query,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/alerts", a.handleRaiseAlert)
		r.Get("/alerts", a.handleListActiveAlerts)
		r.Get("/alerts/{id}", a.handleGetAlert)
		r.Post("/alerts/{id}/acknowledge", a.handleAcknowledgeAlert)
		r.Post("/alerts/{id}/resolve", a.handleResolveAlert)
		r.Post("/alerts/{id}/ignore", a.handleIgnoreAlert)

		r.Get("/patients/{id}/alerts", a.handlePatientAlerts)

		r.Post("/assignments", a.handleAssign)
		r.Delete("/assignments", a.handleUnassign)

		r.Get("/dashboard", a.handleDashboard)
		r.Get("/my-patients", a.handleMyPatients)
		r.Get("/my-patients/count", a.handleMyPatientCount)
	})
}

// workerID pulls the acting worker's id off the request. Handlers pass it
// down; the coordinator rejects an empty id.
func workerID(r *http.Request) string {
	return r.Header.Get(workerHeader)
}
