// Package triage is the read side of the monitoring core: it orders and
// surfaces alerts by clinical urgency and derives dashboard aggregates from
// the alert store, the assignment registry, and the identity directory. It
// performs no writes. Absence of data yields zero-valued aggregates, never
// a NotFound: "no data yet" is not an invalid reference.
package triage

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/carewatch/internal/alert"
	"github.com/linnemanlabs/carewatch/internal/assignment"
	"github.com/linnemanlabs/carewatch/internal/care"
	"github.com/linnemanlabs/carewatch/internal/directory"
)

const (
	recentPatientLimit = 10
	topAlertLimit      = 10
)

// Statistics is the dashboard's headline numbers.
type Statistics struct {
	TotalPatients      int `json:"total_patients"`
	CriticalPatients   int `json:"critical_patients"`
	ToMonitorPatients  int `json:"to_monitor_patients"`
	StablePatients     int `json:"stable_patients"`
	ActiveAlertCount   int `json:"active_alert_count"`
	CriticalAlertCount int `json:"critical_alert_count"`
	TodayAdmissions    int `json:"today_admissions"`
}

// PatientOverview is a patient row on the dashboard or my-patients list.
type PatientOverview struct {
	directory.PatientRef
	ActiveAlertCount int `json:"active_alert_count"`
}

// PatientSummary is one of a worker's assigned patients.
type PatientSummary struct {
	directory.PatientRef
	Primary          bool      `json:"primary"`
	AssignedAt       time.Time `json:"assigned_at"`
	ActiveAlertCount int       `json:"active_alert_count"`
}

// AlertOverview is an alert row on the dashboard, joined with the patient's
// display name.
type AlertOverview struct {
	alert.Alert
	PatientName string `json:"patient_name"`
}

// Dashboard is a point-in-time snapshot; it may be stale by the duration of
// one in-flight transaction, which readers tolerate.
type Dashboard struct {
	Statistics      Statistics        `json:"statistics"`
	RecentPatients  []PatientOverview `json:"recent_patients"`
	TopActiveAlerts []AlertOverview   `json:"top_active_alerts"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// Cache stores dashboard snapshots. Implementations must treat failures as
// misses; the dashboard always falls back to a live build.
type Cache interface {
	GetDashboard(ctx context.Context) (*Dashboard, bool)
	PutDashboard(ctx context.Context, d *Dashboard)
}

// Engine answers the read-side queries. It never mutates storage.
type Engine struct {
	alerts      alert.Store
	assignments assignment.Store
	dir         directory.Directory
	cache       Cache
	metrics     *Metrics
	logger      log.Logger
}

// NewEngine creates a query engine. cache and metrics may be nil.
func NewEngine(alerts alert.Store, assignments assignment.Store, dir directory.Directory, cache Cache, m *Metrics, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		alerts:      alerts,
		assignments: assignments,
		dir:         dir,
		cache:       cache,
		metrics:     m,
		logger:      logger,
	}
}

// Dashboard builds (or serves from cache) the care-team dashboard snapshot.
func (e *Engine) Dashboard(ctx context.Context) (*Dashboard, error) {
	if e.cache != nil {
		if d, ok := e.cache.GetDashboard(ctx); ok {
			e.observeCache("hit")
			return d, nil
		}
		e.observeCache("miss")
	}

	start := time.Now()
	d, err := e.buildDashboard(ctx)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.DashboardDuration.Observe(time.Since(start).Seconds())
	}

	if e.cache != nil {
		e.cache.PutDashboard(ctx, d)
	}
	return d, nil
}

func (e *Engine) buildDashboard(ctx context.Context) (*Dashboard, error) {
	now := time.Now().UTC()

	var stats Statistics
	var err error
	if stats.TotalPatients, err = e.dir.CountPatients(ctx); err != nil {
		return nil, err
	}
	if stats.CriticalPatients, err = e.dir.CountPatientsByStatus(ctx, directory.StatusCritical); err != nil {
		return nil, err
	}
	if stats.ToMonitorPatients, err = e.dir.CountPatientsByStatus(ctx, directory.StatusToMonitor); err != nil {
		return nil, err
	}
	if stats.StablePatients, err = e.dir.CountPatientsByStatus(ctx, directory.StatusStable); err != nil {
		return nil, err
	}
	if stats.ActiveAlertCount, err = e.alerts.CountByStatus(ctx, alert.StatusActive); err != nil {
		return nil, err
	}
	if stats.CriticalAlertCount, err = e.alerts.CountActiveByPriority(ctx, alert.PriorityCritical); err != nil {
		return nil, err
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if stats.TodayAdmissions, err = e.dir.CountAdmittedSince(ctx, midnight); err != nil {
		return nil, err
	}

	recent, err := e.recentPatients(ctx)
	if err != nil {
		return nil, err
	}

	top, err := e.topActiveAlerts(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Statistics:      stats,
		RecentPatients:  recent,
		TopActiveAlerts: top,
		GeneratedAt:     now,
	}, nil
}

func (e *Engine) recentPatients(ctx context.Context) ([]PatientOverview, error) {
	patients, err := e.dir.RecentPatients(ctx, recentPatientLimit)
	if err != nil {
		return nil, err
	}

	out := make([]PatientOverview, 0, len(patients))
	for _, p := range patients {
		n, err := e.alerts.CountByPatientAndStatus(ctx, p.ID, alert.StatusActive)
		if err != nil {
			return nil, err
		}
		out = append(out, PatientOverview{PatientRef: p, ActiveAlertCount: n})
	}
	return out, nil
}

func (e *Engine) topActiveAlerts(ctx context.Context) ([]AlertOverview, error) {
	alerts, err := e.alerts.TopActive(ctx, topAlertLimit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.PatientID)
	}
	patients, err := e.dir.PatientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]AlertOverview, 0, len(alerts))
	for _, a := range alerts {
		name := ""
		if p, ok := patients[a.PatientID]; ok {
			name = p.Name
		}
		out = append(out, AlertOverview{Alert: a, PatientName: name})
	}
	return out, nil
}

// AssignedPatientsFor pages a worker's assigned patients, each joined with
// its active-alert count. Patients hidden by the directory (soft-deleted)
// are dropped from the page rather than erroring.
func (e *Engine) AssignedPatientsFor(ctx context.Context, workerID string, page, pageSize int) (*care.Page[PatientSummary], error) {
	page, pageSize = care.ClampPaging(page, pageSize)

	active, err := e.assignments.ActiveForWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	total := len(active)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	window := active[start:end]

	ids := make([]string, 0, len(window))
	for _, a := range window {
		ids = append(ids, a.PatientID)
	}
	patients, err := e.dir.PatientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]PatientSummary, 0, len(window))
	for _, a := range window {
		p, ok := patients[a.PatientID]
		if !ok {
			continue
		}
		n, err := e.alerts.CountByPatientAndStatus(ctx, a.PatientID, alert.StatusActive)
		if err != nil {
			return nil, err
		}
		items = append(items, PatientSummary{
			PatientRef:       *p,
			Primary:          a.Primary,
			AssignedAt:       a.AssignedAt,
			ActiveAlertCount: n,
		})
	}

	return &care.Page[PatientSummary]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// AssignedPatientCountFor counts a worker's active assignments.
func (e *Engine) AssignedPatientCountFor(ctx context.Context, workerID string) (int, error) {
	return e.assignments.CountActiveForWorker(ctx, workerID)
}

// ActiveAlerts pages all ACTIVE alerts in triage order.
func (e *Engine) ActiveAlerts(ctx context.Context, page, pageSize int) (*care.Page[alert.Alert], error) {
	page, pageSize = care.ClampPaging(page, pageSize)
	return e.alerts.ListActive(ctx, page, pageSize)
}

// AlertByID fetches a single alert in any state.
func (e *Engine) AlertByID(ctx context.Context, id string) (*alert.Alert, error) {
	return e.alerts.Get(ctx, id)
}

// AlertsForPatient returns a patient's alert history, newest first. An
// unknown patient yields an empty slice, not NotFound.
func (e *Engine) AlertsForPatient(ctx context.Context, patientID string) ([]alert.Alert, error) {
	return e.alerts.ListByPatient(ctx, patientID)
}

// ActiveAlertCountFor counts a patient's ACTIVE alerts. Unknown patients
// yield zero, not NotFound.
func (e *Engine) ActiveAlertCountFor(ctx context.Context, patientID string) (int, error) {
	return e.alerts.CountByPatientAndStatus(ctx, patientID, alert.StatusActive)
}

func (e *Engine) observeCache(result string) {
	if e.metrics != nil {
		e.metrics.DashboardCache.WithLabelValues(result).Inc()
	}
}
