package triage

import (
	"context"
	"testing"
	"time"

	"github.com/linnemanlabs/carewatch/internal/alert"
	alertmem "github.com/linnemanlabs/carewatch/internal/alert/memstore"
	"github.com/linnemanlabs/carewatch/internal/assignment"
	assignmem "github.com/linnemanlabs/carewatch/internal/assignment/memstore"
	"github.com/linnemanlabs/carewatch/internal/directory"
	"github.com/linnemanlabs/carewatch/internal/directory/memdir"
)

// fakeCache records Get/Put traffic and can be preloaded with a snapshot.
type fakeCache struct {
	snapshot *Dashboard
	gets     int
	puts     int
}

func (c *fakeCache) GetDashboard(context.Context) (*Dashboard, bool) {
	c.gets++
	if c.snapshot == nil {
		return nil, false
	}
	return c.snapshot, true
}

func (c *fakeCache) PutDashboard(_ context.Context, d *Dashboard) {
	c.puts++
	c.snapshot = d
}

type fixture struct {
	alerts      *alertmem.Store
	assignments *assignmem.Store
	dir         *memdir.Directory
}

// seed populates three patients (one critical with two active alerts, one
// to-monitor with one, one stable with none), one worker assigned to the
// first two, and a resolved alert that must not count anywhere.
func seed(t *testing.T) fixture {
	t.Helper()

	f := fixture{
		alerts:      alertmem.New(),
		assignments: assignmem.New(),
		dir:         memdir.New(),
	}
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	patients := []directory.PatientRef{
		{ID: "p1", Name: "Avery", MedicalRecordID: "MRN-1", Status: directory.StatusCritical, AdmittedAt: base, UpdatedAt: base.Add(3 * time.Hour)},
		{ID: "p2", Name: "Blake", MedicalRecordID: "MRN-2", Status: directory.StatusToMonitor, AdmittedAt: base.Add(-48 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "p3", Name: "Casey", MedicalRecordID: "MRN-3", Status: directory.StatusStable, AdmittedAt: base.Add(-72 * time.Hour), UpdatedAt: base.Add(time.Hour)},
	}
	for _, p := range patients {
		f.dir.PutPatient(p)
	}
	f.dir.PutWorker(directory.WorkerRef{ID: "w1", Name: "Dana"})

	mk := func(id, patientID string, p alert.Priority, created time.Time) *alert.Alert {
		return &alert.Alert{
			ID: id, PatientID: patientID, Type: alert.TypeHeartRate, Priority: p,
			Title: "t", Message: "m", CreatedAt: created,
		}
	}
	for _, a := range []*alert.Alert{
		mk("a1", "p1", alert.PriorityCritical, base),
		mk("a2", "p1", alert.PriorityHigh, base.Add(time.Minute)),
		mk("a3", "p2", alert.PriorityMedium, base.Add(2*time.Minute)),
		mk("a4", "p3", alert.PriorityLow, base.Add(3*time.Minute)),
	} {
		if err := f.alerts.Create(ctx, a); err != nil {
			t.Fatalf("Create(%s): %v", a.ID, err)
		}
	}
	if _, err := f.alerts.Resolve(ctx, "a4", "w1", "done", base.Add(time.Hour)); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	for _, pair := range []struct {
		id, patient string
		primary     bool
	}{
		{"as1", "p1", true},
		{"as2", "p2", false},
	} {
		err := f.assignments.Assign(ctx, &assignment.Assignment{
			ID: pair.id, WorkerID: "w1", PatientID: pair.patient,
			Primary: pair.primary, AssignedAt: base,
		})
		if err != nil {
			t.Fatalf("Assign(%s): %v", pair.id, err)
		}
	}

	return f
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	f := seed(t)
	e := NewEngine(f.alerts, f.assignments, f.dir, nil, nil, nil)

	d, err := e.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	s := d.Statistics
	if s.TotalPatients != 3 {
		t.Errorf("TotalPatients = %d, want 3", s.TotalPatients)
	}
	if s.CriticalPatients != 1 || s.ToMonitorPatients != 1 || s.StablePatients != 1 {
		t.Errorf("status breakdown = %d/%d/%d, want 1/1/1", s.CriticalPatients, s.ToMonitorPatients, s.StablePatients)
	}
	if s.ActiveAlertCount != 3 {
		t.Errorf("ActiveAlertCount = %d, want 3", s.ActiveAlertCount)
	}
	if s.CriticalAlertCount != 1 {
		t.Errorf("CriticalAlertCount = %d, want 1", s.CriticalAlertCount)
	}

	if len(d.RecentPatients) != 3 {
		t.Fatalf("RecentPatients len = %d, want 3", len(d.RecentPatients))
	}
	// most recently updated first, joined with active counts
	if d.RecentPatients[0].ID != "p1" || d.RecentPatients[0].ActiveAlertCount != 2 {
		t.Errorf("RecentPatients[0] = %s/%d, want p1/2", d.RecentPatients[0].ID, d.RecentPatients[0].ActiveAlertCount)
	}

	if len(d.TopActiveAlerts) != 3 {
		t.Fatalf("TopActiveAlerts len = %d, want 3", len(d.TopActiveAlerts))
	}
	if d.TopActiveAlerts[0].ID != "a1" {
		t.Errorf("TopActiveAlerts[0].ID = %s, want a1 (critical outranks newer)", d.TopActiveAlerts[0].ID)
	}
	if d.TopActiveAlerts[0].PatientName != "Avery" {
		t.Errorf("PatientName = %q, want Avery", d.TopActiveAlerts[0].PatientName)
	}
	if d.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestDashboard_EmptyStores(t *testing.T) {
	t.Parallel()

	e := NewEngine(alertmem.New(), assignmem.New(), memdir.New(), nil, nil, nil)

	d, err := e.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Statistics.TotalPatients != 0 || d.Statistics.ActiveAlertCount != 0 {
		t.Errorf("stats = %+v, want zeros", d.Statistics)
	}
	if len(d.RecentPatients) != 0 || len(d.TopActiveAlerts) != 0 {
		t.Error("expected empty lists")
	}
}

func TestDashboard_CacheHit(t *testing.T) {
	t.Parallel()

	f := seed(t)
	cached := &Dashboard{GeneratedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	cache := &fakeCache{snapshot: cached}
	e := NewEngine(f.alerts, f.assignments, f.dir, cache, nil, nil)

	d, err := e.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !d.GeneratedAt.Equal(cached.GeneratedAt) {
		t.Error("expected cached snapshot to be served")
	}
	if cache.puts != 0 {
		t.Errorf("puts = %d, want 0 on hit", cache.puts)
	}
}

func TestDashboard_CacheMissPopulates(t *testing.T) {
	t.Parallel()

	f := seed(t)
	cache := &fakeCache{}
	e := NewEngine(f.alerts, f.assignments, f.dir, cache, nil, nil)

	if _, err := e.Dashboard(context.Background()); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if cache.gets != 1 || cache.puts != 1 {
		t.Errorf("gets/puts = %d/%d, want 1/1", cache.gets, cache.puts)
	}
	if cache.snapshot == nil {
		t.Fatal("snapshot not stored")
	}

	// second call is served from cache
	if _, err := e.Dashboard(context.Background()); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if cache.puts != 1 {
		t.Errorf("puts = %d after warm call, want 1", cache.puts)
	}
}

func TestAssignedPatientsFor(t *testing.T) {
	t.Parallel()

	f := seed(t)
	e := NewEngine(f.alerts, f.assignments, f.dir, nil, nil, nil)

	page, err := e.AssignedPatientsFor(context.Background(), "w1", 1, 10)
	if err != nil {
		t.Fatalf("AssignedPatientsFor: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("total/len = %d/%d, want 2/2", page.Total, len(page.Items))
	}

	byID := map[string]PatientSummary{}
	for _, it := range page.Items {
		byID[it.ID] = it
	}
	p1 := byID["p1"]
	if !p1.Primary {
		t.Error("p1 should be the primary assignment")
	}
	if p1.ActiveAlertCount != 2 {
		t.Errorf("p1 ActiveAlertCount = %d, want 2", p1.ActiveAlertCount)
	}
}

func TestAssignedPatientsFor_SkipsHiddenPatients(t *testing.T) {
	t.Parallel()

	f := seed(t)
	f.dir.MarkDeleted("p2")
	e := NewEngine(f.alerts, f.assignments, f.dir, nil, nil, nil)

	page, err := e.AssignedPatientsFor(context.Background(), "w1", 1, 10)
	if err != nil {
		t.Fatalf("AssignedPatientsFor: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "p1" {
		t.Errorf("items = %+v, want only p1", page.Items)
	}
}

func TestAssignedPatientsFor_UnknownWorker(t *testing.T) {
	t.Parallel()

	f := seed(t)
	e := NewEngine(f.alerts, f.assignments, f.dir, nil, nil, nil)

	page, err := e.AssignedPatientsFor(context.Background(), "ghost", 1, 10)
	if err != nil {
		t.Fatalf("AssignedPatientsFor: %v", err)
	}
	if page.Total != 0 || len(page.Items) != 0 {
		t.Errorf("expected empty page, got %+v", page)
	}
}

func TestActiveAlertCountFor(t *testing.T) {
	t.Parallel()

	f := seed(t)
	e := NewEngine(f.alerts, f.assignments, f.dir, nil, nil, nil)

	n, err := e.ActiveAlertCountFor(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ActiveAlertCountFor: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	// unknown patient yields zero, not NotFound
	n, err = e.ActiveAlertCountFor(context.Background(), "ghost")
	if err != nil || n != 0 {
		t.Errorf("ghost = %d, %v, want 0, nil", n, err)
	}
}

func TestAssignedPatientCountFor(t *testing.T) {
	t.Parallel()

	f := seed(t)
	e := NewEngine(f.alerts, f.assignments, f.dir, nil, nil, nil)

	n, err := e.AssignedPatientCountFor(context.Background(), "w1")
	if err != nil {
		t.Fatalf("AssignedPatientCountFor: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
