package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/linnemanlabs/carewatch/internal/alert"
	"github.com/linnemanlabs/carewatch/internal/care"
)

func newAlert(id, patientID string, p alert.Priority, created time.Time) *alert.Alert {
	return &alert.Alert{
		ID:        id,
		PatientID: patientID,
		Type:      alert.TypeHeartRate,
		Priority:  p,
		Title:     "elevated heart rate",
		Message:   "sustained above threshold",
		CreatedAt: created,
	}
}

func TestCreate_StampsActive(t *testing.T) {
	t.Parallel()

	s := New()
	a := newAlert("a1", "p1", alert.PriorityHigh, time.Time{})
	a.Status = alert.StatusResolved // callers cannot pick a starting status

	if err := s.Create(context.Background(), a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != alert.StatusActive {
		t.Errorf("Status = %s, want ACTIVE", a.Status)
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}
}

func TestLifecycle_AcknowledgeThenResolve(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.Create(ctx, newAlert("a1", "p1", alert.PriorityHigh, time.Time{})); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ackAt := time.Now().UTC()
	a, err := s.Acknowledge(ctx, "a1", "w1", "on it", ackAt)
	if err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if a.Status != alert.StatusAcknowledged {
		t.Errorf("Status = %s, want ACKNOWLEDGED", a.Status)
	}
	if a.AcknowledgedBy == nil || *a.AcknowledgedBy != "w1" {
		t.Errorf("AcknowledgedBy = %v, want w1", a.AcknowledgedBy)
	}
	if a.AcknowledgmentNote != "on it" {
		t.Errorf("AcknowledgmentNote = %q", a.AcknowledgmentNote)
	}

	resAt := ackAt.Add(time.Minute)
	a, err = s.Resolve(ctx, "a1", "w2", "medication adjusted", resAt)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.Status != alert.StatusResolved {
		t.Errorf("Status = %s, want RESOLVED", a.Status)
	}
	if a.ResolvedBy == nil || *a.ResolvedBy != "w2" {
		t.Errorf("ResolvedBy = %v, want w2", a.ResolvedBy)
	}
	// ack fields survive the resolve
	if a.AcknowledgedBy == nil || *a.AcknowledgedBy != "w1" {
		t.Error("ack fields lost on resolve")
	}
}

func TestLifecycle_DirectResolve(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.Create(ctx, newAlert("a1", "p1", alert.PriorityLow, time.Time{})); err != nil {
		t.Fatalf("Create: %v", err)
	}

	a, err := s.Resolve(ctx, "a1", "w1", "false positive confirmed", time.Now().UTC())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.Status != alert.StatusResolved {
		t.Errorf("Status = %s, want RESOLVED", a.Status)
	}
	if a.AcknowledgedBy != nil {
		t.Error("ack fields set on direct resolve")
	}
}

func TestLifecycle_Ignore(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.Create(ctx, newAlert("a1", "p1", alert.PriorityLow, time.Time{})); err != nil {
		t.Fatalf("Create: %v", err)
	}

	a, err := s.Ignore(ctx, "a1", "w1", "sensor glitch", time.Now().UTC())
	if err != nil {
		t.Fatalf("Ignore: %v", err)
	}
	if a.Status != alert.StatusIgnored {
		t.Errorf("Status = %s, want IGNORED", a.Status)
	}
	// dismissal is recorded in the resolution fields
	if a.ResolvedBy == nil || *a.ResolvedBy != "w1" {
		t.Errorf("ResolvedBy = %v, want w1", a.ResolvedBy)
	}
}

func TestTransition_Illegal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name string
		prep func(s *Store) // moves a1 into the starting state
		op   func(s *Store) error
	}{
		{
			name: "acknowledge acknowledged",
			prep: func(s *Store) { _, _ = s.Acknowledge(ctx, "a1", "w1", "", now) },
			op: func(s *Store) error {
				_, err := s.Acknowledge(ctx, "a1", "w2", "", now)
				return err
			},
		},
		{
			name: "acknowledge resolved",
			prep: func(s *Store) { _, _ = s.Resolve(ctx, "a1", "w1", "done", now) },
			op: func(s *Store) error {
				_, err := s.Acknowledge(ctx, "a1", "w2", "", now)
				return err
			},
		},
		{
			name: "resolve resolved",
			prep: func(s *Store) { _, _ = s.Resolve(ctx, "a1", "w1", "done", now) },
			op: func(s *Store) error {
				_, err := s.Resolve(ctx, "a1", "w2", "again", now)
				return err
			},
		},
		{
			name: "ignore acknowledged",
			prep: func(s *Store) { _, _ = s.Acknowledge(ctx, "a1", "w1", "", now) },
			op: func(s *Store) error {
				_, err := s.Ignore(ctx, "a1", "w2", "", now)
				return err
			},
		},
		{
			name: "resolve ignored",
			prep: func(s *Store) { _, _ = s.Ignore(ctx, "a1", "w1", "", now) },
			op: func(s *Store) error {
				_, err := s.Resolve(ctx, "a1", "w2", "x", now)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := New()
			if err := s.Create(ctx, newAlert("a1", "p1", alert.PriorityHigh, time.Time{})); err != nil {
				t.Fatalf("Create: %v", err)
			}
			tt.prep(s)

			err := tt.op(s)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, care.ErrInvalidTransition) {
				t.Errorf("error %v is not ErrInvalidTransition", err)
			}
			var te *care.TransitionError
			if !errors.As(err, &te) {
				t.Errorf("error %v is not a TransitionError", err)
			}
		})
	}
}

func TestTransition_NotFound(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.Acknowledge(context.Background(), "missing", "w1", "", time.Now())
	if !errors.Is(err, care.ErrNotFound) {
		t.Errorf("error %v is not ErrNotFound", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, care.ErrNotFound) {
		t.Errorf("error %v is not ErrNotFound", err)
	}
}

func TestListActive_TriageOrder(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// older critical beats newer high; within a priority newest first
	fixtures := []*alert.Alert{
		newAlert("low-old", "p1", alert.PriorityLow, base),
		newAlert("crit-old", "p1", alert.PriorityCritical, base.Add(1*time.Minute)),
		newAlert("high-new", "p2", alert.PriorityHigh, base.Add(30*time.Minute)),
		newAlert("crit-new", "p2", alert.PriorityCritical, base.Add(20*time.Minute)),
		newAlert("high-old", "p3", alert.PriorityHigh, base.Add(2*time.Minute)),
	}
	for _, f := range fixtures {
		if err := s.Create(ctx, f); err != nil {
			t.Fatalf("Create(%s): %v", f.ID, err)
		}
	}
	// resolved alerts never show up in the active list
	if _, err := s.Resolve(ctx, "low-old", "w1", "done", base.Add(time.Hour)); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	page, err := s.ListActive(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}

	want := []string{"crit-new", "crit-old", "high-new", "high-old"}
	if page.Total != len(want) {
		t.Fatalf("Total = %d, want %d", page.Total, len(want))
	}
	for i, id := range want {
		if page.Items[i].ID != id {
			t.Errorf("Items[%d].ID = %s, want %s", i, page.Items[i].ID, id)
		}
	}
}

func TestListActive_Paging(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		a := newAlert(fmt.Sprintf("a%d", i), "p1", alert.PriorityMedium, base.Add(time.Duration(i)*time.Minute))
		if err := s.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	p1, err := s.ListActive(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListActive page 1: %v", err)
	}
	if len(p1.Items) != 2 || p1.Total != 5 {
		t.Fatalf("page 1: len=%d total=%d, want 2/5", len(p1.Items), p1.Total)
	}

	p3, err := s.ListActive(ctx, 3, 2)
	if err != nil {
		t.Fatalf("ListActive page 3: %v", err)
	}
	if len(p3.Items) != 1 {
		t.Errorf("page 3: len=%d, want 1", len(p3.Items))
	}

	// past the end is an empty page, not an error
	p9, err := s.ListActive(ctx, 9, 2)
	if err != nil {
		t.Fatalf("ListActive page 9: %v", err)
	}
	if len(p9.Items) != 0 {
		t.Errorf("page 9: len=%d, want 0", len(p9.Items))
	}

	// invalid paging is clamped to defaults
	pd, err := s.ListActive(ctx, 0, -1)
	if err != nil {
		t.Fatalf("ListActive clamped: %v", err)
	}
	if pd.Page != 1 || pd.PageSize != care.DefaultPageSize {
		t.Errorf("clamped page=%d size=%d", pd.Page, pd.PageSize)
	}
}

func TestTopActive(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		a := newAlert(fmt.Sprintf("a%d", i), "p1", alert.PriorityMedium, base.Add(time.Duration(i)*time.Minute))
		if err := s.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	top, err := s.TopActive(ctx, 2)
	if err != nil {
		t.Fatalf("TopActive: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].ID != "a3" {
		t.Errorf("top[0].ID = %s, want a3", top[0].ID)
	}
}

func TestCounts(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Create(ctx, newAlert("a1", "p1", alert.PriorityCritical, now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, newAlert("a2", "p1", alert.PriorityLow, now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, newAlert("a3", "p2", alert.PriorityCritical, now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Resolve(ctx, "a3", "w1", "done", now); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if n, _ := s.CountByStatus(ctx, alert.StatusActive); n != 2 {
		t.Errorf("CountByStatus(ACTIVE) = %d, want 2", n)
	}
	if n, _ := s.CountByStatus(ctx, alert.StatusResolved); n != 1 {
		t.Errorf("CountByStatus(RESOLVED) = %d, want 1", n)
	}
	if n, _ := s.CountByPatientAndStatus(ctx, "p1", alert.StatusActive); n != 2 {
		t.Errorf("CountByPatientAndStatus(p1, ACTIVE) = %d, want 2", n)
	}
	// unknown patient counts zero, no error
	if n, err := s.CountByPatientAndStatus(ctx, "ghost", alert.StatusActive); err != nil || n != 0 {
		t.Errorf("CountByPatientAndStatus(ghost) = %d, %v", n, err)
	}
	if n, _ := s.CountActiveByPriority(ctx, alert.PriorityCritical); n != 1 {
		t.Errorf("CountActiveByPriority(CRITICAL) = %d, want 1", n)
	}
}

func TestListByPatient_NewestFirst(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Create(ctx, newAlert("old", "p1", alert.PriorityLow, base)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, newAlert("new", "p1", alert.PriorityLow, base.Add(time.Hour))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, newAlert("other", "p2", alert.PriorityLow, base)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.ListByPatient(ctx, "p1")
	if err != nil {
		t.Fatalf("ListByPatient: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "new" || got[1].ID != "old" {
		t.Errorf("order = [%s %s], want [new old]", got[0].ID, got[1].ID)
	}

	// unknown patient yields empty history
	empty, err := s.ListByPatient(ctx, "ghost")
	if err != nil {
		t.Fatalf("ListByPatient(ghost): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len = %d, want 0", len(empty))
	}
}
