// Package alert owns alert records and their lifecycle state machine.
package alert

import (
	"encoding/json"
	"time"

	"github.com/linnemanlabs/carewatch/internal/care"
)

// Status tracks where an alert is in its lifecycle.
type Status string

const (
	// StatusActive means raised and awaiting clinician attention.
	StatusActive Status = "ACTIVE"

	// StatusAcknowledged means a clinician has seen the alert.
	StatusAcknowledged Status = "ACKNOWLEDGED"

	// StatusResolved means the underlying condition was handled. Terminal.
	StatusResolved Status = "RESOLVED"

	// StatusIgnored means the alert was dismissed without action. Terminal.
	StatusIgnored Status = "IGNORED"
)

// Type classifies what the detector observed.
type Type string

const (
	TypeHeartRate   Type = "HEART_RATE"
	TypeMood        Type = "MOOD"
	TypeSleep       Type = "SLEEP"
	TypeCorrelation Type = "CORRELATION"
	TypeMedication  Type = "MEDICATION"
	TypeEmergency   Type = "EMERGENCY"
)

// Priority is the clinical urgency of an alert.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Rank gives Priority its total order: higher rank sorts first.
// Listing order is always rank descending, then createdAt descending.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ParseStatus validates a status value at the boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusAcknowledged, StatusResolved, StatusIgnored:
		return Status(s), nil
	}
	return "", &care.ValidationError{Field: "status", Reason: "unknown value " + s}
}

// ParseType validates an alert type value at the boundary.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeHeartRate, TypeMood, TypeSleep, TypeCorrelation, TypeMedication, TypeEmergency:
		return Type(s), nil
	}
	return "", &care.ValidationError{Field: "type", Reason: "unknown value " + s}
}

// ParsePriority validates a priority value at the boundary.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), nil
	}
	return "", &care.ValidationError{Field: "priority", Reason: "unknown value " + s}
}

// Alert is a persisted record of a detected clinical anomaly. Records are
// never deleted; the lifecycle only moves forward (compliance record).
type Alert struct {
	ID        string          `json:"id"`
	PatientID string          `json:"patient_id"`
	Type      Type            `json:"type"`
	Priority  Priority        `json:"priority"`
	Status    Status          `json:"status"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`

	AcknowledgedBy     *string    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt     *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgmentNote string     `json:"acknowledgment_note,omitempty"`

	ResolvedBy     *string    `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// from returns the statuses a transition to target may start from.
// Everything else is illegal: ACKNOWLEDGED/IGNORED are terminal for
// acknowledge and ignore, RESOLVED is terminal for everything.
func from(target Status) []Status {
	switch target {
	case StatusAcknowledged:
		return []Status{StatusActive}
	case StatusResolved:
		return []Status{StatusActive, StatusAcknowledged}
	case StatusIgnored:
		return []Status{StatusActive}
	}
	return nil
}

// CanTransition reports whether current -> target is a legal forward move.
func CanTransition(current, target Status) bool {
	for _, s := range from(target) {
		if s == current {
			return true
		}
	}
	return false
}
