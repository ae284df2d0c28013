package careapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/carewatch/internal/alert"
	"github.com/linnemanlabs/carewatch/internal/lifecycle"
)

type transitionFunc func(ctx context.Context, alertID, workerID, note string) (*alert.Alert, error)

type raiseAlertRequest struct {
	PatientID string          `json:"patient_id"`
	Type      string          `json:"type"`
	Priority  string          `json:"priority"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

type transitionRequest struct {
	Note string `json:"note"`
}

func (a *API) handleRaiseAlert(w http.ResponseWriter, r *http.Request) {
	var req raiseAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload"})
		return
	}

	al, err := a.coord.RaiseAlert(r.Context(), lifecycle.RaiseAlertParams{
		PatientID: req.PatientID,
		Type:      req.Type,
		Priority:  req.Priority,
		Title:     req.Title,
		Message:   req.Message,
		Metadata:  req.Metadata,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("carewatch.alert.id", al.ID))

	a.writeJSON(w, http.StatusCreated, al)
}

func (a *API) handleListActiveAlerts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	res, err := a.query.ActiveAlerts(r.Context(), page, pageSize)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, res)
}

func (a *API) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("carewatch.alert.id", id))

	al, err := a.query.AlertByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, al)
}

func (a *API) handlePatientAlerts(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")

	alerts, err := a.query.AlertsForPatient(r.Context(), patientID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, alerts)
}

func (a *API) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	a.handleTransition(w, r, a.coord.AcknowledgeAlert)
}

func (a *API) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	a.handleTransition(w, r, a.coord.ResolveAlert)
}

func (a *API) handleIgnoreAlert(w http.ResponseWriter, r *http.Request) {
	a.handleTransition(w, r, a.coord.IgnoreAlert)
}

func (a *API) handleTransition(w http.ResponseWriter, r *http.Request, op transitionFunc) {
	id := chi.URLParam(r, "id")

	var req transitionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload"})
			return
		}
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("carewatch.alert.id", id))

	al, err := op(r.Context(), id, workerID(r), req.Note)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("carewatch.alert.status", string(al.Status)))

	a.writeJSON(w, http.StatusOK, al)
}
