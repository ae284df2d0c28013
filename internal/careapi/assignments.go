package careapi

import (
	"encoding/json"
	"net/http"
)

type assignRequest struct {
	PatientID string `json:"patient_id"`
	WorkerID  string `json:"healthcare_worker_id"`
	Primary   bool   `json:"primary"`
	Notes     string `json:"notes"`
}

type unassignRequest struct {
	PatientID string `json:"patient_id"`
	WorkerID  string `json:"healthcare_worker_id"`
}

func (a *API) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload"})
		return
	}

	as, err := a.coord.AssignPatient(r.Context(), req.PatientID, req.WorkerID, req.Primary, req.Notes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, as)
}

// handleUnassign accepts the pair either as query params or a JSON body.
func (a *API) handleUnassign(w http.ResponseWriter, r *http.Request) {
	req := unassignRequest{
		PatientID: r.URL.Query().Get("patient_id"),
		WorkerID:  r.URL.Query().Get("healthcare_worker_id"),
	}
	if req.PatientID == "" && req.WorkerID == "" && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload"})
			return
		}
	}

	if err := a.coord.UnassignPatient(r.Context(), req.PatientID, req.WorkerID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
