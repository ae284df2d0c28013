package careapi

import (
	"net/http"

	"github.com/linnemanlabs/carewatch/internal/care"
)

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.query.Dashboard(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, d)
}

func (a *API) handleMyPatients(w http.ResponseWriter, r *http.Request) {
	wid := workerID(r)
	if wid == "" {
		a.writeError(w, r, &care.ValidationError{Field: workerHeader, Reason: "required"})
		return
	}

	page, pageSize := pageParams(r)
	res, err := a.query.AssignedPatientsFor(r.Context(), wid, page, pageSize)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, res)
}

func (a *API) handleMyPatientCount(w http.ResponseWriter, r *http.Request) {
	wid := workerID(r)
	if wid == "" {
		a.writeError(w, r, &care.ValidationError{Field: workerHeader, Reason: "required"})
		return
	}

	n, err := a.query.AssignedPatientCountFor(r.Context(), wid)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]int{"count": n})
}
