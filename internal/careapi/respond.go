package careapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/linnemanlabs/carewatch/internal/care"
)

type errorBody struct {
	Error string `json:"error"`
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Anything outside the
// domain taxonomy is a 500 with a generic body so storage details never
// leak to clients.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, care.ErrValidation):
		a.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, care.ErrNotFound):
		a.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, care.ErrConflict), errors.Is(err, care.ErrInvalidTransition):
		a.writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		a.logger.Error(r.Context(), err, "request failed", "path", r.URL.Path)
		a.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// pageParams reads ?page= and ?page_size=; clamping happens downstream.
func pageParams(r *http.Request) (page, pageSize int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	pageSize, _ = strconv.Atoi(q.Get("page_size"))
	return page, pageSize
}
