package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/service"
	"github.com/klytics/sheetsight/internal/store"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

func ok(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	respond(w, r, status, envelope{Success: true, Message: message, Data: data})
}

func list[T any](w http.ResponseWriter, r *http.Request, items []T) {
	n := len(items)
	respond(w, r, http.StatusOK, envelope{Success: true, Count: &n, Data: items})
}

// apiErrors maps domain errors to statuses. A blank message means the
// error text is shown.
var apiErrors = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrEmptyFile, http.StatusBadRequest, "Excel file is empty"},
	{dataset.ErrEmptyDataset, http.StatusBadRequest, "Excel file is empty"},
	{service.ErrUnsupportedFormat, http.StatusBadRequest, ""},
	{chart.ErrInvalidAxis, http.StatusBadRequest, "Invalid axis selection"},
	{chart.ErrMissing3DAxis, http.StatusBadRequest, "Invalid Z-axis selection for 3D chart"},
	{chart.ErrInvalidKind, http.StatusBadRequest, ""},
	{chart.ErrInvalidAggregation, http.StatusBadRequest, ""},
	{insight.ErrNotFound, http.StatusNotFound, "No insights found for this file"},
	{errValidation, http.StatusBadRequest, ""},
}

// fail writes err. store.ErrNotFound uses notFound as the message; any
// unmapped error is logged and reported with internal.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound, internal string) {
	if errors.Is(err, store.ErrNotFound) {
		respond(w, r, http.StatusNotFound, envelope{Message: notFound})
		return
	}
	for _, e := range apiErrors {
		if errors.Is(err, e.err) {
			msg := e.message
			if msg == "" {
				msg = err.Error()
			}
			respond(w, r, e.status, envelope{Message: msg})
			return
		}
	}
	s.logger.ErrorContext(r.Context(), internal, "error", err, "user", userID(r))
	respond(w, r, http.StatusInternalServerError, envelope{Message: internal})
}
