package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) generateInsight(w http.ResponseWriter, r *http.Request) {
	rec, created, err := s.svc.GenerateInsight(r.Context(), userID(r), chi.URLParam(r, "fileId"))
	if err != nil {
		s.fail(w, r, err, "File not found", "Error generating insights")
		return
	}
	if !created {
		ok(w, r, http.StatusOK, "Insights already generated", rec)
		return
	}
	ok(w, r, http.StatusCreated, "Insights generated successfully", rec)
}

func (s *Server) getInsight(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Insight(r.Context(), userID(r), chi.URLParam(r, "fileId"))
	if err != nil {
		s.fail(w, r, err, "No insights found for this file", "Error fetching insight")
		return
	}
	ok(w, r, http.StatusOK, "", rec)
}

func (s *Server) listInsights(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Insights(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "", "Error fetching insights")
		return
	}
	list(w, r, recs)
}
