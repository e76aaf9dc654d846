package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/klytics/sheetsight/internal/service"
)

var errValidation = errors.New("validation failed")

type chartRequest struct {
	FileID      string `json:"fileId" validate:"required"`
	ChartType   string `json:"chartType" validate:"required,oneof=bar line pie doughnut scatter radar scatter3d bar3d"`
	XAxis       string `json:"xAxis" validate:"required"`
	YAxis       string `json:"yAxis" validate:"required"`
	ZAxis       string `json:"zAxis"`
	Aggregation string `json:"aggregation" validate:"omitempty,oneof=none sum avg count min max"`
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Bind normalizes names before validation.
func (c *chartRequest) Bind(*http.Request) error {
	c.ChartType = strings.ToLower(strings.TrimSpace(c.ChartType))
	c.Aggregation = strings.ToLower(strings.TrimSpace(c.Aggregation))
	return nil
}

func (s *Server) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", errValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", errValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func (s *Server) generateChart(w http.ResponseWriter, r *http.Request) {
	var req chartRequest
	if err := render.Bind(r, &req); err != nil {
		respond(w, r, http.StatusBadRequest, envelope{Message: "Please provide fileId, chartType, xAxis, and yAxis"})
		return
	}
	if err := s.validateStruct(&req); err != nil {
		s.fail(w, r, err, "", "Error generating chart")
		return
	}

	c, err := s.svc.GenerateChart(r.Context(), userID(r), service.ChartInput{
		DatasetID:   req.FileID,
		Kind:        req.ChartType,
		XAxis:       req.XAxis,
		YAxis:       req.YAxis,
		ZAxis:       req.ZAxis,
		Aggregation: req.Aggregation,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.fail(w, r, err, "File not found", "Error generating chart")
		return
	}
	ok(w, r, http.StatusCreated, "Chart generated successfully", c)
}

func (s *Server) listCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := s.svc.Charts(r.Context(), userID(r), r.URL.Query().Get("fileId"))
	if err != nil {
		s.fail(w, r, err, "", "Error fetching charts")
		return
	}
	list(w, r, charts)
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Chart(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Chart not found", "Error fetching chart")
		return
	}
	ok(w, r, http.StatusOK, "", c)
}

func (s *Server) deleteChart(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteChart(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "Chart not found", "Error deleting chart")
		return
	}
	ok(w, r, http.StatusOK, "Chart deleted successfully", nil)
}
