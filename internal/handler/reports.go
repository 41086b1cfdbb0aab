package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-tracker/internal/domain"
)

// ListReports handles GET /reports.
func (s *Server) ListReports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, reportsToResponse(s.reports.Reports()))
}

// CreateReport handles POST /reports.
func (s *Server) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := s.reports.Submit(r.Context(), requestToReportInput(req))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, validationBody(err))
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reportToResponse(created))
}

// DeleteReport handles DELETE /reports/{index}. An index outside the list is a
// no-op and still answers 204.
func (s *Server) DeleteReport(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody("index must be an integer"))
		return
	}
	if err := s.reports.Delete(r.Context(), index); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteReports handles POST /reports/delete with {"indices":[...]}.
func (s *Server) DeleteReports(w http.ResponseWriter, r *http.Request) {
	var req DeleteReportsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Indices == nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody("indices is required"))
		return
	}
	if err := s.reports.DeleteMany(r.Context(), *req.Indices); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
