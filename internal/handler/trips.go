package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-tracker/internal/domain"
	"github.com/pkordes/trip-tracker/internal/service"
)

// GetState handles GET /state.
func (s *Server) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stateToResponse(s.trips.Snapshot()))
}

// ListTrips handles GET /trips.
func (s *Server) ListTrips(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tripsToResponse(s.trips.Trips()))
}

// RefreshTrips handles POST /trips/refresh. On success it returns the new
// list; on failure the previous list stays in place and the store's error
// message is returned.
func (s *Server) RefreshTrips(w http.ResponseWriter, r *http.Request) {
	if err := s.trips.RefreshTrips(r.Context()); err != nil {
		s.refreshFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tripsToResponse(s.trips.Trips()))
}

// SelectTrip handles POST /trips/{tripID}/select. Selecting the selected trip
// again deselects it.
func (s *Server) SelectTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := s.lookupTrip(w, r)
	if !ok {
		return
	}
	s.trips.SelectTrip(trip)
	writeJSON(w, http.StatusOK, s.stateToResponse(s.trips.Snapshot()))
}

// SelectStop handles POST /trips/{tripID}/stops/{ordinal}/select.
// An ordinal without a matching stop detail is not an error: the popup opens
// with no selection.
func (s *Server) SelectStop(w http.ResponseWriter, r *http.Request) {
	trip, ok := s.lookupTrip(w, r)
	if !ok {
		return
	}
	ordinal, err := strconv.Atoi(chi.URLParam(r, "ordinal"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody("ordinal must be an integer"))
		return
	}
	s.trips.SelectStop(ordinal, trip)
	writeJSON(w, http.StatusOK, s.stateToResponse(s.trips.Snapshot()))
}

// DismissStopPopup handles DELETE /stop-popup.
func (s *Server) DismissStopPopup(w http.ResponseWriter, _ *http.Request) {
	s.trips.DismissStopPopup()
	writeJSON(w, http.StatusOK, s.stateToResponse(s.trips.Snapshot()))
}

// SetContactForm handles PUT /contact-form.
func (s *Server) SetContactForm(w http.ResponseWriter, r *http.Request) {
	var req ContactFormRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Visible == nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody("visible is required"))
		return
	}
	s.trips.SetContactFormVisible(*req.Visible)
	writeJSON(w, http.StatusOK, s.stateToResponse(s.trips.Snapshot()))
}

// lookupTrip resolves the {tripID} path parameter against the loaded trips,
// writing the error response itself when it cannot.
func (s *Server) lookupTrip(w http.ResponseWriter, r *http.Request) (domain.Trip, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody("tripID must be an integer"))
		return domain.Trip{}, false
	}
	trip, err := s.trips.Trip(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, notFoundBody("trip not found"))
			return domain.Trip{}, false
		}
		s.internalError(w, r, err)
		return domain.Trip{}, false
	}
	return trip, true
}

// refreshFailed reports a failed refresh. The message comes from err itself;
// the store's error message may already belong to a later refresh.
func (s *Server) refreshFailed(w http.ResponseWriter, err error) {
	status, code := fetchFailure(err)
	msg := err.Error()
	var rerr *service.RefreshError
	if errors.As(err, &rerr) {
		msg = rerr.Message
	}
	writeError(w, status, errorBody(code, msg))
}
