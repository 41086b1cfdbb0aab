package handler

import "net/http"

// ListStops handles GET /stops.
func (s *Server) ListStops(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stopsToResponse(s.trips.StopDetails()))
}

// RefreshStops handles POST /stops/refresh.
func (s *Server) RefreshStops(w http.ResponseWriter, r *http.Request) {
	if err := s.trips.RefreshStops(r.Context()); err != nil {
		s.refreshFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.stopsToResponse(s.trips.StopDetails()))
}
