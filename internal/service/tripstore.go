// Package service holds the tracker's state machines. TripStore owns the trip
// and stop collections together with the selection state derived from them;
// ReportStore owns the contact report list. Neither knows about HTTP, and both
// depend on interfaces rather than concrete fetch or storage implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkordes/trip-tracker/internal/domain"
	"github.com/pkordes/trip-tracker/internal/geo"
)

// TripFetcher loads the two upstream collections. *fetch.Client implements it.
type TripFetcher interface {
	LoadTrips(ctx context.Context) ([]domain.Trip, error)
	LoadStops(ctx context.Context) ([]domain.StopDetail, error)
}

// RefreshError is returned when a refresh fails. Message is the same text the
// store records as its error message.
type RefreshError struct {
	Op      string
	Message string
	Err     error
}

func (e *RefreshError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *RefreshError) Unwrap() error { return e.Err }

// State is a point-in-time copy of everything TripStore tracks.
type State struct {
	Trips              []domain.Trip       `json:"trips"`
	SelectedTrip       *domain.Trip        `json:"selectedTrip"`
	StopDetails        []domain.StopDetail `json:"stopDetails"`
	SelectedStopDetail *domain.StopDetail  `json:"selectedStopDetail"`
	Region             domain.Region       `json:"region"`
	RouteCoordinates   []domain.Point      `json:"routeCoordinates"`
	ErrorMessage       *string             `json:"errorMessage"`
	Loading            bool                `json:"loading"`
	ContactFormVisible bool                `json:"contactFormVisible"`
	StopPopupVisible   bool                `json:"stopPopupVisible"`
}

// TripStore is the view-model core: the current collections, the selected trip
// and stop, the map region and the UI flags. All methods are safe for
// concurrent use; the network round trip of a refresh runs outside the lock.
type TripStore struct {
	fetcher TripFetcher
	log     *slog.Logger

	mu                 sync.RWMutex
	trips              []domain.Trip
	selectedTrip       *domain.Trip
	stopDetails        []domain.StopDetail
	selectedStopDetail *domain.StopDetail
	region             domain.Region
	routeCoordinates   []domain.Point
	errorMessage       *string
	inFlight           int
	contactFormVisible bool
	stopPopupVisible   bool
}

// NewTripStore constructs an empty TripStore framed on the default region.
func NewTripStore(fetcher TripFetcher, logger *slog.Logger) *TripStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TripStore{
		fetcher:     fetcher,
		log:         logger,
		trips:       []domain.Trip{},
		stopDetails: []domain.StopDetail{},
		region:      domain.DefaultRegion(),
	}
}

// RefreshTrips reloads the trip list. On failure the previous list is kept and
// the error message is set; the error is also returned to the caller.
func (s *TripStore) RefreshTrips(ctx context.Context) error {
	s.beginLoad()

	trips, err := s.fetcher.LoadTrips(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if err != nil {
		msg := s.setError("Failed to load trips", err)
		return &RefreshError{Op: "service.TripStore.RefreshTrips", Message: msg, Err: err}
	}
	s.trips = trips
	return nil
}

// RefreshStops reloads the stop details. Stops may land before or after the
// trips they reference; association happens lazily in SelectStop.
func (s *TripStore) RefreshStops(ctx context.Context) error {
	s.beginLoad()

	details, err := s.fetcher.LoadStops(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if err != nil {
		msg := s.setError("Failed to load stops", err)
		return &RefreshError{Op: "service.TripStore.RefreshStops", Message: msg, Err: err}
	}
	s.stopDetails = details
	return nil
}

// SelectTrip makes trip the selected trip and frames its route. Selecting the
// trip that is already selected deselects it and returns to the default region.
// A route that decodes to no points leaves coordinates and region untouched.
func (s *TripStore) SelectTrip(trip domain.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedTrip != nil && s.selectedTrip.ID == trip.ID {
		s.selectedTrip = nil
		s.routeCoordinates = nil
		s.region = domain.DefaultRegion()
		return
	}

	selected := trip
	s.selectedTrip = &selected

	points := geo.DecodeRoute(trip.Route)
	region, ok := geo.FitRegion(points)
	if !ok {
		s.log.Debug("route has no points, keeping current region", "trip_id", trip.ID)
		return
	}
	s.region = region
	s.routeCoordinates = points
}

// SelectStop picks the ordinal-th (1-based) stop detail belonging to trip and
// opens the stop popup. When there is no such detail the selection is cleared
// and the popup still opens, showing an unavailable state.
func (s *TripStore) SelectStop(ordinal int, trip domain.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := domain.FilterByTrip(s.stopDetails, trip.ID)
	if ordinal >= 1 && ordinal <= len(matching) {
		d := matching[ordinal-1]
		s.selectedStopDetail = &d
	} else {
		s.selectedStopDetail = nil
	}
	s.stopPopupVisible = true
}

// DismissStopPopup closes the popup and clears the selected stop detail.
func (s *TripStore) DismissStopPopup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopPopupVisible = false
	s.selectedStopDetail = nil
}

func (s *TripStore) SetContactFormVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contactFormVisible = visible
}

// Trip looks up a trip of the current list by id.
// Returns domain.ErrNotFound when no such trip is loaded.
func (s *TripStore) Trip(id int) (domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.trips {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Trip{}, fmt.Errorf("service.TripStore.Trip %d: %w", id, domain.ErrNotFound)
}

func (s *TripStore) Trips() []domain.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Trip{}, s.trips...)
}

func (s *TripStore) StopDetails() []domain.StopDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.StopDetail{}, s.stopDetails...)
}

// Snapshot copies the whole state. Collections are copied at the slice level;
// decoded entities are never mutated, so sharing their inner slices is safe.
func (s *TripStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Trips:              append([]domain.Trip{}, s.trips...),
		StopDetails:        append([]domain.StopDetail{}, s.stopDetails...),
		Region:             s.region,
		RouteCoordinates:   append([]domain.Point{}, s.routeCoordinates...),
		Loading:            s.inFlight > 0,
		ContactFormVisible: s.contactFormVisible,
		StopPopupVisible:   s.stopPopupVisible,
	}
	if s.selectedTrip != nil {
		t := *s.selectedTrip
		st.SelectedTrip = &t
	}
	if s.selectedStopDetail != nil {
		d := *s.selectedStopDetail
		st.SelectedStopDetail = &d
	}
	if s.errorMessage != nil {
		m := *s.errorMessage
		st.ErrorMessage = &m
	}
	return st
}

// beginLoad marks a refresh as started. Loading stays true while any refresh
// is still running, so overlapping trip and stop loads report correctly.
func (s *TripStore) beginLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
	s.errorMessage = nil
}

// setError must be called with mu held.
func (s *TripStore) setError(prefix string, err error) string {
	msg := prefix + ": " + err.Error()
	s.errorMessage = &msg
	s.log.Warn("refresh failed", "error", err)
	return msg
}
