// Package handler exposes the trip and report stores over HTTP.
// Handlers are methods on Server; Routes mounts them on a chi router.
// Methods are split into resource files (trips.go, reports.go, ...) but all
// share the same Server struct so they can reach its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-tracker/internal/domain"
	"github.com/pkordes/trip-tracker/internal/service"
)

// TripStorer is the view-model surface the trip handlers depend on.
// *service.TripStore implements it; tests inject a mock.
type TripStorer interface {
	RefreshTrips(ctx context.Context) error
	RefreshStops(ctx context.Context) error
	SelectTrip(trip domain.Trip)
	SelectStop(ordinal int, trip domain.Trip)
	DismissStopPopup()
	SetContactFormVisible(visible bool)
	Trip(id int) (domain.Trip, error)
	Trips() []domain.Trip
	StopDetails() []domain.StopDetail
	Snapshot() service.State
}

// ReportStorer is the contact report surface. *service.ReportStore implements it.
type ReportStorer interface {
	Submit(ctx context.Context, in service.ReportInput) (domain.ContactReport, error)
	Reports() []domain.ContactReport
	Delete(ctx context.Context, index int) error
	DeleteMany(ctx context.Context, indices []int) error
}

// Server holds the handler dependencies.
type Server struct {
	trips   TripStorer
	reports ReportStorer
	metrics http.Handler
	loc     *time.Location
	log     *slog.Logger
}

// Option customises a Server.
type Option func(*Server)

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLocation sets the zone stop times are displayed in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripStorer, reports ReportStorer, opts ...Option) *Server {
	s := &Server{
		trips:   trips,
		reports: reports,
		loc:     time.UTC,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns a router serving every endpoint. Cross-cutting middleware
// (request ids, logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/state", s.GetState)
	r.Put("/contact-form", s.SetContactForm)
	r.Delete("/stop-popup", s.DismissStopPopup)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/refresh", s.RefreshTrips)
		r.Post("/{tripID}/select", s.SelectTrip)
		r.Post("/{tripID}/stops/{ordinal}/select", s.SelectStop)
	})

	r.Route("/stops", func(r chi.Router) {
		r.Get("/", s.ListStops)
		r.Post("/refresh", s.RefreshStops)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.ListReports)
		r.Post("/", s.CreateReport)
		r.Post("/delete", s.DeleteReports)
		r.Delete("/{index}", s.DeleteReport)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, notFoundBody("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method not allowed"))
	})

	return r
}
