package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-tracker/internal/domain"
	"github.com/pkordes/trip-tracker/internal/handler"
	"github.com/pkordes/trip-tracker/internal/service"
)

// mockTripStorer is a test double for handler.TripStorer.
// Set only the method fields your test needs.
type mockTripStorer struct {
	refreshTrips       func(ctx context.Context) error
	refreshStops       func(ctx context.Context) error
	selectTrip         func(trip domain.Trip)
	selectStop         func(ordinal int, trip domain.Trip)
	dismissStopPopup   func()
	setContactFormShow func(visible bool)
	trip               func(id int) (domain.Trip, error)
	trips              func() []domain.Trip
	stopDetails        func() []domain.StopDetail
	snapshot           func() service.State
}

func (m *mockTripStorer) RefreshTrips(ctx context.Context) error { return m.refreshTrips(ctx) }
func (m *mockTripStorer) RefreshStops(ctx context.Context) error { return m.refreshStops(ctx) }
func (m *mockTripStorer) SelectTrip(t domain.Trip)               { m.selectTrip(t) }
func (m *mockTripStorer) SelectStop(ordinal int, t domain.Trip)  { m.selectStop(ordinal, t) }
func (m *mockTripStorer) DismissStopPopup()                      { m.dismissStopPopup() }
func (m *mockTripStorer) SetContactFormVisible(visible bool)     { m.setContactFormShow(visible) }
func (m *mockTripStorer) Trip(id int) (domain.Trip, error)       { return m.trip(id) }
func (m *mockTripStorer) Trips() []domain.Trip                   { return m.trips() }
func (m *mockTripStorer) StopDetails() []domain.StopDetail       { return m.stopDetails() }
func (m *mockTripStorer) Snapshot() service.State                { return m.snapshot() }

// compile-time check: mockTripStorer must satisfy handler.TripStorer.
var _ handler.TripStorer = (*mockTripStorer)(nil)

// mockReportStorer is a test double for handler.ReportStorer.
type mockReportStorer struct {
	submit     func(ctx context.Context, in service.ReportInput) (domain.ContactReport, error)
	reports    func() []domain.ContactReport
	delete     func(ctx context.Context, index int) error
	deleteMany func(ctx context.Context, indices []int) error
}

func (m *mockReportStorer) Submit(ctx context.Context, in service.ReportInput) (domain.ContactReport, error) {
	return m.submit(ctx, in)
}
func (m *mockReportStorer) Reports() []domain.ContactReport { return m.reports() }
func (m *mockReportStorer) Delete(ctx context.Context, index int) error {
	return m.delete(ctx, index)
}
func (m *mockReportStorer) DeleteMany(ctx context.Context, indices []int) error {
	return m.deleteMany(ctx, indices)
}

var _ handler.ReportStorer = (*mockReportStorer)(nil)

// The real stores also satisfy the handler interfaces.
var (
	_ handler.TripStorer   = (*service.TripStore)(nil)
	_ handler.ReportStorer = (*service.ReportStore)(nil)
)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks the same way main.go
// mounts it in production. Either mock may be nil when a test does not touch it.
func newHTTPHandler(trips handler.TripStorer, reports handler.ReportStorer, opts ...handler.Option) http.Handler {
	if trips == nil {
		trips = &mockTripStorer{}
	}
	if reports == nil {
		reports = &mockReportStorer{}
	}
	return handler.NewServer(trips, reports, opts...).Routes()
}

func serve(h http.Handler, method, target string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) handler.ErrorDetail {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	resp := decode[handler.ErrorResponse](t, rec)
	require.Equal(t, code, resp.Error.Code)
	return resp.Error
}

func tripFixture(id int) domain.Trip {
	return domain.Trip{
		ID:          id,
		Description: "Barcelona a Martorell",
		DriverName:  "Alberto Morales",
		Route:       "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
		Status:      domain.TripStatusOngoing,
		Origin: domain.Location{
			Address: "Metropolis:lugar de encuentro, Av. de Sarrià, 08029 Barcelona",
			Point:   domain.Point{Latitude: 41.38074, Longitude: 2.18594},
		},
		Destination: domain.Location{
			Address: "Seat HQ, Carrer de Joan Maragall, 08760 Martorell",
			Point:   domain.Point{Latitude: 41.49958, Longitude: 1.90307},
		},
		Stops: []domain.Stop{
			{ID: 1, Point: &domain.Point{Latitude: 41.37653, Longitude: 2.15287}},
		},
		StartTime: "2018-12-18T08:00:00.000Z",
		EndTime:   "2018-12-18T09:00:00.000Z",
	}
}

func stopFixture(id, tripID int) domain.StopDetail {
	return domain.StopDetail{
		ID:       id,
		StopTime: "2018-12-18T08:10:00.000Z",
		Paid:     true,
		Address:  "Ramblas, Barcelona",
		TripID:   tripID,
		UserName: "Manuel Gomez",
		Point:    domain.Point{Latitude: 41.37653, Longitude: 2.15287},
		Price:    1.5,
	}
}

func reportFixture() domain.ContactReport {
	phone := "+34 600 000 000"
	return domain.ContactReport{
		ID:          uuid.New(),
		Name:        "Ana",
		Surname:     "Garcia",
		Email:       "ana@example.com",
		Phone:       &phone,
		ReportDate:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Description: "Driver skipped a stop",
	}
}

// ---- routing ---------------------------------------------------------------

func TestRoutes_unknownRoute_404(t *testing.T) {
	rec := serve(newHTTPHandler(nil, nil), http.MethodGet, "/nope", nil)

	requireError(t, rec, http.StatusNotFound, "not_found")
}

func TestRoutes_wrongMethod_405(t *testing.T) {
	rec := serve(newHTTPHandler(nil, nil), http.MethodDelete, "/trips/", nil)

	requireError(t, rec, http.StatusMethodNotAllowed, "method_not_allowed")
}

func TestRoutes_metricsMountedOnlyWhenConfigured(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tracker_fetches_total 0\n"))
	})

	rec := serve(newHTTPHandler(nil, nil, handler.WithMetrics(metrics)), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "tracker_fetches_total")

	rec = serve(newHTTPHandler(nil, nil), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func bytesBuffer(s string) *bytes.Buffer { return bytes.NewBufferString(s) }
