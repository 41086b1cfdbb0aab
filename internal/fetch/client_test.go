package fetch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-tracker/internal/domain"
	"github.com/pkordes/trip-tracker/internal/fetch"
	"github.com/pkordes/trip-tracker/internal/idseq"
)

const twoTrips = `[
  {
    "description": "Barcelona a Martorell",
    "driverName": "Alberto Morales",
    "route": "sdq{Fc}iLj@zR|W~TryCzvC??do@jkKeiDxjIccLhiFqiE` + "`" + `sAbgAq]jCoL",
    "status": "ongoing",
    "origin": {"address": "Metropolis:lab, Barcelona", "point": {"_latitude": 41.38074, "_longitude": 2.18594}},
    "stops": [{"point": {"_latitude": 41.37653, "_longitude": 2.17924}, "id": 1}, {"bogus": true}],
    "destination": {"address": "Seat HQ, Martorell", "point": {"_latitude": 41.49958, "_longitude": 1.90307}},
    "endTime": "2018-12-18T09:00:00.000Z",
    "startTime": "2018-12-18T08:00:00.000Z"
  },
  {
    "description": "Barcelona a Sant cugat",
    "driverName": "Joaquin Sabina",
    "route": "",
    "status": "scheduled",
    "origin": {"address": "Metropolis:lab, Barcelona", "point": {"_latitude": 41.38074, "_longitude": 2.18594}},
    "stops": null,
    "destination": {"address": "Sant Cugat Centre", "point": {"_latitude": 41.47386, "_longitude": 2.08351}},
    "endTime": "2018-12-18T08:45:00.000Z",
    "startTime": "2018-12-18T08:00:00.000Z"
  }
]`

const singleStop = `{
  "stopTime": "2018-12-18T08:10:00.000Z",
  "paid": true,
  "address": "Ramblas, Barcelona",
  "tripId": 1,
  "userName": "Manuel Gomez",
  "point": {"_latitude": 41.37653, "_longitude": 2.17924},
  "price": 1.5
}`

// ---- test doubles ----

type observation struct {
	resource string
	outcome  string
}

type fakeRecorder struct {
	mu      sync.Mutex
	fetches []observation
	dropped int
}

var _ fetch.Recorder = (*fakeRecorder)(nil)

func (r *fakeRecorder) ObserveFetch(resource, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, observation{resource, outcome})
}

func (r *fakeRecorder) ObserveDroppedStops(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped += n
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

var _ fetch.Doer = doerFunc(nil)

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
func (failingBody) Close() error             { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newClient(tripsURL, stopsURL string, opts ...fetch.Option) *fetch.Client {
	opts = append([]fetch.Option{fetch.WithLogger(quietLogger())}, opts...)
	return fetch.NewClient(fetch.Config{TripsURL: tripsURL, StopsURL: stopsURL}, opts...)
}

// ---- LoadTrips ----

func TestLoadTrips_AssignsIncreasingIDsAcrossCalls(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, twoTrips)
	c := newClient(srv.URL, srv.URL)

	first, err := c.LoadTrips(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, first[0].ID)
	assert.Equal(t, 2, first[1].ID)

	second, err := c.LoadTrips(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, 3, second[0].ID)
	assert.Equal(t, 4, second[1].ID)
}

func TestLoadTrips_ResetSequencesRestartsAtOne(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, twoTrips)
	c := newClient(srv.URL, srv.URL)

	_, err := c.LoadTrips(context.Background())
	require.NoError(t, err)

	c.ResetSequences()

	trips, err := c.LoadTrips(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, trips[0].ID)
	assert.Equal(t, 2, trips[1].ID)
}

func TestLoadTrips_DecodesLenientStops(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, twoTrips)
	rec := &fakeRecorder{}
	c := newClient(srv.URL, srv.URL, fetch.WithRecorder(rec))

	trips, err := c.LoadTrips(context.Background())
	require.NoError(t, err)

	require.Len(t, trips[0].Stops, 1)
	assert.Equal(t, 1, trips[0].Stops[0].ID)
	assert.NotNil(t, trips[1].Stops)
	assert.Empty(t, trips[1].Stops)
	assert.Equal(t, domain.TripStatusOngoing, trips[0].Status)

	assert.Equal(t, 1, rec.dropped)
	assert.Equal(t, []observation{{fetch.ResourceTrips, fetch.OutcomeOK}}, rec.fetches)
}

func TestLoadTrips_InvalidURL(t *testing.T) {
	_, hits := serve(t, http.StatusOK, twoTrips)

	cases := []string{
		"",
		"not a url",
		"ftp://example.com/trips.json",
		"http://",
		"/relative/trips.json",
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			rec := &fakeRecorder{}
			c := newClient(raw, raw, fetch.WithRecorder(rec))

			trips, err := c.LoadTrips(context.Background())
			require.Error(t, err)
			assert.Nil(t, trips)
			assert.ErrorIs(t, err, domain.ErrInvalidURL)
			assert.Equal(t, []observation{{fetch.ResourceTrips, fetch.OutcomeInvalidURL}}, rec.fetches)
		})
	}
	assert.Zero(t, *hits, "no request may be sent for an invalid URL")
}

func TestLoadTrips_TransportFailure(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	c := newClient("http://trips.invalid/trips.json", "", fetch.WithHTTPClient(doerFunc(
		func(*http.Request) (*http.Response, error) { return nil, cause },
	)))

	_, err := c.LoadTrips(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, domain.ErrDecodingFailed)
}

func TestLoadTrips_BodyReadFailure(t *testing.T) {
	c := newClient("http://trips.invalid/trips.json", "", fetch.WithHTTPClient(doerFunc(
		func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: failingBody{}}, nil
		},
	)))

	_, err := c.LoadTrips(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
}

func TestLoadTrips_ClosedServerIsRequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(url, url)
	_, err := c.LoadTrips(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
}

func TestLoadTrips_DecodingFailure(t *testing.T) {
	cases := map[string]string{
		"not json":         `<html>nope</html>`,
		"object not array": `{"description": "x"}`,
		"missing field":    `[{"description": "x"}]`,
		"unknown status":   strings.Replace(twoTrips, `"ongoing"`, `"teleporting"`, 1),
		"null":             `null`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := serve(t, http.StatusOK, body)
			rec := &fakeRecorder{}
			c := newClient(srv.URL, srv.URL, fetch.WithRecorder(rec))

			_, err := c.LoadTrips(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrDecodingFailed)
			assert.Equal(t, []observation{{fetch.ResourceTrips, fetch.OutcomeDecodingFailed}}, rec.fetches)
		})
	}
}

func TestLoadTrips_FailedDecodeConsumesNoIDs(t *testing.T) {
	bad, _ := serve(t, http.StatusOK, strings.Replace(twoTrips, `"scheduled"`, `"lost"`, 1))
	good, _ := serve(t, http.StatusOK, twoTrips)
	tripIDs := idseq.New()

	c := newClient(bad.URL, "", fetch.WithSequences(tripIDs, idseq.New()))
	_, err := c.LoadTrips(context.Background())
	require.Error(t, err)

	c = newClient(good.URL, "", fetch.WithSequences(tripIDs, idseq.New()))
	trips, err := c.LoadTrips(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, trips[0].ID)
	assert.Equal(t, 2, trips[1].ID)
}

func TestLoadTrips_NonSuccessStatusWithValidBody(t *testing.T) {
	srv, _ := serve(t, http.StatusNotFound, twoTrips)
	c := newClient(srv.URL, srv.URL)

	trips, err := c.LoadTrips(context.Background())
	require.NoError(t, err, "status is diagnostic only")
	assert.Len(t, trips, 2)
}

func TestLoadTrips_NonSuccessStatusReportedOnDecodeFailure(t *testing.T) {
	srv, _ := serve(t, http.StatusForbidden, `<Error>AccessDenied</Error>`)
	c := newClient(srv.URL, srv.URL)

	_, err := c.LoadTrips(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDecodingFailed)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestLoadTrips_HonoursContext(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, twoTrips)
	c := newClient(srv.URL, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.LoadTrips(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

// ---- LoadStops ----

func TestLoadStops_Array(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, "["+singleStop+","+singleStop+"]")
	c := newClient(srv.URL, srv.URL)

	details, err := c.LoadStops(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, 1, details[0].ID)
	assert.Equal(t, 2, details[1].ID)
	assert.Equal(t, "Manuel Gomez", details[0].UserName)

	again, err := c.LoadStops(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, again[0].ID)
}

func TestLoadStops_SingleObject(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, singleStop)
	c := newClient(srv.URL, srv.URL)

	details, err := c.LoadStops(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, 1, details[0].ID)
	assert.Equal(t, 1, details[0].TripID)
	assert.InDelta(t, 1.5, details[0].Price, 1e-9)
}

func TestLoadStops_TripAndStopSequencesAreIndependent(t *testing.T) {
	trips, _ := serve(t, http.StatusOK, twoTrips)
	stops, _ := serve(t, http.StatusOK, singleStop)
	c := newClient(trips.URL, stops.URL)

	_, err := c.LoadTrips(context.Background())
	require.NoError(t, err)

	details, err := c.LoadStops(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, details[0].ID)
}

func TestLoadStops_Errors(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		c := newClient("", "mailto:someone@example.com")
		_, err := c.LoadStops(context.Background())
		assert.ErrorIs(t, err, domain.ErrInvalidURL)
	})

	t.Run("decoding", func(t *testing.T) {
		srv, _ := serve(t, http.StatusOK, `[{"paid": "yes"}]`)
		rec := &fakeRecorder{}
		c := newClient(srv.URL, srv.URL, fetch.WithRecorder(rec))

		_, err := c.LoadStops(context.Background())
		assert.ErrorIs(t, err, domain.ErrDecodingFailed)
		assert.Equal(t, []observation{{fetch.ResourceStops, fetch.OutcomeDecodingFailed}}, rec.fetches)
	})

	t.Run("transport", func(t *testing.T) {
		c := newClient("", "http://stops.invalid/", fetch.WithHTTPClient(doerFunc(
			func(*http.Request) (*http.Response, error) { return nil, errors.New("boom") },
		)))
		_, err := c.LoadStops(context.Background())
		assert.ErrorIs(t, err, domain.ErrRequestFailed)
	})
}
