// Package fetch loads trips and stop details from the upstream JSON endpoints.
// Every failure is mapped onto the closed taxonomy in the domain package:
// domain.ErrInvalidURL, domain.ErrRequestFailed or domain.ErrDecodingFailed.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pkordes/trip-tracker/internal/domain"
	"github.com/pkordes/trip-tracker/internal/idseq"
)

// Default endpoints of the static trip feed.
const (
	DefaultTripsURL = "https://sandbox-giravolta-static.s3.eu-west-1.amazonaws.com/tech-test/trips.json"
	DefaultStopsURL = "https://sandbox-giravolta-static.s3.eu-west-1.amazonaws.com/tech-test/stops.json"
)

// Resource names used in logs and metrics.
const (
	ResourceTrips = "trips"
	ResourceStops = "stops"
)

// Fetch outcomes reported to a Recorder.
const (
	OutcomeOK             = "ok"
	OutcomeInvalidURL     = "invalid_url"
	OutcomeRequestFailed  = "request_failed"
	OutcomeDecodingFailed = "decoding_failed"
)

// previewLen caps the payload preview written at debug level.
const previewLen = 500

// Doer is the part of *http.Client the fetch client needs.
// Tests substitute a fake transport through it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives fetch telemetry. metrics.Collector implements it.
type Recorder interface {
	ObserveFetch(resource, outcome string, elapsed time.Duration)
	ObserveDroppedStops(n int)
}

// Config holds the two endpoint URLs.
type Config struct {
	TripsURL string
	StopsURL string
}

// Client fetches and decodes the trip feed. It owns one id sequence per
// entity kind, so ids keep increasing across calls until ResetSequences.
type Client struct {
	cfg      Config
	http     Doer
	log      *slog.Logger
	recorder Recorder

	tripIDs *idseq.Sequence
	stopIDs *idseq.Sequence
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRecorder attaches a telemetry sink.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithSequences injects the trip and stop-detail id sequences, e.g. to share
// them between clients or inspect them in tests.
func WithSequences(trips, stops *idseq.Sequence) Option {
	return func(c *Client) {
		c.tripIDs = trips
		c.stopIDs = stops
	}
}

// NewClient constructs a Client for cfg. The default transport is an
// http.Client with no timeout of its own; callers bound requests with ctx.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{},
		log:      slog.Default(),
		recorder: nopRecorder{},
		tripIDs:  idseq.New(),
		stopIDs:  idseq.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadTrips fetches and decodes the trips endpoint. Each call draws fresh ids:
// two calls against the same payload of two trips yield ids 1,2 then 3,4.
func (c *Client) LoadTrips(ctx context.Context) ([]domain.Trip, error) {
	start := time.Now()

	body, status, err := c.get(ctx, c.cfg.TripsURL)
	if err != nil {
		c.observe(ResourceTrips, err, start)
		return nil, fmt.Errorf("fetch.Client.LoadTrips: %w", err)
	}
	c.preview(ResourceTrips, body)

	trips, dropped, err := domain.DecodeTrips(body, c.tripIDs, c.log)
	if err != nil {
		err = decodingFailed(err, status)
		c.observe(ResourceTrips, err, start)
		return nil, fmt.Errorf("fetch.Client.LoadTrips: %w", err)
	}

	c.recorder.ObserveDroppedStops(dropped)
	c.observe(ResourceTrips, nil, start)
	c.log.Info("loaded trips", "count", len(trips), "dropped_stops", dropped)
	return trips, nil
}

// LoadStops fetches and decodes the stops endpoint, which may serve either an
// array of stop details or a single object.
func (c *Client) LoadStops(ctx context.Context) ([]domain.StopDetail, error) {
	start := time.Now()

	body, status, err := c.get(ctx, c.cfg.StopsURL)
	if err != nil {
		c.observe(ResourceStops, err, start)
		return nil, fmt.Errorf("fetch.Client.LoadStops: %w", err)
	}
	c.preview(ResourceStops, body)

	details, err := domain.DecodeStopDetails(body, c.stopIDs)
	if err != nil {
		err = decodingFailed(err, status)
		c.observe(ResourceStops, err, start)
		return nil, fmt.Errorf("fetch.Client.LoadStops: %w", err)
	}

	c.observe(ResourceStops, nil, start)
	c.log.Info("loaded stops", "count", len(details))
	return details, nil
}

// ResetSequences restarts both id sequences at 1. Tests and tooling only.
func (c *Client) ResetSequences() {
	c.tripIDs.Reset()
	c.stopIDs.Reset()
}

// get validates rawURL and performs the GET. The status code is returned
// for diagnostics only; a non-2xx body still goes through the decoder.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", domain.ErrInvalidURL, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", domain.ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %w", domain.ErrRequestFailed, err)
	}
	return body, resp.StatusCode, nil
}

// parseURL accepts only absolute http(s) URLs with a host.
func parseURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty URL", domain.ErrInvalidURL)
	}
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", domain.ErrInvalidURL, rawURL)
	}
	return u, nil
}

func decodingFailed(err error, status int) error {
	if status != 0 && (status < 200 || status > 299) {
		return fmt.Errorf("%w: HTTP %d: %w", domain.ErrDecodingFailed, status, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrDecodingFailed, err)
}

func (c *Client) observe(resource string, err error, start time.Time) {
	c.recorder.ObserveFetch(resource, outcomeOf(err), time.Since(start))
	if err != nil {
		c.log.Warn("fetch failed", "resource", resource, "error", err)
	}
}

func (c *Client) preview(resource string, body []byte) {
	if !c.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	p := body
	if len(p) > previewLen {
		p = p[:previewLen]
	}
	c.log.Debug("payload preview", "resource", resource, "bytes", len(body), "preview", string(p))
}

// outcomeOf maps an error onto its taxonomy label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrInvalidURL):
		return OutcomeInvalidURL
	case errors.Is(err, domain.ErrRequestFailed):
		return OutcomeRequestFailed
	default:
		return OutcomeDecodingFailed
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(string, string, time.Duration) {}
func (nopRecorder) ObserveDroppedStops(int)                    {}
