package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/pkordes/trip-tracker/internal/idseq"
)

// DecodeTrips decodes a trips payload (a JSON array of trips).
//
// Every trip field except "stops" is required and any failure aborts the whole
// batch. The "stops" list is lenient: a missing or non-list value becomes an
// empty list, and elements that are not valid stops are skipped and logged.
// Surviving stops are numbered 1..n within their own trip.
//
// Trip ids are drawn from ids in array order once the whole batch has parsed,
// so a failed batch consumes no ids. dropped counts the skipped stop elements.
func DecodeTrips(data []byte, ids *idseq.Sequence, logger *slog.Logger) (trips []Trip, dropped int, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	elems, err := rawArray(data)
	if err != nil {
		return nil, 0, fmt.Errorf("trips: %w", err)
	}

	trips = make([]Trip, 0, len(elems))
	for i, elem := range elems {
		var w wireTrip
		if err := json.Unmarshal(elem, &w); err != nil {
			return nil, 0, fmt.Errorf("trips[%d]: %w", i, err)
		}
		trip, err := w.toTrip()
		if err != nil {
			return nil, 0, fmt.Errorf("trips[%d]: %w", i, err)
		}

		stops, skipped := decodeStops(w.Stops, i, logger)
		trip.Stops = stops
		dropped += skipped
		trips = append(trips, trip)
	}

	for i := range trips {
		trips[i].ID = ids.Next()
	}
	return trips, dropped, nil
}

// DecodeStopDetails decodes a stops payload. The endpoint serves either an
// array of stop details or a single object, so the array shape is tried first
// and the single-object shape second. When both fail the array attempt's error
// is returned. Unlike trip stops, decoding is all-or-nothing.
//
// Ids are drawn from ids in array order once the payload has parsed.
func DecodeStopDetails(data []byte, ids *idseq.Sequence) ([]StopDetail, error) {
	details, arrErr := decodeStopDetailArray(data)
	if arrErr != nil {
		single, objErr := decodeStopDetail(data)
		if objErr != nil {
			return nil, fmt.Errorf("stops: %w", arrErr)
		}
		details = []StopDetail{single}
	}

	for i := range details {
		details[i].ID = ids.Next()
	}
	return details, nil
}

// --- trips ------------------------------------------------------------------

// wireTrip mirrors the feed's trip object. Pointers distinguish a missing key
// from a zero value; the feed never carries a trip id.
type wireTrip struct {
	Description *string         `json:"description"`
	DriverName  *string         `json:"driverName"`
	Route       *string         `json:"route"`
	Status      *TripStatus     `json:"status"`
	Origin      *Location       `json:"origin"`
	Stops       json.RawMessage `json:"stops"`
	Destination *Location       `json:"destination"`
	EndTime     *string         `json:"endTime"`
	StartTime   *string         `json:"startTime"`
}

func (w wireTrip) toTrip() (Trip, error) {
	switch {
	case w.Description == nil:
		return Trip{}, missingField("description")
	case w.DriverName == nil:
		return Trip{}, missingField("driverName")
	case w.Route == nil:
		return Trip{}, missingField("route")
	case w.Status == nil:
		return Trip{}, missingField("status")
	case w.Origin == nil:
		return Trip{}, missingField("origin")
	case w.Destination == nil:
		return Trip{}, missingField("destination")
	case w.EndTime == nil:
		return Trip{}, missingField("endTime")
	case w.StartTime == nil:
		return Trip{}, missingField("startTime")
	}
	return Trip{
		Description: *w.Description,
		DriverName:  *w.DriverName,
		Route:       *w.Route,
		Status:      *w.Status,
		Origin:      *w.Origin,
		Destination: *w.Destination,
		EndTime:     *w.EndTime,
		StartTime:   *w.StartTime,
	}, nil
}

// decodeStops parses a trip's "stops" value one element at a time.
// It never fails: bad elements are logged and counted instead.
func decodeStops(raw json.RawMessage, tripIndex int, logger *slog.Logger) ([]Stop, int) {
	stops := []Stop{}
	if len(raw) == 0 || isNull(raw) {
		return stops, 0
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		logger.Warn("stops is not a list, treating as empty",
			"trip_index", tripIndex,
			"error", err,
		)
		return stops, 0
	}

	ordinals := idseq.New()
	dropped := 0
	for j, elem := range elems {
		stop, err := decodeStop(elem)
		if err != nil {
			dropped++
			logger.Warn("dropping invalid stop",
				"trip_index", tripIndex,
				"stop_index", j,
				"error", err,
			)
			continue
		}
		stop.ID = ordinals.Next()
		stops = append(stops, stop)
	}
	return stops, dropped
}

// decodeStop accepts an object carrying a non-null "id" or "point".
// The wire id only has to be a number; the ordinal replaces it.
func decodeStop(elem json.RawMessage) (Stop, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return Stop{}, fmt.Errorf("stop is not an object: %w", err)
	}

	idRaw, hasID := fields["id"]
	pointRaw, hasPoint := fields["point"]
	hasID = hasID && !isNull(idRaw)
	hasPoint = hasPoint && !isNull(pointRaw)
	if !hasID && !hasPoint {
		return Stop{}, errors.New("stop has neither id nor point")
	}

	if hasID {
		var n float64
		if err := json.Unmarshal(idRaw, &n); err != nil {
			return Stop{}, fmt.Errorf("stop id: %w", err)
		}
	}

	var stop Stop
	if hasPoint {
		var p Point
		if err := json.Unmarshal(pointRaw, &p); err != nil {
			return Stop{}, fmt.Errorf("stop point: %w", err)
		}
		stop.Point = &p
	}
	return stop, nil
}

// --- stop details -----------------------------------------------------------

// wireStopDetail takes tripId as a float so integral values written as 1.0
// are accepted.
type wireStopDetail struct {
	StopTime *string  `json:"stopTime"`
	Paid     *bool    `json:"paid"`
	Address  *string  `json:"address"`
	TripID   *float64 `json:"tripId"`
	UserName *string  `json:"userName"`
	Point    *Point   `json:"point"`
	Price    *float64 `json:"price"`
}

func decodeStopDetailArray(data []byte) ([]StopDetail, error) {
	elems, err := rawArray(data)
	if err != nil {
		return nil, err
	}
	details := make([]StopDetail, 0, len(elems))
	for i, elem := range elems {
		d, err := decodeStopDetail(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		details = append(details, d)
	}
	return details, nil
}

func decodeStopDetail(data []byte) (StopDetail, error) {
	if isNull(data) {
		return StopDetail{}, errors.New("stop detail is null")
	}
	var w wireStopDetail
	if err := json.Unmarshal(data, &w); err != nil {
		return StopDetail{}, err
	}
	switch {
	case w.StopTime == nil:
		return StopDetail{}, missingField("stopTime")
	case w.Paid == nil:
		return StopDetail{}, missingField("paid")
	case w.Address == nil:
		return StopDetail{}, missingField("address")
	case w.TripID == nil:
		return StopDetail{}, missingField("tripId")
	case w.UserName == nil:
		return StopDetail{}, missingField("userName")
	case w.Point == nil:
		return StopDetail{}, missingField("point")
	case w.Price == nil:
		return StopDetail{}, missingField("price")
	case *w.TripID != math.Trunc(*w.TripID) || math.Abs(*w.TripID) > math.MaxInt32:
		return StopDetail{}, fmt.Errorf("tripId: %v is not an integer", *w.TripID)
	}
	return StopDetail{
		StopTime: *w.StopTime,
		Paid:     *w.Paid,
		Address:  *w.Address,
		TripID:   int(*w.TripID),
		UserName: *w.UserName,
		Point:    *w.Point,
		Price:    *w.Price,
	}, nil
}

// --- helpers ----------------------------------------------------------------

// rawArray splits a JSON array into its elements. A JSON null is rejected:
// json.Unmarshal would otherwise accept it as an empty slice.
func rawArray(data []byte) ([]json.RawMessage, error) {
	if isNull(data) {
		return nil, errors.New("expected a JSON array, got null")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, err
	}
	return elems, nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func missingField(name string) error {
	return fmt.Errorf("missing field %q", name)
}
