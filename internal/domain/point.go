package domain

import (
	"encoding/json"
	"errors"
)

// Point is a WGS84 coordinate. The upstream feed names its keys
// "_latitude" and "_longitude"; the same names are used on output.
type Point struct {
	Latitude  float64 `json:"_latitude"`
	Longitude float64 `json:"_longitude"`
}

// UnmarshalJSON requires both coordinates to be present.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw struct {
		Latitude  *float64 `json:"_latitude"`
		Longitude *float64 `json:"_longitude"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Latitude == nil {
		return errors.New("point: missing _latitude")
	}
	if raw.Longitude == nil {
		return errors.New("point: missing _longitude")
	}
	*p = Point{Latitude: *raw.Latitude, Longitude: *raw.Longitude}
	return nil
}

// Location is a named place: a street address plus its coordinate.
type Location struct {
	Address string `json:"address"`
	Point   Point  `json:"point"`
}

// UnmarshalJSON requires both the address and the point.
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		Address *string `json:"address"`
		Point   *Point  `json:"point"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Address == nil {
		return errors.New("location: missing address")
	}
	if raw.Point == nil {
		return errors.New("location: missing point")
	}
	*l = Location{Address: *raw.Address, Point: *raw.Point}
	return nil
}

// Span is the size of a map viewport in degrees.
type Span struct {
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// Region describes the map viewport: a center and a span.
type Region struct {
	Center Point `json:"center"`
	Span   Span  `json:"span"`
}

// DefaultRegion is the viewport shown when no trip is selected (central Barcelona).
func DefaultRegion() Region {
	return Region{
		Center: Point{Latitude: 41.3851, Longitude: 2.1734},
		Span:   Span{LatitudeDelta: 0.1, LongitudeDelta: 0.1},
	}
}
