// Package domain contains the core data types of the trip tracker: trips,
// stops, stop details and contact reports, together with the rules that turn
// the upstream JSON payloads into those types.
// Entities are values. They are built once at decode time and never mutated;
// callers replace whole collections instead.
package domain

import (
	"encoding/json"
	"fmt"
)

// TripStatus is the lifecycle state of a trip as reported by the feed.
type TripStatus string

const (
	TripStatusOngoing   TripStatus = "ongoing"
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusFinalized TripStatus = "finalized"
	TripStatusCancelled TripStatus = "cancelled"
)

// TripStatuses lists every known status in display order.
var TripStatuses = []TripStatus{
	TripStatusOngoing,
	TripStatusScheduled,
	TripStatusFinalized,
	TripStatusCancelled,
}

// Valid reports whether s is one of the four known statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusOngoing, TripStatusScheduled, TripStatusFinalized, TripStatusCancelled:
		return true
	}
	return false
}

// DisplayName returns the human label shown in lists and cards.
func (s TripStatus) DisplayName() string {
	switch s {
	case TripStatusOngoing:
		return "Ongoing"
	case TripStatusScheduled:
		return "Scheduled"
	case TripStatusFinalized:
		return "Finalized"
	case TripStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// Color returns the status color tag used by the front end.
func (s TripStatus) Color() string {
	switch s {
	case TripStatusOngoing:
		return "green"
	case TripStatusScheduled:
		return "blue"
	case TripStatusFinalized:
		return "gray"
	case TripStatusCancelled:
		return "red"
	}
	return ""
}

// UnmarshalJSON rejects unknown statuses.
func (s *TripStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	st := TripStatus(raw)
	if !st.Valid() {
		return fmt.Errorf("status: unknown value %q", raw)
	}
	*s = st
	return nil
}

// Trip is a single driver trip from origin to destination.
// ID is not part of the feed; it is assigned from a sequence when the trip is
// decoded and is only meaningful within that decode session.
// Route is a Google encoded polyline.
type Trip struct {
	ID          int        `json:"id"`
	Description string     `json:"description"`
	DriverName  string     `json:"driverName"`
	Route       string     `json:"route"`
	Status      TripStatus `json:"status"`
	Origin      Location   `json:"origin"`
	Stops       []Stop     `json:"stops"`
	Destination Location   `json:"destination"`
	EndTime     string     `json:"endTime"`
	StartTime   string     `json:"startTime"`
}
