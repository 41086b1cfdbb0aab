package domain

// Stop is a waypoint inside a trip. ID is the 1-based position of the stop in
// its trip's list. It is a different id space from StopDetail.ID and the two
// must not be compared.
// Point is nil when the feed gives the waypoint without coordinates.
type Stop struct {
	ID    int    `json:"id"`
	Point *Point `json:"point,omitempty"`
}

// StopDetail is a passenger pickup as served by the stops endpoint.
// TripID refers to Trip.ID but is not guaranteed to resolve: stops and trips
// are fetched independently.
// StopTime is kept verbatim; see FormatStopTime for presentation.
type StopDetail struct {
	ID       int     `json:"id"`
	StopTime string  `json:"stopTime"`
	Paid     bool    `json:"paid"`
	Address  string  `json:"address"`
	TripID   int     `json:"tripId"`
	UserName string  `json:"userName"`
	Point    Point   `json:"point"`
	Price    float64 `json:"price"`
}

// FilterByTrip returns the details whose TripID equals tripID, in their
// original relative order.
func FilterByTrip(details []StopDetail, tripID int) []StopDetail {
	var out []StopDetail
	for _, d := range details {
		if d.TripID == tripID {
			out = append(out, d)
		}
	}
	return out
}
