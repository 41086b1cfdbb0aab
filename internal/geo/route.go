// Package geo holds the small amount of coordinate math the trip view needs:
// decoding a trip's encoded route and framing it in a map region.
package geo

import (
	"github.com/twpayne/go-polyline"

	"github.com/pkordes/trip-tracker/internal/domain"
)

// RoutePadding inflates a fitted span so markers near the edges stay visible.
const RoutePadding = 1.2

// DecodeRoute decodes a Google encoded polyline into points.
// Empty or malformed input yields nil; callers treat that as "nothing to show".
func DecodeRoute(encoded string) []domain.Point {
	if encoded == "" {
		return nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil || len(coords) == 0 {
		return nil
	}
	points := make([]domain.Point, 0, len(coords))
	for _, c := range coords {
		points = append(points, domain.Point{Latitude: c[0], Longitude: c[1]})
	}
	return points
}

// FitRegion returns the region centered on the bounding box of points with
// its span scaled by RoutePadding. ok is false when points is empty.
func FitRegion(points []domain.Point) (region domain.Region, ok bool) {
	if len(points) == 0 {
		return domain.Region{}, false
	}

	minLat, maxLat := points[0].Latitude, points[0].Latitude
	minLng, maxLng := points[0].Longitude, points[0].Longitude
	for _, p := range points[1:] {
		minLat = min(minLat, p.Latitude)
		maxLat = max(maxLat, p.Latitude)
		minLng = min(minLng, p.Longitude)
		maxLng = max(maxLng, p.Longitude)
	}

	return domain.Region{
		Center: domain.Point{
			Latitude:  (minLat + maxLat) / 2,
			Longitude: (minLng + maxLng) / 2,
		},
		Span: domain.Span{
			LatitudeDelta:  (maxLat - minLat) * RoutePadding,
			LongitudeDelta: (maxLng - minLng) * RoutePadding,
		},
	}, true
}
