// Package geo holds great-circle helpers for WGS 84 coordinates.
package geo

import (
	"fmt"
	"math"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

const EarthRadiusMeters = 6371000.0

// DistanceMeters calculates the haversine great-circle distance between two points.
func DistanceMeters(latA, lonA, latB, lonB float64) float64 {
	dLat := toRad(latB - latA)
	dLon := toRad(lonB - lonA)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(latA))*math.Cos(toRad(latB))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// ValidateLatLng rejects non-finite or out-of-range coordinates.
func ValidateLatLng(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return fmt.Errorf("%w: non-finite lat/lng", model.ErrInvalidCoordinate)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v must be in [-90,90]", model.ErrInvalidCoordinate, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v must be in [-180,180]", model.ErrInvalidCoordinate, lng)
	}
	return nil
}

// BoundingBox returns a box around a point with the given radius in meters.
func BoundingBox(lat, lng, radiusMeters float64) model.Bounds {
	latDelta := radiusMeters / 111320.0
	cos := math.Cos(toRad(lat))
	lngDelta := 180.0
	if cos > 1e-9 {
		lngDelta = math.Min(180, radiusMeters/(111320.0*cos))
	}
	return model.Bounds{
		MinLat: math.Max(-90, lat-latDelta),
		MinLng: math.Max(-180, lng-lngDelta),
		MaxLat: math.Min(90, lat+latDelta),
		MaxLng: math.Min(180, lng+lngDelta),
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
