// Package geo holds the spherical-earth helpers used by route sessions.
package geo

import (
	"fmt"
	"math"

	apperrors "saferun/internal/platform/errors"
)

// EarthRadiusKM is the mean earth radius used by the haversine formula.
const EarthRadiusKM = 6371.0

type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return fmt.Errorf("%w: coordinate is not a number", apperrors.ErrInvalidInput)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.6f out of range", apperrors.ErrInvalidInput, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %.6f out of range", apperrors.ErrInvalidInput, c.Longitude)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// DistanceKM returns the great-circle distance between a and b.
func DistanceKM(a, b Coordinate) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// EstimateMinutes converts a distance into whole minutes at a fixed pace,
// rounding up so that any non-zero distance takes at least a minute.
func EstimateMinutes(distanceKM, minutesPerKM float64) int {
	if distanceKM <= 0 || minutesPerKM <= 0 {
		return 0
	}
	return int(math.Ceil(distanceKM * minutesPerKM))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
