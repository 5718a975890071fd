package kernel

import (
	"errors"
	"fmt"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// EarthRadiusKm is the mean Earth radius used for every distance computation.
const EarthRadiusKm = 6371.0

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// ErrLocationIsNotConstructed is returned when a zero-value Location is used.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation constructor")

// Location is an immutable WGS84 point (degrees).
//
// Example:
//
//	loc, err := kernel.NewLocation(12.97, 77.59)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(loc) // Location(12.970000,77.590000)
type Location struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewLocation validates latitude in [-90, 90] and longitude in [-180, 180].
func NewLocation(lat, lon float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLatitude(lat), loc.setLongitude(lon)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

func (l Location) Latitude() float64 {
	return l.lat
}

func (l Location) Longitude() float64 {
	return l.lon
}

func (l Location) String() string {
	return fmt.Sprintf("Location(%f,%f)", l.lat, l.lon)
}

// DistanceKm returns the great-circle distance using the spherical law of cosines.
// The acos argument is clamped to [-1, 1] so identical points yield exactly 0.
//
// Example:
//
//	a, _ := kernel.NewLocation(12.97, 77.59)
//	b, _ := kernel.NewLocation(13.00, 77.59)
//	d, _ := a.DistanceKm(b) // ~3.336
func (l Location) DistanceKm(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	lat1 := toRadians(l.lat)
	lat2 := toRadians(other.lat)
	dLon := toRadians(other.lon - l.lon)

	cosine := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLon)
	cosine = math.Max(-1, math.Min(1, cosine))

	return EarthRadiusKm * math.Acos(cosine), nil
}

// BoundingBox is a lat/lon rectangle that contains every point within a radius.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// BoundingBox returns a rectangle enclosing the circle of radiusKm around l.
// It is a cheap prefilter for storage queries; exact filtering uses DistanceKm.
// Near the poles or across the antimeridian the longitude range widens to the full circle.
func (l Location) BoundingBox(radiusKm float64) (BoundingBox, error) {
	if err := l.Validate(); err != nil {
		return BoundingBox{}, err
	}
	if radiusKm < 0 {
		return BoundingBox{}, errs.NewValueIsOutOfRangeError("radiusKm", radiusKm, 0, math.Inf(1))
	}

	dLat := toDegrees(radiusKm / EarthRadiusKm)
	box := BoundingBox{
		MinLat: math.Max(MinLatitude, l.lat-dLat),
		MaxLat: math.Min(MaxLatitude, l.lat+dLat),
		MinLon: MinLongitude,
		MaxLon: MaxLongitude,
	}

	if box.MinLat == MinLatitude || box.MaxLat == MaxLatitude {
		return box, nil
	}

	dLon := toDegrees(math.Asin(math.Min(1, math.Sin(radiusKm/EarthRadiusKm)/math.Cos(toRadians(l.lat)))))
	if l.lon-dLon < MinLongitude || l.lon+dLon > MaxLongitude {
		return box, nil
	}

	box.MinLon = l.lon - dLon
	box.MaxLon = l.lon + dLon
	return box, nil
}

func (l *Location) setLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("latitude", lat, MinLatitude, MaxLatitude)
	}

	l.lat = lat
	return nil
}

func (l *Location) setLongitude(lon float64) error {
	if math.IsNaN(lon) || lon < MinLongitude || lon > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("longitude", lon, MinLongitude, MaxLongitude)
	}

	l.lon = lon
	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
