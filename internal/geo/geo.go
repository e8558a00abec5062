// Package geo provides great-circle distance and map viewport helpers used
// by the route and travel analysis pipeline.
package geo

import (
	"math"
	"time"
)

// earthRadiusKm is the approximate radius of earth in km used by the
// Haversine distance. Kept at 6373.0 for parity with cached distances.
const earthRadiusKm = 6373.0

// Point is a coordinate pair in decimal degrees with an optional fix time.
type Point struct {
	Latitude  float64
	Longitude float64
	FixTime   time.Time
}

// Bounds is an axis-aligned bounding box in decimal degrees.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Center is a map center point.
type Center struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance returns the Haversine great-circle distance between two points
// in kilometers.
func Distance(p1, p2 Point) float64 {
	lat1 := p1.Latitude * math.Pi / 180
	lon1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lon2 := p2.Longitude * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// TimeDiff returns the signed difference p2-p1 in seconds. If either point
// has no fix time the difference is 0.
func TimeDiff(p1, p2 Point) float64 {
	if p1.FixTime.IsZero() || p2.FixTime.IsZero() {
		return 0
	}
	return p2.FixTime.Sub(p1.FixTime).Seconds()
}

// BoundsOf returns the bounding box of the given points. An empty input
// yields all-zero bounds.
func BoundsOf(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	b := Bounds{
		MinLat: points[0].Latitude,
		MaxLat: points[0].Latitude,
		MinLng: points[0].Longitude,
		MaxLng: points[0].Longitude,
	}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Latitude)
		b.MaxLat = math.Max(b.MaxLat, p.Latitude)
		b.MinLng = math.Min(b.MinLng, p.Longitude)
		b.MaxLng = math.Max(b.MaxLng, p.Longitude)
	}
	return b
}

// CenterOf returns the midpoint of the bounds.
func CenterOf(b Bounds) Center {
	return Center{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lng: (b.MinLng + b.MaxLng) / 2,
	}
}

// ZoomFor returns a map zoom level for the bounds, derived from the
// diagonal extent of the box in kilometers. The curve constants are an
// empirical fit tuned against the map frontend, do not re-derive them.
func ZoomFor(b Bounds) float64 {
	nw := Point{Latitude: b.MaxLat, Longitude: b.MinLng}
	ne := Point{Latitude: b.MaxLat, Longitude: b.MaxLng}
	sw := Point{Latitude: b.MinLat, Longitude: b.MinLng}

	extX := Distance(nw, ne)
	extY := Distance(nw, sw)
	ext := math.Sqrt(extX*extX + extY*extY)

	return 35.936 * math.Pow(ext+150, -0.243)
}
