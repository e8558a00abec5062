package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name      string
		p1, p2    Point
		want      float64
		tolerance float64
	}{
		{
			name: "same_point",
			p1:   Point{Latitude: 48.137, Longitude: 11.575},
			p2:   Point{Latitude: 48.137, Longitude: 11.575},
			want: 0, tolerance: 0.0001,
		},
		{
			name: "one_degree_latitude",
			p1:   Point{Latitude: 45.0, Longitude: 10.0},
			p2:   Point{Latitude: 46.0, Longitude: 10.0},
			want: 111.2, tolerance: 0.5,
		},
		{
			name: "munich_to_verona",
			p1:   Point{Latitude: 48.1351, Longitude: 11.5820},
			p2:   Point{Latitude: 45.4384, Longitude: 10.9916},
			want: 303.0, tolerance: 5.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.p1, tt.p2), tt.tolerance)
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Point{Latitude: 52.52, Longitude: 13.405}
	b := Point{Latitude: 41.9028, Longitude: 12.4964}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestTimeDiff(t *testing.T) {
	base := time.Date(2023, 5, 22, 12, 0, 0, 0, time.UTC)

	t.Run("signed_difference", func(t *testing.T) {
		p1 := Point{FixTime: base}
		p2 := Point{FixTime: base.Add(90 * time.Second)}
		assert.InDelta(t, 90.0, TimeDiff(p1, p2), 1e-9)
		assert.InDelta(t, -90.0, TimeDiff(p2, p1), 1e-9)
	})

	t.Run("missing_fix_time", func(t *testing.T) {
		p1 := Point{FixTime: base}
		assert.Zero(t, TimeDiff(p1, Point{}))
		assert.Zero(t, TimeDiff(Point{}, p1))
	})
}

func TestBoundsOf(t *testing.T) {
	t.Run("empty_input_yields_zero_bounds", func(t *testing.T) {
		assert.Equal(t, Bounds{}, BoundsOf(nil))
	})

	t.Run("bounding_box", func(t *testing.T) {
		points := []Point{
			{Latitude: 47.0, Longitude: 11.0},
			{Latitude: 45.5, Longitude: 13.5},
			{Latitude: 46.2, Longitude: 10.1},
		}
		b := BoundsOf(points)
		assert.Equal(t, Bounds{MinLat: 45.5, MaxLat: 47.0, MinLng: 10.1, MaxLng: 13.5}, b)
	})
}

func TestCenterOf(t *testing.T) {
	b := Bounds{MinLat: 44.0, MaxLat: 48.0, MinLng: 10.0, MaxLng: 14.0}
	c := CenterOf(b)
	assert.InDelta(t, 46.0, c.Lat, 1e-9)
	assert.InDelta(t, 12.0, c.Lng, 1e-9)
}

func TestZoomFor(t *testing.T) {
	// Degenerate bounds: extent 0 km, zoom = 35.936 * 150^-0.243
	zero := ZoomFor(Bounds{})
	assert.InDelta(t, 10.63, zero, 0.05)

	// Larger extents must zoom out further
	wide := ZoomFor(Bounds{MinLat: 40, MaxLat: 55, MinLng: 5, MaxLng: 20})
	assert.Less(t, wide, zero)
}
