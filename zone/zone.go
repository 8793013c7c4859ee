// Package zone reports which tracked objects occupy named polygonal regions
// of the video frame, for example a doorway, a lane or a restricted area.
package zone

import (
	"fmt"
	"image"
	"math"

	clipper "github.com/ctessum/go.clipper"

	"github.com/cvkit/go-hybridtrack/tracker"
)

// Zone is a named closed polygonal region in pixel coordinates
type Zone struct {
	// Name identifies the zone in occupancy reports
	Name string
	// Polygon vertices in order
	points []image.Point
	// path is the polygon converted to a Clipper path
	path clipper.Path
}

// NewZone creates a zone from a closed polygon with at least 3 vertices
func NewZone(name string, points []image.Point) (*Zone, error) {

	if name == "" {
		return nil, fmt.Errorf("zone name must not be empty")
	}

	if len(points) < 3 {
		return nil, fmt.Errorf("zone %s needs at least 3 points, got %d",
			name, len(points))
	}

	// convert the polygon vertices to a Clipper path
	var path clipper.Path

	for _, pt := range points {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt.X),
			Y: clipper.CInt(pt.Y),
		})
	}

	return &Zone{
		Name:   name,
		points: points,
		path:   path,
	}, nil
}

// Points returns the zone's polygon vertices, used for rendering
func (z *Zone) Points() []image.Point {
	return z.points
}

// Coverage returns the fraction of the rectangle's area lying inside the
// zone polygon, in the range 0 to 1.  Degenerate rectangles return 0
func (z *Zone) Coverage(rect tracker.Rect) float64 {

	boxArea := float64(rect.Width()) * float64(rect.Height())

	if boxArea <= 0 {
		return 0
	}

	// convert the box to a closed Clipper path
	box := clipper.Path{
		&clipper.IntPoint{X: clipper.CInt(rect.TLX()), Y: clipper.CInt(rect.TLY())},
		&clipper.IntPoint{X: clipper.CInt(rect.BRX()), Y: clipper.CInt(rect.TLY())},
		&clipper.IntPoint{X: clipper.CInt(rect.BRX()), Y: clipper.CInt(rect.BRY())},
		&clipper.IntPoint{X: clipper.CInt(rect.TLX()), Y: clipper.CInt(rect.BRY())},
	}

	// intersect the box with the zone polygon
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(box, clipper.PtSubject, true)
	c.AddPath(z.path, clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero,
		clipper.PftNonZero)

	if !ok {
		return 0
	}

	var inter float64

	for _, path := range solution {
		inter += polygonArea(path)
	}

	return inter / boxArea
}

// Contains reports whether at least the given fraction of the rectangle
// lies inside the zone
func (z *Zone) Contains(rect tracker.Rect, coverage float64) bool {
	return z.Coverage(rect) >= coverage
}

// polygonArea calculates the absolute area of a closed Clipper path using
// the shoelace formula
func polygonArea(path clipper.Path) float64 {

	if len(path) < 3 {
		return 0
	}

	var sum float64

	for i := range path {
		j := (i + 1) % len(path)
		sum += float64(path[i].X)*float64(path[j].Y) -
			float64(path[j].X)*float64(path[i].Y)
	}

	return math.Abs(sum) / 2
}

// Set is a collection of zones checked together each frame
type Set struct {
	zones []*Zone
	// minimum fraction of a track's box that must lie inside a zone for
	// the track to count as occupying it
	coverage float64
}

// NewSet creates a zone set with the given occupancy coverage fraction.
// The fraction must be in the range (0, 1]
func NewSet(coverage float64, zones ...*Zone) (*Set, error) {

	if coverage <= 0 || coverage > 1 {
		return nil, fmt.Errorf("coverage must be in (0, 1], got %v", coverage)
	}

	return &Set{
		zones:    zones,
		coverage: coverage,
	}, nil
}

// Zones returns the zones in the set
func (s *Set) Zones() []*Zone {
	return s.zones
}

// Occupancy reports the track IDs occupying each zone for one frame of
// tracker output, keyed by zone name.  A track can occupy several zones at
// once
func (s *Set) Occupancy(objs []tracker.TrackedObject) map[string][]int {

	out := make(map[string][]int, len(s.zones))

	for _, z := range s.zones {

		ids := make([]int, 0)

		for _, obj := range objs {
			if z.Contains(obj.Rect, s.coverage) {
				ids = append(ids, obj.TrackID)
			}
		}

		out[z.Name] = ids
	}

	return out
}
