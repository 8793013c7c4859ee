package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/cvkit/go-hybridtrack/tracker"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the midpoint circle should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trails draws each tracked object's recent position history as a polyline
// on the source image.  The history is read from the track's bounded
// position buffer held by the tracker
func Trails(img *gocv.Mat, trackResults []tracker.TrackedObject,
	ht *tracker.HybridTracker, style TrailStyle) {

	for _, tResult := range trackResults {

		track, ok := ht.GetTrack(tResult.TrackID)

		if !ok {
			continue
		}

		// determine style colors to use
		objClr := TrackColor(tResult.TrackID)

		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		// draw trail line showing tracking history
		points := track.Positions()

		if len(points) < 2 {
			continue
		}

		for i := 1; i < len(points); i++ {
			// draw line segment of trail
			gocv.Line(img,
				image.Pt(int(points[i-1].X), int(points[i-1].Y)),
				image.Pt(int(points[i].X), int(points[i].Y)),
				lineClr, style.LineThickness,
			)
		}

		// draw center point circle on the current box
		last := points[len(points)-1]
		gocv.Circle(img, image.Pt(int(last.X), int(last.Y)),
			style.CircleRadius, circleClr, -1)
	}
}

// Zones draws closed polygon outlines on the source image, used to show
// the regions a zone.Set watches
func Zones(img *gocv.Mat, polygons [][]image.Point, clr color.RGBA,
	thickness int) {

	for _, points := range polygons {

		if len(points) < 3 {
			continue
		}

		for i := range points {
			j := (i + 1) % len(points)
			gocv.Line(img, points[i], points[j], clr, thickness)
		}
	}
}
