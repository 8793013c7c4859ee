package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/cvkit/go-hybridtrack/tracker"
)

// boxLabel records the rendering details of one text label so all labels
// can be painted last, above the box and trail layers
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// TrackerBoxes renders the bounding box, track ID and class label for each
// tracked object.  Class names are indexed by the object's dominant label,
// pass nil to render the numeric label instead
func TrackerBoxes(img *gocv.Mat, trackResults []tracker.TrackedObject,
	classNames []string, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	for _, tResult := range trackResults {

		boxLeft := int(tResult.Rect.TLX())
		boxTop := int(tResult.Rect.TLY())
		boxRight := int(tResult.Rect.BRX())
		boxBottom := int(tResult.Rect.BRY())

		// a track keeps its color for its lifetime
		useClr := TrackColor(tResult.TrackID)

		// draw rectangle around tracked object
		rect := image.Rect(boxLeft, boxTop, boxRight, boxBottom)
		gocv.Rectangle(img, rect, useClr, lineThickness)

		// create text for label using the stable dominant class rather
		// than the per frame detection label
		var name string

		if classNames != nil && tResult.DominantLabel >= 0 &&
			tResult.DominantLabel < len(classNames) {
			name = classNames[tResult.DominantLabel]
		} else {
			name = fmt.Sprintf("class %d", tResult.DominantLabel)
		}

		text := fmt.Sprintf("%s %d", name, tResult.TrackID)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (boxLeft + boxRight) / 2

		case Right:
			centerX = boxRight - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = boxLeft + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, boxTop-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			boxTop-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, boxTop)

		// record label rendering details
		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		})
	}

	// draw all precalculated box labels so they are the top most layer on
	// the image and don't get overlapped by trail lines
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// PredictedBoxes renders the extrapolated lookahead box for tracks that
// carry one, showing where each object is heading
func PredictedBoxes(img *gocv.Mat, trackResults []tracker.TrackedObject,
	lineThickness int) {

	for _, tResult := range trackResults {

		if tResult.Predicted == nil {
			continue
		}

		rect := image.Rect(
			int(tResult.Predicted.TLX()),
			int(tResult.Predicted.TLY()),
			int(tResult.Predicted.BRX()),
			int(tResult.Predicted.BRY()),
		)

		gocv.Rectangle(img, rect, TrackColor(tResult.TrackID), lineThickness)
	}
}
