package tracker

import "math"

// Object represents an object detected in a single video frame.  Objects
// carry no identity of their own, the tracker assigns and maintains track
// IDs across frames
type Object struct {
	// Rect is the bounding box representation of the detected object
	Rect Rect
	// Label is the class label of the object detected
	Label int
	// Prob is the confidence/probability of the object detected
	Prob float32
}

// NewObject is a constructor function for the Object struct
func NewObject(rect Rect, label int, prob float32) Object {
	return Object{
		Rect:  rect,
		Label: label,
		Prob:  prob,
	}
}

// valid reports if an object is well formed and at least minSize pixels in
// both dimensions.  Malformed detections are dropped before they reach the
// association stage
func (o *Object) valid(minSize float32) bool {

	for _, v := range o.Rect.Tlwh {
		if isNaN(v) || isInf(v) {
			return false
		}
	}

	if o.Rect.TLX() < 0 || o.Rect.TLY() < 0 {
		return false
	}

	if o.Rect.Width() < minSize || o.Rect.Height() < minSize {
		return false
	}

	if o.Label < 0 {
		return false
	}

	return true
}

func isNaN(v float32) bool {
	return math.IsNaN(float64(v))
}

func isInf(v float32) bool {
	return math.IsInf(float64(v), 0)
}
