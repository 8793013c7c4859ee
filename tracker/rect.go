package tracker

import (
	"math"
)

// Tlwh (top-left x, top-left y, width, height) represents a 1x4 matrix
type Tlwh []float32

// Tlbr (top-left x, top-left y, bottom-right x, bottom-right y) represents
// a 1x4 matrix
type Tlbr []float32

// Xywh (center x, center y, width, height) represents a 1x4 matrix.  This is
// the measurement format consumed by the Kalman filter
type Xywh []float32

// Point represents the x,y center coordinates of a bounding box
type Point struct {
	X, Y float32
}

// Rect represents a rectangle with Tlwh (top-left, width, height) format
type Rect struct {
	Tlwh Tlwh
}

// NewRect creates a new Rect with given coordinates
func NewRect(x, y, width, height float32) Rect {
	return Rect{
		Tlwh: Tlwh{x, y, width, height},
	}
}

// X returns the top-left x coordinate of the rectangle
func (r *Rect) X() float32 {
	return r.Tlwh[0]
}

// Y returns the top-left y coordinate of the rectangle
func (r *Rect) Y() float32 {
	return r.Tlwh[1]
}

// Width returns the width of the rectangle
func (r *Rect) Width() float32 {
	return r.Tlwh[2]
}

// Height returns the height of the rectangle
func (r *Rect) Height() float32 {
	return r.Tlwh[3]
}

// TLX returns the top-left x coordinate of the rectangle
func (r *Rect) TLX() float32 {
	return r.Tlwh[0]
}

// TLY returns the top-left y coordinate of the rectangle
func (r *Rect) TLY() float32 {
	return r.Tlwh[1]
}

// BRX returns the bottom-right x coordinate of the rectangle
func (r *Rect) BRX() float32 {
	return r.Tlwh[0] + r.Tlwh[2]
}

// BRY returns the bottom-right y coordinate of the rectangle
func (r *Rect) BRY() float32 {
	return r.Tlwh[1] + r.Tlwh[3]
}

// Center returns the center point of the rectangle
func (r *Rect) Center() Point {
	return Point{
		X: r.Tlwh[0] + r.Tlwh[2]/2,
		Y: r.Tlwh[1] + r.Tlwh[3]/2,
	}
}

// GetTlbr converts the rectangle to Tlbr (top-left, bottom-right) format
func (r *Rect) GetTlbr() Tlbr {
	return Tlbr{
		r.Tlwh[0],
		r.Tlwh[1],
		r.Tlwh[0] + r.Tlwh[2],
		r.Tlwh[1] + r.Tlwh[3],
	}
}

// GetXywh converts the rectangle to Xywh (center x, center y, width, height)
// format
func (r *Rect) GetXywh() Xywh {
	return Xywh{
		r.Tlwh[0] + r.Tlwh[2]/2,
		r.Tlwh[1] + r.Tlwh[3]/2,
		r.Tlwh[2],
		r.Tlwh[3],
	}
}

// CalcIoU calculates the Intersection over Union (IoU) with another
// rectangle.  Degenerate boxes and non overlapping boxes return 0.
func (r *Rect) CalcIoU(other Rect) float32 {

	iw := float32(math.Min(float64(r.BRX()), float64(other.BRX())) -
		math.Max(float64(r.TLX()), float64(other.TLX())))

	if iw <= 0 {
		return 0
	}

	ih := float32(math.Min(float64(r.BRY()), float64(other.BRY())) -
		math.Max(float64(r.TLY()), float64(other.TLY())))

	if ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := r.Tlwh[2]*r.Tlwh[3] + other.Tlwh[2]*other.Tlwh[3] - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// CenterDistance calculates the Euclidean distance between the centers of
// two rectangles
func (r *Rect) CenterDistance(other Rect) float32 {

	a := r.Center()
	b := other.Center()

	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)

	return float32(math.Sqrt(dx*dx + dy*dy))
}

// GenerateRectByTlbr creates a Rect from Tlbr (top-left, bottom-right) format
func GenerateRectByTlbr(tlbr Tlbr) Rect {
	return NewRect(tlbr[0], tlbr[1], tlbr[2]-tlbr[0], tlbr[3]-tlbr[1])
}

// GenerateRectByXywh creates a Rect from Xywh (center x, center y, width,
// height) format
func GenerateRectByXywh(xywh Xywh) Rect {
	return NewRect(xywh[0]-xywh[2]/2, xywh[1]-xywh[3]/2, xywh[2], xywh[3])
}
