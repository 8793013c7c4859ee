package tracker

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Track represents one persistent object identity across frames.  A track
// exclusively owns its Kalman filter state, bounded position and label
// histories, and disappearance counter, so creation and deletion touch a
// single record
type Track struct {
	// Unique ID for the track, assigned at creation and never reused
	trackID int
	// Kalman filter used for motion estimation
	kalmanFilter *KalmanFilter
	// Mean state vector
	mean StateMean
	// Covariance matrix
	covariance StateCov
	// Last observed bounding box of the tracked object
	rect Rect
	// Last observed center point
	center Point
	// Bounded history of observed center points, oldest first
	positions []Point
	// Bounded history of observed class labels, oldest first
	labels []int
	// Maximum length of the position and label histories
	historySize int
	// Number of frames since the track was last matched to a detection
	disappeared int
	// Number of times the track has been matched to a detection
	hits int
}

// newTrack creates a new Track from an unmatched detection.  The motion
// state is initialized directly from the observation with zero velocity and
// the histories start as single element sequences
func newTrack(trackID int, obj Object, historySize int) *Track {

	t := &Track{
		trackID:      trackID,
		kalmanFilter: NewKalmanFilter(),
		mean:         make(StateMean, 8),
		covariance:   StateCov{mat.NewDense(8, 8, nil)},
		rect:         obj.Rect,
		center:       obj.Rect.Center(),
		historySize:  historySize,
		hits:         1,
	}

	t.kalmanFilter.Initiate(t.mean, &t.covariance, MeasureBox(obj.Rect.GetXywh()))

	t.positions = append(t.positions, t.center)
	t.labels = append(t.labels, obj.Label)

	return t
}

// TrackID returns the unique ID for the track
func (t *Track) TrackID() int {
	return t.trackID
}

// GetRect returns the last observed bounding box of the tracked object
func (t *Track) GetRect() Rect {
	return t.rect
}

// GetCenter returns the last observed center point of the tracked object
func (t *Track) GetCenter() Point {
	return t.center
}

// Positions returns the bounded history of observed center points, oldest
// first
func (t *Track) Positions() []Point {
	return t.positions
}

// Labels returns the bounded history of observed class labels, oldest first
func (t *Track) Labels() []int {
	return t.labels
}

// Disappeared returns the number of frames since the track was last matched
func (t *Track) Disappeared() int {
	return t.disappeared
}

// Hits returns the number of times the track has been matched to a detection
func (t *Track) Hits() int {
	return t.hits
}

// predict advances the motion state one frame and returns the predicted
// bounding box
func (t *Track) predict() Rect {
	t.kalmanFilter.Predict(t.mean, &t.covariance)
	return GenerateRectByXywh(Xywh(t.mean[:4]))
}

// correct fuses a matched detection into the motion state, records the
// observation in the histories and resets the disappearance counter
func (t *Track) correct(obj Object) error {

	err := t.kalmanFilter.Update(t.mean, &t.covariance,
		MeasureBox(obj.Rect.GetXywh()))

	if err != nil {
		return fmt.Errorf("error correcting track %d: %w", t.trackID, err)
	}

	t.rect = obj.Rect
	t.center = obj.Rect.Center()

	t.positions = append(t.positions, t.center)
	t.labels = append(t.labels, obj.Label)

	// evict oldest history entries beyond the bound
	if len(t.positions) > t.historySize {
		t.positions = t.positions[1:]
	}

	if len(t.labels) > t.historySize {
		t.labels = t.labels[1:]
	}

	t.disappeared = 0
	t.hits++

	return nil
}

// extrapolate projects the track's bounding box the given number of frames
// forward using the current velocity estimate.  Display lookahead only
func (t *Track) extrapolate(steps int) Rect {
	future := t.kalmanFilter.Extrapolate(t.mean, steps)
	return GenerateRectByXywh(Xywh(future))
}

// DominantLabel returns the majority class label over the track's bounded
// label history.  Ties resolve to the lowest label id so the result is
// deterministic.  Returns -1 when the history is empty
func (t *Track) DominantLabel() int {

	if len(t.labels) == 0 {
		return -1
	}

	counts := make(map[int]int)

	for _, label := range t.labels {
		counts[label]++
	}

	dominant := -1
	best := 0

	for label, n := range counts {
		if n > best || (n == best && label < dominant) {
			dominant = label
			best = n
		}
	}

	return dominant
}
