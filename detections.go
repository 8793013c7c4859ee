package hybridtrack

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cvkit/go-hybridtrack/tracker"
)

// DetectionRecord is one raw detection as produced by an external object
// detection model
type DetectionRecord struct {
	// Box is the bounding box in (x1, y1, x2, y2) pixel coordinates
	Box [4]float32 `json:"box"`
	// Label is the class id of the detected object
	Label int `json:"label"`
	// Prob is the confidence/probability of the detection
	Prob float32 `json:"prob"`
}

// FrameDetections holds the detection list for one video frame
type FrameDetections struct {
	// Frame is the zero based frame index in the video
	Frame int `json:"frame"`
	// Objects are the raw detections for the frame
	Objects []DetectionRecord `json:"objects"`
}

// LoadDetections reads a per frame detection sequence from a JSON file.
// The file contains an array of FrameDetections ordered by frame index.
// Used by the example programs to replay recorded detector output through
// the tracker without a live model
func LoadDetections(file string) ([]FrameDetections, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return nil, fmt.Errorf("error reading detections file: %w", err)
	}

	var frames []FrameDetections

	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("error parsing detections file: %w", err)
	}

	return frames, nil
}

// ToObjects converts the frame's raw detection records into tracker input
// objects
func (f *FrameDetections) ToObjects() []tracker.Object {

	objs := make([]tracker.Object, 0, len(f.Objects))

	for _, det := range f.Objects {

		rect := tracker.NewRect(det.Box[0], det.Box[1],
			det.Box[2]-det.Box[0], det.Box[3]-det.Box[1])

		objs = append(objs, tracker.NewObject(rect, det.Label, det.Prob))
	}

	return objs
}
