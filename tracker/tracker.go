package tracker

import (
	"fmt"
	"sort"
)

// Config holds the tracker parameters fixed at construction
type Config struct {
	// MaxDisappeared is the number of consecutive unmatched frames after
	// which a track is deleted
	MaxDisappeared int
	// DistThreshold is the maximum center distance in pixels for the
	// distance association phase
	DistThreshold float32
	// IoUThreshold is the minimum overlap ratio for the overlap
	// association phase
	IoUThreshold float32
	// HistorySize is the maximum length of a track's position and label
	// histories
	HistorySize int
	// MinHits is the number of consecutive matches before a track counts
	// as confirmed.  Reserved, tracks are currently emitted unconditionally
	MinHits int
	// ExtrapolationSteps is the number of frames ahead the predicted
	// display box is projected
	ExtrapolationSteps int
	// MinDetectionSize is the minimum detection width/height in pixels,
	// smaller detections are discarded before tracking
	MinDetectionSize float32
}

// DefaultConfig returns the default tracker parameters
func DefaultConfig() Config {
	return Config{
		MaxDisappeared:     60,
		DistThreshold:      150,
		IoUThreshold:       0.3,
		HistorySize:        20,
		MinHits:            3,
		ExtrapolationSteps: 10,
		MinDetectionSize:   20,
	}
}

// validate checks the configuration once at construction
func (c Config) validate() error {

	if c.MaxDisappeared <= 0 {
		return fmt.Errorf("MaxDisappeared must be positive, got %d", c.MaxDisappeared)
	}

	if c.DistThreshold <= 0 {
		return fmt.Errorf("DistThreshold must be positive, got %v", c.DistThreshold)
	}

	if c.IoUThreshold <= 0 {
		return fmt.Errorf("IoUThreshold must be positive, got %v", c.IoUThreshold)
	}

	if c.HistorySize <= 0 {
		return fmt.Errorf("HistorySize must be positive, got %d", c.HistorySize)
	}

	if c.MinHits <= 0 {
		return fmt.Errorf("MinHits must be positive, got %d", c.MinHits)
	}

	if c.ExtrapolationSteps < 0 {
		return fmt.Errorf("ExtrapolationSteps must not be negative, got %d", c.ExtrapolationSteps)
	}

	if c.MinDetectionSize <= 0 {
		return fmt.Errorf("MinDetectionSize must be positive, got %v", c.MinDetectionSize)
	}

	return nil
}

// TrackedObject is the per frame output record for one tracked object.  It
// merges the matched detection's fields with the track's identity fields
type TrackedObject struct {
	// Rect is the bounding box of the matched detection
	Rect Rect
	// Width of the detection bounding box
	Width float32
	// Height of the detection bounding box
	Height float32
	// Prob is the confidence/probability of the detection
	Prob float32
	// Label is the class label of the detection in this frame
	Label int
	// Center is the center point of the detection bounding box
	Center Point
	// TrackID is the persistent identity assigned by the tracker
	TrackID int
	// DominantLabel is the majority class label over the track's recent
	// history
	DominantLabel int
	// Predicted is the bounding box extrapolated ahead using the track's
	// velocity estimate.  Nil for tracks created this frame
	Predicted *Rect
}

// HybridTracker is a multi-object tracker that associates per frame
// detections to persistent tracks with a hybrid overlap plus center
// distance policy.  A HybridTracker serves a single video stream and must
// not be shared between streams, each frame step depends on the corrected
// state of the previous one
type HybridTracker struct {
	cfg Config
	// Live tracks keyed by track ID
	tracks map[int]*Track
	// Counter for assigning unique track IDs, never reused
	nextTrackID int
}

// NewHybridTracker initializes and returns a new HybridTracker.  The
// configuration is validated once here, invalid parameters are fatal
func NewHybridTracker(cfg Config) (*HybridTracker, error) {

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker config: %w", err)
	}

	return &HybridTracker{
		cfg:    cfg,
		tracks: make(map[int]*Track),
	}, nil
}

// Reset clears all tracks and restarts ID assignment for a new stream
func (ht *HybridTracker) Reset() {
	ht.tracks = make(map[int]*Track)
	ht.nextTrackID = 0
}

// Count returns the number of live tracks
func (ht *HybridTracker) Count() int {
	return len(ht.tracks)
}

// GetTrack returns the live track with the given ID
func (ht *HybridTracker) GetTrack(trackID int) (*Track, bool) {
	t, ok := ht.tracks[trackID]
	return t, ok
}

// Tracks returns all live tracks in ascending track ID order
func (ht *HybridTracker) Tracks() []*Track {

	ids := ht.sortedIDs()
	out := make([]*Track, 0, len(ids))

	for _, id := range ids {
		out = append(out, ht.tracks[id])
	}

	return out
}

// Update runs one frame step.  Detections below the minimum size or with
// malformed geometry are discarded, remaining detections are associated to
// the live tracks, matched tracks are corrected, unmatched detections spawn
// new tracks and stale tracks are pruned.  It returns one record per track
// matched or created this frame in ascending track ID order.
//
// An empty result is a valid steady state, no detections and no tracks are
// not errors
func (ht *HybridTracker) Update(objects []Object) ([]TrackedObject, error) {

	// discard detections that are malformed or too small
	valid := make([]Object, 0, len(objects))

	for _, obj := range objects {
		if obj.valid(ht.cfg.MinDetectionSize) {
			valid = append(valid, obj)
		}
	}

	// Step 1: age every live track, matched tracks are reset below
	for _, t := range ht.tracks {
		t.disappeared++
	}

	// nothing to match against, age and prune only
	if len(valid) == 0 {
		ht.prune()
		return []TrackedObject{}, nil
	}

	// track IDs in ascending order for deterministic association
	ids := ht.sortedIDs()

	// emitted holds the matched detection for each track to output this
	// frame, preExisting marks tracks that were alive before this frame
	emitted := make(map[int]Object)
	preExisting := make(map[int]bool)

	unmatchObjectIdx := make([]int, 0, len(valid))

	if len(ids) == 0 {
		// no live tracks, every detection spawns a new track
		for oi := range valid {
			unmatchObjectIdx = append(unmatchObjectIdx, oi)
		}
	} else {

		// Step 2: advance every track's motion state and cache the
		// predictions for association
		ordered := make([]*Track, len(ids))
		predicted := make([]Rect, len(ids))

		for i, id := range ids {
			ordered[i] = ht.tracks[id]
			predicted[i] = ordered[i].predict()
		}

		// Step 3: associate detections to tracks
		matchesIdx, _, unmatched := associate(ordered, predicted, valid,
			ht.cfg.IoUThreshold, ht.cfg.DistThreshold)

		unmatchObjectIdx = unmatched

		// Step 4: apply matches
		for _, match := range matchesIdx {

			t := ordered[match[0]]
			obj := valid[match[1]]

			if err := t.correct(obj); err != nil {
				return nil, err
			}

			emitted[t.trackID] = obj
			preExisting[t.trackID] = true
		}
	}

	// Step 5: spawn a new track for each unmatched detection
	for _, oi := range unmatchObjectIdx {
		t := newTrack(ht.nextTrackID, valid[oi], ht.cfg.HistorySize)
		ht.tracks[t.trackID] = t
		ht.nextTrackID++

		emitted[t.trackID] = valid[oi]
	}

	// Step 6: prune stale tracks
	ht.prune()

	// emit records in ascending track ID order
	out := make([]TrackedObject, 0, len(emitted))

	for _, id := range ht.sortedIDs() {

		obj, ok := emitted[id]

		if !ok {
			continue
		}

		t := ht.tracks[id]

		rec := TrackedObject{
			Rect:          obj.Rect,
			Width:         obj.Rect.Width(),
			Height:        obj.Rect.Height(),
			Prob:          obj.Prob,
			Label:         obj.Label,
			Center:        obj.Rect.Center(),
			TrackID:       id,
			DominantLabel: t.DominantLabel(),
		}

		// display lookahead box only for tracks that pre-existed this
		// frame, new tracks have no velocity estimate yet
		if preExisting[id] {
			future := t.extrapolate(ht.cfg.ExtrapolationSteps)
			rec.Predicted = &future
		}

		out = append(out, rec)
	}

	return out, nil
}

// prune deletes every track whose disappearance counter has crossed the
// threshold, releasing its motion state and histories in one step
func (ht *HybridTracker) prune() {
	for id, t := range ht.tracks {
		if t.disappeared > ht.cfg.MaxDisappeared {
			delete(ht.tracks, id)
		}
	}
}

// sortedIDs returns the live track IDs in ascending order.  Map iteration
// order is randomized in Go so association and output ordering sort first
func (ht *HybridTracker) sortedIDs() []int {

	ids := make([]int, 0, len(ht.tracks))

	for id := range ht.tracks {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	return ids
}
