package tracker

import (
	"testing"
)

// rectAt builds a Rect from a center point and size
func rectAt(cx, cy, w, h float32) Rect {
	return NewRect(cx-w/2, cy-h/2, w, h)
}

// newTestTracker creates a tracker with default config, failing the test on
// error
func newTestTracker(t *testing.T) *HybridTracker {
	t.Helper()

	ht, err := NewHybridTracker(DefaultConfig())

	if err != nil {
		t.Fatalf("failed to create tracker: %v", err)
	}

	return ht
}

// TestConfigValidation tests that non positive thresholds and zero history
// are fatal construction errors
func TestConfigValidation(t *testing.T) {

	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero MaxDisappeared", func(c *Config) { c.MaxDisappeared = 0 }},
		{"negative DistThreshold", func(c *Config) { c.DistThreshold = -1 }},
		{"zero IoUThreshold", func(c *Config) { c.IoUThreshold = 0 }},
		{"zero HistorySize", func(c *Config) { c.HistorySize = 0 }},
		{"zero MinHits", func(c *Config) { c.MinHits = 0 }},
		{"negative ExtrapolationSteps", func(c *Config) { c.ExtrapolationSteps = -1 }},
		{"zero MinDetectionSize", func(c *Config) { c.MinDetectionSize = 0 }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {

			cfg := DefaultConfig()
			tt.mutate(&cfg)

			if _, err := NewHybridTracker(cfg); err == nil {
				t.Errorf("expected config error, got nil")
			}
		})
	}

	if _, err := NewHybridTracker(DefaultConfig()); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

// TestIdentityStability tests that an object moving at constant velocity
// keeps the same track ID on every frame with no new track spawned
func TestIdentityStability(t *testing.T) {

	ht := newTestTracker(t)

	for frame := 0; frame < 30; frame++ {

		obj := NewObject(rectAt(100+float32(frame)*5, 100, 40, 40), 2, 0.9)

		out, err := ht.Update([]Object{obj})

		if err != nil {
			t.Fatalf("frame %d: update failed: %v", frame, err)
		}

		if len(out) != 1 {
			t.Fatalf("frame %d: expected 1 record, got %d", frame, len(out))
		}

		if out[0].TrackID != 0 {
			t.Errorf("frame %d: expected track ID 0, got %d", frame, out[0].TrackID)
		}
	}

	if ht.Count() != 1 {
		t.Errorf("expected a single live track, got %d", ht.Count())
	}
}

// TestTrackBirth tests that a detection out of range of every track spawns
// exactly one new track with a fresh ID
func TestTrackBirth(t *testing.T) {

	ht := newTestTracker(t)

	out, err := ht.Update([]Object{
		NewObject(rectAt(100, 100, 40, 40), 1, 0.9),
	})

	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(out) != 1 || out[0].TrackID != 0 {
		t.Fatalf("expected single track 0, got %v", out)
	}

	// second detection far beyond IoU and distance range of track 0
	out, err = ht.Update([]Object{
		NewObject(rectAt(100, 100, 40, 40), 1, 0.9),
		NewObject(rectAt(600, 600, 40, 40), 1, 0.9),
	})

	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}

	if out[0].TrackID != 0 || out[1].TrackID != 1 {
		t.Errorf("expected track IDs 0 and 1, got %d and %d",
			out[0].TrackID, out[1].TrackID)
	}

	if ht.Count() != 2 {
		t.Errorf("expected 2 live tracks, got %d", ht.Count())
	}
}

// TestTrackDeath tests the staleness boundary, a track survives exactly 60
// consecutive misses and is removed on the 61st
func TestTrackDeath(t *testing.T) {

	ht := newTestTracker(t)

	if _, err := ht.Update([]Object{
		NewObject(rectAt(100, 100, 40, 40), 1, 0.9),
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	for miss := 1; miss <= 60; miss++ {

		out, err := ht.Update(nil)

		if err != nil {
			t.Fatalf("miss %d: update failed: %v", miss, err)
		}

		if len(out) != 0 {
			t.Errorf("miss %d: expected empty output, got %d records", miss, len(out))
		}

		if ht.Count() != 1 {
			t.Fatalf("miss %d: track removed too early", miss)
		}
	}

	// 61st consecutive miss crosses the threshold
	if _, err := ht.Update(nil); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if ht.Count() != 0 {
		t.Errorf("expected track removed after 61 misses, still live")
	}
}

// TestTrackRevival tests the counter resets on a match, misses before a
// match do not accumulate toward deletion
func TestTrackRevival(t *testing.T) {

	ht := newTestTracker(t)

	obj := NewObject(rectAt(100, 100, 40, 40), 1, 0.9)

	if _, err := ht.Update([]Object{obj}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// 50 misses, then the object reappears
	for i := 0; i < 50; i++ {
		if _, err := ht.Update(nil); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	out, err := ht.Update([]Object{obj})

	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(out) != 1 || out[0].TrackID != 0 {
		t.Fatalf("expected revived track 0, got %v", out)
	}

	track, ok := ht.GetTrack(0)

	if !ok || track.Disappeared() != 0 {
		t.Errorf("expected disappeared counter reset to 0")
	}

	// a further 60 misses must still not delete it
	for i := 0; i < 60; i++ {
		if _, err := ht.Update(nil); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	if ht.Count() != 1 {
		t.Errorf("expected track alive after counter reset, got %d live", ht.Count())
	}
}

// TestHistoryBound tests the position and label histories never exceed the
// bound and keep the most recent observations in order
func TestHistoryBound(t *testing.T) {

	ht := newTestTracker(t)

	for frame := 0; frame < 25; frame++ {

		obj := NewObject(rectAt(100+float32(frame), 100, 40, 40), 1, 0.9)

		if _, err := ht.Update([]Object{obj}); err != nil {
			t.Fatalf("frame %d: update failed: %v", frame, err)
		}
	}

	track, ok := ht.GetTrack(0)

	if !ok {
		t.Fatal("track 0 missing")
	}

	positions := track.Positions()

	if len(positions) != 20 {
		t.Fatalf("expected history length 20, got %d", len(positions))
	}

	if len(track.Labels()) != 20 {
		t.Fatalf("expected label history length 20, got %d", len(track.Labels()))
	}

	// oldest retained entry is from frame 5, newest from frame 24
	for i, p := range positions {
		want := 100 + float32(5+i)
		if !almostEqual(p.X, want, 1e-4) {
			t.Errorf("position %d: expected x %v, got %v", i, want, p.X)
		}
	}
}

// TestDominantLabel tests majority voting over the label history, class
// history [1,1,1,2] resolves to 1
func TestDominantLabel(t *testing.T) {

	ht := newTestTracker(t)

	labels := []int{1, 1, 1, 2}

	var last []TrackedObject

	for frame, label := range labels {

		out, err := ht.Update([]Object{
			NewObject(rectAt(100, 100, 40, 40), label, 0.9),
		})

		if err != nil {
			t.Fatalf("frame %d: update failed: %v", frame, err)
		}

		if len(out) != 1 {
			t.Fatalf("frame %d: expected 1 record, got %d", frame, len(out))
		}

		last = out
	}

	if last[0].DominantLabel != 1 {
		t.Errorf("expected dominant label 1, got %d", last[0].DominantLabel)
	}

	// final frame's raw detection label is still reported
	if last[0].Label != 2 {
		t.Errorf("expected frame label 2, got %d", last[0].Label)
	}
}

// TestDominantLabelTieBreak tests that equal counts resolve to the lowest
// label id
func TestDominantLabelTieBreak(t *testing.T) {

	ht := newTestTracker(t)

	for _, label := range []int{5, 2, 5, 2} {
		if _, err := ht.Update([]Object{
			NewObject(rectAt(100, 100, 40, 40), label, 0.9),
		}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	track, ok := ht.GetTrack(0)

	if !ok {
		t.Fatal("track 0 missing")
	}

	if got := track.DominantLabel(); got != 2 {
		t.Errorf("expected tie to resolve to label 2, got %d", got)
	}
}

// TestEmptyFrameIdempotent tests two empty frame steps age every track by
// exactly 2 and produce two empty outputs
func TestEmptyFrameIdempotent(t *testing.T) {

	ht := newTestTracker(t)

	if _, err := ht.Update([]Object{
		NewObject(rectAt(100, 100, 40, 40), 1, 0.9),
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	for i := 0; i < 2; i++ {

		out, err := ht.Update(nil)

		if err != nil {
			t.Fatalf("update failed: %v", err)
		}

		if len(out) != 0 {
			t.Errorf("expected empty output, got %d records", len(out))
		}
	}

	track, ok := ht.GetTrack(0)

	if !ok {
		t.Fatal("track 0 missing")
	}

	if track.Disappeared() != 2 {
		t.Errorf("expected disappeared counter 2, got %d", track.Disappeared())
	}
}

// TestMinDetectionSizeFilter tests undersized and malformed detections are
// discarded before tracking
func TestMinDetectionSizeFilter(t *testing.T) {

	ht := newTestTracker(t)

	nan := float32(0)
	nan = nan / nan

	out, err := ht.Update([]Object{
		NewObject(rectAt(100, 100, 10, 40), 1, 0.9),  // too narrow
		NewObject(rectAt(100, 100, 40, 5), 1, 0.9),   // too short
		NewObject(NewRect(nan, 100, 40, 40), 1, 0.9), // NaN coordinate
		NewObject(NewRect(-50, -50, 40, 40), 1, 0.9), // negative coordinates
	})

	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(out) != 0 || ht.Count() != 0 {
		t.Errorf("expected all detections filtered, got %d records, %d tracks",
			len(out), ht.Count())
	}
}

// TestPredictedBoxEmission tests the extrapolated display box is present
// only for tracks that pre-existed the frame
func TestPredictedBoxEmission(t *testing.T) {

	ht := newTestTracker(t)

	out, err := ht.Update([]Object{
		NewObject(rectAt(100, 100, 40, 40), 1, 0.9),
	})

	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if out[0].Predicted != nil {
		t.Errorf("expected no predicted box on a newly created track")
	}

	out, err = ht.Update([]Object{
		NewObject(rectAt(105, 100, 40, 40), 1, 0.9),
	})

	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if out[0].Predicted == nil {
		t.Errorf("expected predicted box on a pre-existing track")
	}
}

// TestScenario walks the full single object lifecycle, birth, tracked
// motion, occlusion and staleness deletion
func TestScenario(t *testing.T) {

	ht := newTestTracker(t)

	// frame 1: one detection of class 3 at center (100,100) size 40x40
	out, err := ht.Update([]Object{
		NewObject(rectAt(100, 100, 40, 40), 3, 0.9),
	})

	if err != nil {
		t.Fatalf("frame 1: update failed: %v", err)
	}

	if len(out) != 1 || out[0].TrackID != 0 {
		t.Fatalf("frame 1: expected new track 0, got %v", out)
	}

	// frame 2: same object moved to (110,100)
	out, err = ht.Update([]Object{
		NewObject(rectAt(110, 100, 40, 40), 3, 0.9),
	})

	if err != nil {
		t.Fatalf("frame 2: update failed: %v", err)
	}

	if len(out) != 1 || out[0].TrackID != 0 {
		t.Fatalf("frame 2: expected track 0 retained, got %v", out)
	}

	if out[0].DominantLabel != 3 {
		t.Errorf("frame 2: expected dominant label 3, got %d", out[0].DominantLabel)
	}

	track, _ := ht.GetTrack(0)

	if track.Disappeared() != 0 {
		t.Errorf("frame 2: expected disappeared counter 0, got %d", track.Disappeared())
	}

	// frames 3 to 62: no detections, track 0 survives through counter 60
	for frame := 3; frame <= 62; frame++ {

		if _, err := ht.Update(nil); err != nil {
			t.Fatalf("frame %d: update failed: %v", frame, err)
		}

		if ht.Count() != 1 {
			t.Fatalf("frame %d: track removed too early", frame)
		}
	}

	if track.Disappeared() != 60 {
		t.Errorf("frame 62: expected disappeared counter 60, got %d", track.Disappeared())
	}

	// frame 63: counter crosses 60 and the track is deleted
	if _, err := ht.Update(nil); err != nil {
		t.Fatalf("frame 63: update failed: %v", err)
	}

	if ht.Count() != 0 {
		t.Errorf("frame 63: expected track deleted")
	}
}

// TestIDsNeverReused tests IDs keep increasing after tracks are deleted
func TestIDsNeverReused(t *testing.T) {

	ht := newTestTracker(t)

	if _, err := ht.Update([]Object{
		NewObject(rectAt(100, 100, 40, 40), 1, 0.9),
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// let track 0 die
	for i := 0; i <= 60; i++ {
		if _, err := ht.Update(nil); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	if ht.Count() != 0 {
		t.Fatal("expected all tracks deleted")
	}

	out, err := ht.Update([]Object{
		NewObject(rectAt(100, 100, 40, 40), 1, 0.9),
	})

	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(out) != 1 || out[0].TrackID != 1 {
		t.Errorf("expected fresh track ID 1, got %v", out)
	}
}
