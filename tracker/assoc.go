package tracker

// associate produces a one-to-one matching between tracks and detections
// using a two phase greedy policy.  Phase one matches each track to the
// first detection whose IoU with the track's predicted box exceeds
// iouThresh.  Phase two matches each remaining track to the first detection
// within distThresh of the predicted center whose label equals the track's
// dominant label, falling back to the nearest detection within distThresh
// when no label matches.
//
// The policy is deliberately greedy rather than globally optimal, it is
// fast and deterministic but can mis-assign under dense crossing
// trajectories.  Tracks are scanned in the order given (ascending track id)
// and detections in input order, once a track or detection is consumed it
// is excluded from subsequent phases.
func associate(tracks []*Track, predicted []Rect, objects []Object,
	iouThresh, distThresh float32) (matchesIdx [][2]int,
	unmatchTrackIdx, unmatchObjectIdx []int) {

	trackUsed := make([]bool, len(tracks))
	objectUsed := make([]bool, len(objects))

	// Phase 1: overlap.  First detection exceeding the IoU threshold wins,
	// not the best overlapping one
	for ti := range tracks {
		for oi := range objects {

			if objectUsed[oi] {
				continue
			}

			if predicted[ti].CalcIoU(objects[oi].Rect) > iouThresh {
				matchesIdx = append(matchesIdx, [2]int{ti, oi})
				trackUsed[ti] = true
				objectUsed[oi] = true
				break
			}
		}
	}

	// Phase 2: center distance with class preference
	for ti := range tracks {

		if trackUsed[ti] {
			continue
		}

		dominant := tracks[ti].DominantLabel()

		// prefer the first in range detection of the track's dominant
		// class, in scan order rather than nearest
		matched := -1

		if dominant >= 0 {
			for oi := range objects {

				if objectUsed[oi] {
					continue
				}

				if objects[oi].Label == dominant &&
					predicted[ti].CenterDistance(objects[oi].Rect) <= distThresh {
					matched = oi
					break
				}
			}
		}

		// fall back to the nearest in range detection of any class, the
		// true minimum rather than first found
		if matched == -1 {
			var best float32

			for oi := range objects {

				if objectUsed[oi] {
					continue
				}

				d := predicted[ti].CenterDistance(objects[oi].Rect)

				if d > distThresh {
					continue
				}

				if matched == -1 || d < best {
					best = d
					matched = oi
				}
			}
		}

		if matched >= 0 {
			matchesIdx = append(matchesIdx, [2]int{ti, matched})
			trackUsed[ti] = true
			objectUsed[matched] = true
		}
	}

	for ti, used := range trackUsed {
		if !used {
			unmatchTrackIdx = append(unmatchTrackIdx, ti)
		}
	}

	for oi, used := range objectUsed {
		if !used {
			unmatchObjectIdx = append(unmatchObjectIdx, oi)
		}
	}

	return matchesIdx, unmatchTrackIdx, unmatchObjectIdx
}
