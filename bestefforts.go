package runcoach

import "math"

// bestEfforts runs one sliding-window pass per reference distance. A target
// is only attempted when the recording covers it; a missing entry means
// "distance not reached", never an error.
func bestEfforts(points []TrackPoint, totalDistanceM float64) []BestEffort {
	var out []BestEffort
	for _, target := range bestEffortTargets {
		if totalDistanceM < target.meters {
			continue
		}
		if effort, ok := fastestWindow(points, target.meters); ok {
			effort.Label = target.label
			out = append(out, effort)
		}
	}
	return out
}

// fastestWindow finds the minimum-duration contiguous sample window whose
// distance span is at least target meters. Both pointers only ever advance,
// so the scan is linear: for each right endpoint the left pointer moves
// forward while the shrunken window still covers the target, leaving the
// minimal qualifying window ending at right.
func fastestWindow(points []TrackPoint, target float64) (BestEffort, bool) {
	best := math.MaxFloat64
	left := 0
	for right := 1; right < len(points); right++ {
		for left+1 <= right && points[right].DistanceM-points[left+1].DistanceM >= target {
			left++
		}
		if points[right].DistanceM-points[left].DistanceM < target {
			continue
		}
		elapsed := points[right].Time.Sub(points[left].Time).Seconds()
		if elapsed > 0 && elapsed < best {
			best = elapsed
		}
	}
	if best == math.MaxFloat64 {
		return BestEffort{}, false
	}
	return BestEffort{
		DurationSec:  best,
		PaceSecPerKm: best / (target / 1000.0),
	}, true
}
