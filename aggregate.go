package runcoach

import (
	"math"
	"time"
)

// accumulator carries every running total of the forward pass. Keeping the
// pass as an explicit value folded over the samples keeps it testable in
// isolation instead of threading loose mutable locals through a loop.
type accumulator struct {
	start time.Time
	end   time.Time // max timestamp seen, out-of-order safe

	distanceM float64 // running max of the cumulative distance field

	hrSum   int
	hrCount int
	hrMax   int

	cadSum   int
	cadCount int

	lastAltitude float64
	haveAltitude bool
	gainM        float64

	// Current split state. splitIndex is the 1-based ordinal of the split
	// being accumulated; boundaryDist is the cumulative distance at the
	// last split close.
	splitIndex   int
	splitStart   time.Time
	boundaryDist float64
	splitHRSum   int
	splitHRCount int
	splitCadSum  int
	splitCadCnt  int
	splits       []Split

	series []DataPoint
}

// observe folds one sample into the accumulator. stride is the precomputed
// chart stride; last marks the final sample, which always enters the series.
func (a *accumulator) observe(i int, p TrackPoint, stride int, last bool) {
	if i == 0 {
		a.start = p.Time
		a.splitStart = p.Time
		a.splitIndex = 1
	}
	if p.Time.After(a.end) {
		a.end = p.Time
	}

	if p.DistanceM > a.distanceM {
		a.distanceM = p.DistanceM
	}

	if p.HeartRate > 0 {
		a.hrSum += p.HeartRate
		a.hrCount++
		a.splitHRSum += p.HeartRate
		a.splitHRCount++
		if p.HeartRate > a.hrMax {
			a.hrMax = p.HeartRate
		}
	}
	if p.Cadence > 0 {
		a.cadSum += p.Cadence
		a.cadCount++
		a.splitCadSum += p.Cadence
		a.splitCadCnt++
	}

	if p.HasAltitude {
		if a.haveAltitude && p.AltitudeM-a.lastAltitude > elevationNoiseMeters {
			a.gainM += p.AltitudeM - a.lastAltitude
		}
		// Always track the raw altitude, not the filtered one.
		a.lastAltitude = p.AltitudeM
		a.haveAltitude = true
	}

	if i%stride == 0 || last {
		a.series = append(a.series, DataPoint{
			DistanceM: a.distanceM,
			AltitudeM: p.AltitudeM,
			HeartRate: p.HeartRate,
			Cadence:   p.Cadence,
		})
	}

	// At most one split closes per sample; a sample that jumps across more
	// than one kilometer boundary closes the next split on the sample after.
	if a.distanceM >= float64(a.splitIndex)*splitDistanceMeters {
		a.closeSplit(p)
	}
}

func (a *accumulator) closeSplit(p TrackPoint) {
	duration := p.Time.Sub(a.splitStart).Seconds()
	covered := a.distanceM - a.boundaryDist

	s := Split{
		Index:       a.splitIndex,
		DurationSec: duration,
		DistanceM:   covered,
	}
	if a.splitHRCount > 0 {
		s.AvgHeartRate = a.splitHRSum / a.splitHRCount
	}
	if a.splitCadCnt > 0 {
		s.AvgCadence = a.splitCadSum / a.splitCadCnt
	}
	if covered > 0 {
		s.PaceSecPerKm = duration / (covered / 1000.0)
	}
	a.splits = append(a.splits, s)

	a.splitIndex++
	a.splitStart = p.Time
	a.boundaryDist = a.distanceM
	a.splitHRSum, a.splitHRCount = 0, 0
	a.splitCadSum, a.splitCadCnt = 0, 0
}

// chartStride returns the sampling stride for a recording of n samples
// against a target series length. Index i enters the series when i%stride
// is zero; the final sample is always included regardless of alignment.
func chartStride(n, target int) int {
	if target <= 0 {
		return 1
	}
	stride := n / target
	if stride < 1 {
		stride = 1
	}
	return stride
}

// aggregate runs the forward pass, the post-pass totals and the best-effort
// pass over an ordered sample sequence.
func aggregate(points []TrackPoint, calories int) (*ParsedActivity, error) {
	if len(points) == 0 {
		return nil, &NoDataError{}
	}

	stride := chartStride(len(points), chartTargetSamples)
	acc := accumulator{}
	for i, p := range points {
		acc.observe(i, p, stride, i == len(points)-1)
	}

	out := &ParsedActivity{
		StartTime:      acc.start,
		TotalDistanceM: acc.distanceM,
		MaxHeartRate:   acc.hrMax,
		ElevationGainM: acc.gainM,
		Calories:       calories,
		Splits:         acc.splits,
		Series:         acc.series,
	}
	out.TotalDurationSec = acc.end.Sub(acc.start).Seconds()
	if acc.hrCount > 0 {
		out.AvgHeartRate = acc.hrSum / acc.hrCount
	}
	if acc.cadCount > 0 {
		out.AvgCadence = acc.cadSum / acc.cadCount
	}
	if out.TotalDistanceM > 0 {
		out.AvgPaceSecPerKm = out.TotalDurationSec / (out.TotalDistanceM / 1000.0)
	}
	out.TrainingLoad = trainingLoad(out.TotalDurationSec, out.AvgHeartRate, out.MaxHeartRate)
	out.HRZones = heartRateZones(points, out.MaxHeartRate)
	out.BestEfforts = bestEfforts(points, out.TotalDistanceM)

	return out, nil
}

// trainingLoad is a relative-effort heuristic, not a calibrated
// physiological score: round(minutes * avgHR/effectiveMaxHR * 10), where the
// effective max is the observed maximum or 190 when the recording has no HR.
func trainingLoad(durationSec float64, avgHR, maxHR int) int {
	if avgHR <= 0 || durationSec <= 0 {
		return 0
	}
	effMax := maxHR
	if effMax == 0 {
		effMax = defaultMaxHeartRate
	}
	minutes := durationSec / 60.0
	return int(math.Round(minutes * (float64(avgHR) / float64(effMax)) * 10.0))
}

// heartRateZones buckets per-sample time deltas into five classic zones
// relative to the effective maximum heart rate.
func heartRateZones(points []TrackPoint, maxHR int) []ZoneDuration {
	effMax := maxHR
	if effMax == 0 {
		effMax = defaultMaxHeartRate
	}

	bounds := []struct {
		zone string
		min  float64
		max  float64
	}{
		{"Z1 Recovery", 0, 70},
		{"Z2 Endurance", 70, 80},
		{"Z3 Tempo", 80, 88},
		{"Z4 Threshold", 88, 95},
		{"Z5 Maximal", 95, 1000},
	}

	seconds := make([]float64, len(bounds))
	total := 0.0
	for i := 1; i < len(points); i++ {
		p := points[i]
		if p.HeartRate <= 0 {
			continue
		}
		dt := p.Time.Sub(points[i-1].Time).Seconds()
		if dt <= 0 {
			continue
		}
		pct := float64(p.HeartRate) / float64(effMax) * 100.0
		for z, b := range bounds {
			if pct >= b.min && pct < b.max {
				seconds[z] += dt
				total += dt
				break
			}
		}
	}
	if total == 0 {
		return nil
	}

	out := make([]ZoneDuration, 0, len(bounds))
	for i, b := range bounds {
		out = append(out, ZoneDuration{
			Zone:       b.zone,
			MinPctMax:  b.min,
			MaxPctMax:  b.max,
			Seconds:    seconds[i],
			Percentage: seconds[i] / total * 100.0,
		})
	}
	return out
}
