package runcoach

import (
	"errors"
	"time"
)

// Best-effort reference distances in meters, in emission order.
var bestEffortTargets = []struct {
	label  string
	meters float64
}{
	{"1k", 1000},
	{"5k", 5000},
	{"10k", 10000},
}

const (
	splitDistanceMeters = 1000.0

	// Altitude changes at or below this are treated as barometric noise.
	elevationNoiseMeters = 0.2

	// Fallback maximum heart rate when the recording carries no HR data.
	defaultMaxHeartRate = 190

	// Approximate number of points the downsampled chart series targets.
	chartTargetSamples = 150
)

// TrackPoint is one sample from a track recording. Points are transient:
// they feed the aggregation passes and are not retained in the output.
type TrackPoint struct {
	Time        time.Time
	DistanceM   float64 // cumulative meters as reported by the source
	HeartRate   int     // bpm, 0 when absent
	Cadence     int     // steps/min, 0 when absent
	AltitudeM   float64
	HasAltitude bool
}

// Split is one completed kilometer of the recording.
type Split struct {
	Index        int     `json:"index"` // 1-based kilometer ordinal
	DurationSec  float64 `json:"duration_s"`
	DistanceM    float64 `json:"distance_m"` // actual meters covered, near 1000
	AvgHeartRate int     `json:"avg_hr_bpm"`
	AvgCadence   int     `json:"avg_cadence_spm,omitempty"`
	PaceSecPerKm float64 `json:"pace_s_per_km"`
}

// BestEffort is the fastest contiguous segment covering a reference distance.
type BestEffort struct {
	Label        string  `json:"label"`
	DurationSec  float64 `json:"duration_s"`
	PaceSecPerKm float64 `json:"pace_s_per_km"`
}

// DataPoint is one downsampled chart sample.
type DataPoint struct {
	DistanceM float64 `json:"distance_m"`
	AltitudeM float64 `json:"altitude_m"`
	HeartRate int     `json:"hr_bpm"`
	Cadence   int     `json:"cadence_spm,omitempty"`
}

// ZoneDuration stores time spent in one heart-rate zone, bucketed against
// the effective maximum heart rate of the recording.
type ZoneDuration struct {
	Zone       string  `json:"zone"`
	MinPctMax  float64 `json:"min_pct_max"`
	MaxPctMax  float64 `json:"max_pct_max"`
	Seconds    float64 `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

// ParsedActivity is the aggregate result of parsing one track recording.
// It is built in a single parsing call and never mutated afterwards; any
// enrichment (coach narrative, plan) lives on the wrapping history record.
type ParsedActivity struct {
	StartTime        time.Time      `json:"start_time"`
	TotalDistanceM   float64        `json:"total_distance_m"`
	TotalDurationSec float64        `json:"total_duration_s"`
	AvgHeartRate     int            `json:"avg_hr_bpm"`
	MaxHeartRate     int            `json:"max_hr_bpm"`
	AvgCadence       int            `json:"avg_cadence_spm,omitempty"`
	ElevationGainM   float64        `json:"elevation_gain_m"`
	AvgPaceSecPerKm  float64        `json:"avg_pace_s_per_km"`
	TrainingLoad     int            `json:"training_load"`
	Calories         int            `json:"calories,omitempty"`
	Splits           []Split        `json:"splits"`
	BestEfforts      []BestEffort   `json:"best_efforts"`
	Series           []DataPoint    `json:"series"`
	HRZones          []ZoneDuration `json:"hr_zones,omitempty"`
}

// ErrNoData is the sentinel matched by errors.Is for any *NoDataError.
var ErrNoData = errors.New("no trackable samples found in recording")

// NoDataError reports a recording with no trackable samples. Every other
// malformed or missing field degrades to a default instead of failing.
type NoDataError struct {
	Reason string
}

func (e *NoDataError) Error() string {
	if e.Reason == "" {
		return ErrNoData.Error()
	}
	return ErrNoData.Error() + ": " + e.Reason
}

func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}
