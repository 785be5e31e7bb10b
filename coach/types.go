package coach

import (
	runcoach "github.com/strideworks/runcoach"
)

// Summary is the condensed numeric view of one activity forwarded to the
// narrative service. It carries preformatted strings so the remote model
// never has to re-derive units.
type Summary struct {
	Date           string       `json:"date,omitempty"`
	DistanceKM     float64      `json:"distance_km"`
	Duration       string       `json:"duration"`
	AvgPace        string       `json:"avg_pace"`
	AvgHeartRate   int          `json:"avg_hr_bpm,omitempty"`
	MaxHeartRate   int          `json:"max_hr_bpm,omitempty"`
	AvgCadence     int          `json:"avg_cadence_spm,omitempty"`
	ElevationGainM float64      `json:"elevation_gain_m,omitempty"`
	TrainingLoad   int          `json:"training_load"`
	BestEfforts    []EffortLine `json:"best_efforts,omitempty"`
}

// EffortLine is one best-effort row in the condensed summary.
type EffortLine struct {
	Label string `json:"label"`
	Time  string `json:"time"`
	Pace  string `json:"pace"`
}

// SplitLine is one kilometer split in the condensed summary.
type SplitLine struct {
	KM           int    `json:"km"`
	Time         string `json:"time"`
	Pace         string `json:"pace"`
	AvgHeartRate int    `json:"avg_hr_bpm,omitempty"`
}

// CommentaryRequest is the wire request for run commentary.
type CommentaryRequest struct {
	Model   string      `json:"model,omitempty"`
	Goal    string      `json:"goal,omitempty"`
	Summary Summary     `json:"summary"`
	Splits  []SplitLine `json:"splits,omitempty"`
}

// CommentaryResponse is the fixed response schema of the narrative service.
type CommentaryResponse struct {
	Commentary string `json:"commentary"`
}

// PlanRequest asks the service for a short training plan given a goal and
// the athlete's recent sessions.
type PlanRequest struct {
	Model  string    `json:"model,omitempty"`
	Goal   string    `json:"goal"`
	Recent []Summary `json:"recent,omitempty"`
}

// PlanEntry is one prescribed session in a generated plan.
type PlanEntry struct {
	Day         string `json:"day"`
	Description string `json:"description"`
}

// PlanResponse is the fixed response schema for plan generation.
type PlanResponse struct {
	Plan []PlanEntry `json:"plan"`
}

// Condense reduces a parsed activity to the summary and split list the
// narrative service consumes. It reads the activity, never mutates it.
func Condense(a *runcoach.ParsedActivity) (Summary, []SplitLine) {
	s := Summary{
		DistanceKM:     a.TotalDistanceM / 1000.0,
		Duration:       runcoach.FormatDuration(a.TotalDurationSec),
		AvgPace:        runcoach.FormatPace(a.AvgPaceSecPerKm),
		AvgHeartRate:   a.AvgHeartRate,
		MaxHeartRate:   a.MaxHeartRate,
		AvgCadence:     a.AvgCadence,
		ElevationGainM: a.ElevationGainM,
		TrainingLoad:   a.TrainingLoad,
	}
	if !a.StartTime.IsZero() {
		s.Date = a.StartTime.Format("2006-01-02")
	}
	for _, e := range a.BestEfforts {
		s.BestEfforts = append(s.BestEfforts, EffortLine{
			Label: e.Label,
			Time:  runcoach.FormatDuration(e.DurationSec),
			Pace:  runcoach.FormatPace(e.PaceSecPerKm),
		})
	}

	splits := make([]SplitLine, 0, len(a.Splits))
	for _, sp := range a.Splits {
		splits = append(splits, SplitLine{
			KM:           sp.Index,
			Time:         runcoach.FormatDuration(sp.DurationSec),
			Pace:         runcoach.FormatPace(sp.PaceSecPerKm),
			AvgHeartRate: sp.AvgHeartRate,
		})
	}
	return s, splits
}
