package runcoach

import (
	"bytes"
	"math"
	"time"

	"github.com/tormoder/fit"
)

// ParseFIT decodes a binary FIT activity recording and feeds its record
// messages through the same aggregation pipeline as the textual format.
// Invalid FIT sentinel values degrade to absent fields.
func ParseFIT(data []byte) (*ParsedActivity, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &NoDataError{Reason: "malformed document"}
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, &NoDataError{Reason: "not an activity recording"}
	}

	var points []TrackPoint
	for _, rec := range activity.Records {
		if rec == nil {
			continue
		}
		ts := validTimeOrZero(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		p := TrackPoint{Time: ts}
		if d := safePositive(rec.GetDistanceScaled()); d > 0 {
			p.DistanceM = d
		}
		if rec.HeartRate != math.MaxUint8 && rec.HeartRate > 0 {
			p.HeartRate = int(rec.HeartRate)
		}
		if rec.Cadence != math.MaxUint8 && rec.Cadence > 0 {
			// FIT running cadence counts one leg; double it for steps/min.
			p.Cadence = int(rec.Cadence) * 2
		}
		if alt := rec.GetEnhancedAltitudeScaled(); isFinite(alt) {
			p.AltitudeM = alt
			p.HasAltitude = true
		} else if alt := rec.GetAltitudeScaled(); isFinite(alt) {
			p.AltitudeM = alt
			p.HasAltitude = true
		}
		points = append(points, p)
	}

	calories := 0
	for _, session := range activity.Sessions {
		if session == nil {
			continue
		}
		calories += int(validUint16(session.TotalCalories))
	}

	return aggregate(points, calories)
}

// ParseAuto sniffs the recording format and dispatches: a FIT header
// signature selects the binary decoder, anything else is treated as a
// textual TCX document.
func ParseAuto(data []byte) (*ParsedActivity, error) {
	if isFITSignature(data) {
		return ParseFIT(data)
	}
	return ParseActivity(string(data))
}

// isFITSignature checks for the ".FIT" marker at byte offset 8 of the
// file header.
func isFITSignature(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[8:12], []byte(".FIT"))
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}
