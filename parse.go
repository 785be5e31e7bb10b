package runcoach

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

// TCX document shape. Numeric leaves are declared as strings so one
// unparseable value degrades to its default instead of failing the whole
// unmarshal; extraction is best-effort, never all-or-nothing.
type tcxDocument struct {
	XMLName    xml.Name      `xml:"TrainingCenterDatabase"`
	Activities []tcxActivity `xml:"Activities>Activity"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	Calories    string          `xml:"Calories"`
	Trackpoints []tcxTrackpoint `xml:"Track>Trackpoint"`
}

type tcxTrackpoint struct {
	Time           string `xml:"Time"`
	DistanceMeters string `xml:"DistanceMeters"`
	AltitudeMeters string `xml:"AltitudeMeters"`
	HeartRate      string `xml:"HeartRateBpm>Value"`
	Cadence        string `xml:"Cadence"`
	RunCadence     string `xml:"Extensions>TPX>RunCadence"`
}

// ParseActivity parses a textual track recording (TCX) into a structured
// activity summary: totals, per-kilometer splits, best efforts and a
// downsampled chart series. It is a pure function of its input: no I/O, no
// retained state, and parsing the same document twice yields structurally
// identical output.
//
// It fails with *NoDataError when the document holds zero trackable samples;
// any individual missing or unparseable field falls back to a default.
func ParseActivity(document string) (*ParsedActivity, error) {
	var doc tcxDocument
	if err := xml.Unmarshal([]byte(document), &doc); err != nil {
		return nil, &NoDataError{Reason: "malformed document"}
	}

	points, calories := collectSamples(doc)
	return aggregate(points, calories)
}

// collectSamples flattens every lap of every activity into one ordered
// sample sequence. A trackpoint without a parseable timestamp is dropped;
// everything else degrades per field.
func collectSamples(doc tcxDocument) ([]TrackPoint, int) {
	var points []TrackPoint
	calories := 0

	for _, act := range doc.Activities {
		for _, lap := range act.Laps {
			if kcal, ok := parseInt(lap.Calories); ok {
				calories += kcal
			}
			for _, tp := range lap.Trackpoints {
				ts, err := time.Parse(time.RFC3339, strings.TrimSpace(tp.Time))
				if err != nil {
					continue
				}
				p := TrackPoint{Time: ts}
				if v, ok := parseFloat(tp.DistanceMeters); ok {
					p.DistanceM = v
				}
				if v, ok := parseFloat(tp.AltitudeMeters); ok {
					p.AltitudeM = v
					p.HasAltitude = true
				}
				if v, ok := parseInt(tp.HeartRate); ok && v > 0 {
					p.HeartRate = v
				}
				if v, ok := parseInt(tp.RunCadence); ok && v > 0 {
					p.Cadence = v
				} else if v, ok := parseInt(tp.Cadence); ok && v > 0 {
					p.Cadence = v
				}
				points = append(points, p)
			}
		}
	}
	return points, calories
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Some exporters write integral fields with a decimal point.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		return int(f), true
	}
	return v, true
}
