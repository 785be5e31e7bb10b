package runcoach

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

var testStart = time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC)

type testSample struct {
	offsetSec int
	distance  float64
	hr        int
	cadence   int
	altitude  float64
	hasAlt    bool
}

func buildTCX(t *testing.T, calories int, samples []testSample) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<TrainingCenterDatabase><Activities><Activity Sport="Running"><Lap StartTime="`)
	b.WriteString(testStart.Format(time.RFC3339))
	b.WriteString(`">`)
	if calories > 0 {
		fmt.Fprintf(&b, "<Calories>%d</Calories>", calories)
	}
	b.WriteString("<Track>")
	for _, s := range samples {
		b.WriteString("<Trackpoint>")
		fmt.Fprintf(&b, "<Time>%s</Time>", testStart.Add(time.Duration(s.offsetSec)*time.Second).Format(time.RFC3339))
		fmt.Fprintf(&b, "<DistanceMeters>%.2f</DistanceMeters>", s.distance)
		if s.hasAlt {
			fmt.Fprintf(&b, "<AltitudeMeters>%.2f</AltitudeMeters>", s.altitude)
		}
		if s.hr > 0 {
			fmt.Fprintf(&b, "<HeartRateBpm><Value>%d</Value></HeartRateBpm>", s.hr)
		}
		if s.cadence > 0 {
			fmt.Fprintf(&b, "<Extensions><TPX><RunCadence>%d</RunCadence></TPX></Extensions>", s.cadence)
		}
		b.WriteString("</Trackpoint>")
	}
	b.WriteString("</Track></Lap></Activity></Activities></TrainingCenterDatabase>")
	return b.String()
}

// steadyRun is 11 samples covering exactly 2000 m in 600 s at 150 bpm.
func steadyRun() []testSample {
	samples := make([]testSample, 0, 11)
	for i := 0; i <= 10; i++ {
		samples = append(samples, testSample{
			offsetSec: i * 60,
			distance:  float64(i) * 200,
			hr:        150,
			cadence:   170,
		})
	}
	return samples
}

func TestParseActivityNoSamples(t *testing.T) {
	cases := map[string]string{
		"empty document": `<TrainingCenterDatabase></TrainingCenterDatabase>`,
		"no trackpoints": buildTCX(t, 0, nil),
		"not xml":        "definitely not a recording",
	}
	for name, doc := range cases {
		_, err := ParseActivity(doc)
		if err == nil {
			t.Fatalf("%s: expected error, got none", name)
		}
		var noData *NoDataError
		if !errors.As(err, &noData) {
			t.Fatalf("%s: expected NoDataError, got %T: %v", name, err, err)
		}
		if !errors.Is(err, ErrNoData) {
			t.Fatalf("%s: error does not match the ErrNoData sentinel: %v", name, err)
		}
	}
}

func TestParseActivitySteadyTwoKilometers(t *testing.T) {
	a, err := ParseActivity(buildTCX(t, 180, steadyRun()))
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}

	if a.TotalDistanceM != 2000 {
		t.Fatalf("total distance = %v, want 2000", a.TotalDistanceM)
	}
	if a.TotalDurationSec != 600 {
		t.Fatalf("total duration = %v, want 600", a.TotalDurationSec)
	}
	if a.AvgHeartRate != 150 || a.MaxHeartRate != 150 {
		t.Fatalf("hr = %d avg / %d max, want 150/150", a.AvgHeartRate, a.MaxHeartRate)
	}
	if a.AvgCadence != 170 {
		t.Fatalf("avg cadence = %d, want 170", a.AvgCadence)
	}
	if a.AvgPaceSecPerKm != 300 {
		t.Fatalf("avg pace = %v, want 300", a.AvgPaceSecPerKm)
	}
	if a.Calories != 180 {
		t.Fatalf("calories = %d, want 180", a.Calories)
	}
	// 10 minutes at avg == max heart rate.
	if a.TrainingLoad != 100 {
		t.Fatalf("training load = %d, want 100", a.TrainingLoad)
	}

	if len(a.Splits) != 2 {
		t.Fatalf("splits = %d, want 2", len(a.Splits))
	}
	for i, s := range a.Splits {
		if s.Index != i+1 {
			t.Fatalf("split %d has index %d", i, s.Index)
		}
		if s.DurationSec != 300 {
			t.Fatalf("split %d duration = %v, want 300", i, s.DurationSec)
		}
		if s.AvgHeartRate != 150 {
			t.Fatalf("split %d avg hr = %d, want 150", i, s.AvgHeartRate)
		}
		if s.DistanceM != 1000 {
			t.Fatalf("split %d distance = %v, want 1000", i, s.DistanceM)
		}
	}

	if len(a.BestEfforts) != 1 {
		t.Fatalf("best efforts = %d, want just the 1k", len(a.BestEfforts))
	}
	if a.BestEfforts[0].Label != "1k" {
		t.Fatalf("best effort label = %q, want 1k", a.BestEfforts[0].Label)
	}
	if a.BestEfforts[0].DurationSec != 300 {
		t.Fatalf("1k best effort = %v, want 300", a.BestEfforts[0].DurationSec)
	}
}

func TestParseActivityDistanceNeverDecreases(t *testing.T) {
	samples := []testSample{
		{offsetSec: 0, distance: 0},
		{offsetSec: 10, distance: 120},
		{offsetSec: 20, distance: 90}, // GPS jitter/reset
		{offsetSec: 30, distance: 250},
		{offsetSec: 40, distance: 240},
	}
	a, err := ParseActivity(buildTCX(t, 0, samples))
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}
	if a.TotalDistanceM != 250 {
		t.Fatalf("total distance = %v, want running max 250", a.TotalDistanceM)
	}

	prev := -1.0
	for i, p := range a.Series {
		if p.DistanceM < prev {
			t.Fatalf("series distance decreased at %d: %v < %v", i, p.DistanceM, prev)
		}
		prev = p.DistanceM
	}
}

func TestElevationGainNoiseFilter(t *testing.T) {
	samples := []testSample{
		{offsetSec: 0, distance: 0, altitude: 100, hasAlt: true},
		{offsetSec: 10, distance: 50, altitude: 100.1, hasAlt: true}, // below threshold
		{offsetSec: 20, distance: 100, altitude: 101, hasAlt: true},  // +0.9
		{offsetSec: 30, distance: 150, altitude: 99, hasAlt: true},   // descent ignored
		{offsetSec: 40, distance: 200, altitude: 100.5, hasAlt: true}, // +1.5
	}
	a, err := ParseActivity(buildTCX(t, 0, samples))
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}
	if diff := a.ElevationGainM - 2.4; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("elevation gain = %v, want 2.4", a.ElevationGainM)
	}
}

func TestElevationGainZeroOnDescent(t *testing.T) {
	samples := make([]testSample, 0, 10)
	for i := 0; i < 10; i++ {
		samples = append(samples, testSample{
			offsetSec: i * 10,
			distance:  float64(i) * 100,
			altitude:  500 - float64(i)*3,
			hasAlt:    true,
		})
	}
	a, err := ParseActivity(buildTCX(t, 0, samples))
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}
	if a.ElevationGainM != 0 {
		t.Fatalf("elevation gain = %v, want 0 for a pure descent", a.ElevationGainM)
	}
}

func TestSplitWithoutHeartRateSamples(t *testing.T) {
	samples := make([]testSample, 0, 6)
	for i := 0; i <= 5; i++ {
		samples = append(samples, testSample{offsetSec: i * 60, distance: float64(i) * 220})
	}
	a, err := ParseActivity(buildTCX(t, 0, samples))
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}
	if len(a.Splits) != 1 {
		t.Fatalf("splits = %d, want 1", len(a.Splits))
	}
	if a.Splits[0].AvgHeartRate != 0 {
		t.Fatalf("split avg hr = %d, want exactly 0", a.Splits[0].AvgHeartRate)
	}
	if a.AvgHeartRate != 0 || a.MaxHeartRate != 0 {
		t.Fatalf("activity hr = %d/%d, want 0/0", a.AvgHeartRate, a.MaxHeartRate)
	}
	if a.TrainingLoad != 0 {
		t.Fatalf("training load = %d, want 0 without HR", a.TrainingLoad)
	}
}

func TestSparseRecordingClosesOneSplitPerSample(t *testing.T) {
	// A sample gap spanning two kilometer boundaries closes only the first
	// split on the jump sample; the second closes on the sample after it.
	samples := []testSample{
		{offsetSec: 0, distance: 0},
		{offsetSec: 100, distance: 2200},
		{offsetSec: 200, distance: 2400},
	}
	a, err := ParseActivity(buildTCX(t, 0, samples))
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}
	if len(a.Splits) != 2 {
		t.Fatalf("splits = %d, want 2", len(a.Splits))
	}
	first, second := a.Splits[0], a.Splits[1]
	if first.DurationSec != 100 || first.DistanceM != 2200 {
		t.Fatalf("first split = %vs over %vm, want 100s over 2200m", first.DurationSec, first.DistanceM)
	}
	if second.DurationSec != 100 || second.DistanceM != 200 {
		t.Fatalf("second split = %vs over %vm, want 100s over 200m", second.DurationSec, second.DistanceM)
	}

	// When the multi-kilometer jump is the last sample, the split past the
	// first boundary never closes.
	trailing := []testSample{
		{offsetSec: 0, distance: 0},
		{offsetSec: 100, distance: 2200},
	}
	a, err = ParseActivity(buildTCX(t, 0, trailing))
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}
	if len(a.Splits) != 1 {
		t.Fatalf("trailing jump splits = %d, want 1", len(a.Splits))
	}
	if a.Splits[0].DurationSec != 100 || a.Splits[0].DistanceM != 2200 {
		t.Fatalf("trailing jump split = %vs over %vm, want 100s over 2200m",
			a.Splits[0].DurationSec, a.Splits[0].DistanceM)
	}
}

func TestShortRecordingHasNoSplits(t *testing.T) {
	samples := []testSample{
		{offsetSec: 0, distance: 0},
		{offsetSec: 60, distance: 400},
		{offsetSec: 120, distance: 900},
	}
	a, err := ParseActivity(buildTCX(t, 0, samples))
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}
	if len(a.Splits) != 0 {
		t.Fatalf("splits = %d, want 0 under one kilometer", len(a.Splits))
	}
	if len(a.BestEfforts) != 0 {
		t.Fatalf("best efforts = %d, want 0 under one kilometer", len(a.BestEfforts))
	}
}

func TestDegradedFieldsDoNotAbortParse(t *testing.T) {
	doc := `<?xml version="1.0"?>
	<TrainingCenterDatabase><Activities><Activity Sport="Running"><Lap>
	<Calories>abc</Calories>
	<Track>
	<Trackpoint><Time>2026-03-01T06:30:00Z</Time><DistanceMeters>zero</DistanceMeters><HeartRateBpm><Value>??</Value></HeartRateBpm></Trackpoint>
	<Trackpoint><Time>not-a-time</Time><DistanceMeters>100</DistanceMeters></Trackpoint>
	<Trackpoint><Time>2026-03-01T06:31:00Z</Time><DistanceMeters>250</DistanceMeters><HeartRateBpm><Value>142</Value></HeartRateBpm></Trackpoint>
	</Track></Lap></Activity></Activities></TrainingCenterDatabase>`

	a, err := ParseActivity(doc)
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}
	if a.TotalDistanceM != 250 {
		t.Fatalf("total distance = %v, want 250", a.TotalDistanceM)
	}
	if a.TotalDurationSec != 60 {
		t.Fatalf("total duration = %v, want 60", a.TotalDurationSec)
	}
	if a.AvgHeartRate != 142 {
		t.Fatalf("avg hr = %d, want the single valid sample 142", a.AvgHeartRate)
	}
	if a.Calories != 0 {
		t.Fatalf("calories = %d, want 0 when unparseable", a.Calories)
	}
}

func TestParseActivityIdempotent(t *testing.T) {
	doc := buildTCX(t, 120, steadyRun())

	first, err := ParseActivity(doc)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, err := ParseActivity(doc)
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("parsing the same document twice produced different results")
	}
}

func TestHeartRateZonesAccumulate(t *testing.T) {
	a, err := ParseActivity(buildTCX(t, 0, steadyRun()))
	if err != nil {
		t.Fatalf("ParseActivity error: %v", err)
	}
	if len(a.HRZones) == 0 {
		t.Fatal("expected HR zones for a recording with heart rate")
	}
	total := 0.0
	for _, z := range a.HRZones {
		if z.Seconds < 0 {
			t.Fatalf("zone %s has negative time", z.Zone)
		}
		total += z.Seconds
	}
	// Constant HR at the observed max puts all zoned time in Z5.
	if total != 600 {
		t.Fatalf("zoned time = %v, want 600", total)
	}
	top := a.HRZones[len(a.HRZones)-1]
	if top.Seconds != 600 {
		t.Fatalf("Z5 time = %v, want 600 at constant max HR", top.Seconds)
	}
}
