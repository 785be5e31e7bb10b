package runcoach

import (
	"fmt"
	"strings"
)

// BuildCoachingNotes turns a parsed activity into a readable training
// summary. The text is deterministic and local; the coach package layers
// remote narrative on top of it.
func BuildCoachingNotes(a *ParsedActivity) string {
	if a == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(
		&b,
		"Run: %.2f km in %s (%s avg pace)\n",
		a.TotalDistanceM/1000.0,
		FormatDuration(a.TotalDurationSec),
		FormatPace(a.AvgPaceSecPerKm),
	)
	if !a.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", a.StartTime.Format("2006-01-02 15:04:05"))
	}
	if a.AvgHeartRate > 0 {
		fmt.Fprintf(&b, "HR %d avg / %d max bpm | Training load %d\n", a.AvgHeartRate, a.MaxHeartRate, a.TrainingLoad)
	}
	if a.AvgCadence > 0 {
		fmt.Fprintf(&b, "Cadence %d avg spm\n", a.AvgCadence)
	}
	if a.ElevationGainM > 0 {
		fmt.Fprintf(&b, "Elevation gain %.0f m\n", a.ElevationGainM)
	}
	if a.Calories > 0 {
		fmt.Fprintf(&b, "Calories %d kcal\n", a.Calories)
	}

	if len(a.Splits) > 0 {
		b.WriteString("\nSplits\n")
		for _, s := range a.Splits {
			line := fmt.Sprintf("- km %d: %s (%s)", s.Index, FormatDuration(s.DurationSec), FormatPace(s.PaceSecPerKm))
			if s.AvgHeartRate > 0 {
				line += fmt.Sprintf(", %d bpm", s.AvgHeartRate)
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	if len(a.BestEfforts) > 0 {
		b.WriteString("\nBest Efforts\n")
		for _, e := range a.BestEfforts {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", e.Label, FormatDuration(e.DurationSec), FormatPace(e.PaceSecPerKm))
		}
	}

	if len(a.HRZones) > 0 {
		b.WriteString("\nHeart Rate Zones\n")
		for _, z := range a.HRZones {
			if z.Seconds <= 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", z.Zone, FormatDuration(z.Seconds), z.Percentage)
		}
	}

	b.WriteString("\nCoaching Notes\n")
	b.WriteString("- ")
	b.WriteString(pacingAssessment(a))
	b.WriteString("\n- ")
	b.WriteString(nextRunSuggestion(a))
	b.WriteByte('\n')

	return strings.TrimSpace(b.String())
}

// classifyPacing compares average pace over the first and second halves of
// the split list: "negative" means the second half was faster by more than
// 2%, "positive" slower by more than 2%, otherwise "even".
func classifyPacing(splits []Split) string {
	if len(splits) < 2 {
		return "even"
	}
	mid := len(splits) / 2
	first := avgSplitPace(splits[:mid])
	second := avgSplitPace(splits[mid:])
	if first <= 0 || second <= 0 {
		return "even"
	}
	switch {
	case second < first*0.98:
		return "negative"
	case second > first*1.02:
		return "positive"
	default:
		return "even"
	}
}

func avgSplitPace(splits []Split) float64 {
	sum := 0.0
	count := 0
	for _, s := range splits {
		if s.PaceSecPerKm > 0 {
			sum += s.PaceSecPerKm
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func pacingAssessment(a *ParsedActivity) string {
	switch classifyPacing(a.Splits) {
	case "negative":
		return "Negative split: you finished faster than you started, a sign of controlled pacing and good late-run strength."
	case "positive":
		return "Positive split: pace faded over the back half; consider a more conservative opening kilometer."
	default:
		if len(a.Splits) >= 2 {
			return "Even pacing throughout; splits were consistent from start to finish."
		}
		return "Too short for split-based pacing analysis; totals look consistent."
	}
}

func nextRunSuggestion(a *ParsedActivity) string {
	if a.TrainingLoad >= 100 {
		return "High training load for this session; schedule an easy day or rest before the next quality run."
	}
	if timeAboveThreshold(a.HRZones) > 0.5 {
		return "A large share of this run sat above threshold; follow with an easy aerobic run to absorb the work."
	}
	return "Load appears manageable; a steady aerobic run or light workout fits well next."
}

// timeAboveThreshold returns the fraction of zoned time in Z4 and above.
func timeAboveThreshold(zones []ZoneDuration) float64 {
	total := 0.0
	hard := 0.0
	for _, z := range zones {
		total += z.Seconds
		if z.MinPctMax >= 88 {
			hard += z.Seconds
		}
	}
	if total == 0 {
		return 0
	}
	return hard / total
}
