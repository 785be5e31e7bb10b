package runcoach

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds as M:SS, or H:MM:SS from one hour up.
func FormatDuration(seconds float64) string {
	s := int(math.Round(seconds))
	if s < 0 {
		s = 0
	}
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// FormatPace renders seconds-per-kilometer as M'SS"/km.
func FormatPace(secPerKm float64) string {
	s := int(math.Round(secPerKm))
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%d'%02d\"/km", s/60, s%60)
}
