// Package timefmt renders hunt durations for display.
package timefmt

import "fmt"

// Format renders seconds as HH:MM:SS, dropping the hour segment when it is zero.
// Negative input is not supported; callers validate before formatting.
func Format(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FromParts converts an hours/minutes/seconds form into total seconds.
func FromParts(hours, minutes, seconds int) int {
	return hours*3600 + minutes*60 + seconds
}
