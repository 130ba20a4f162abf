// Package slots generates the canonical bookable intervals for a business day.
package slots

import (
	"fmt"
	"strconv"
	"strings"
)

// Slot is a single (start, end) interval, both in "HH:MM".
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Label returns the slot in its schedule identity form, "10:00-10:30".
func (s Slot) Label() string {
	return s.Start + "-" + s.End
}

// Duration returns the slot length in minutes, 0 if the slot is malformed.
func (s Slot) Duration() int {
	start, err1 := parseClock(s.Start)
	end, err2 := parseClock(s.End)
	if err1 != nil || err2 != nil {
		return 0
	}
	return end - start
}

// ParseLabel parses a "HH:MM-HH:MM" label back into a Slot.
func ParseLabel(label string) (Slot, error) {
	start, end, found := strings.Cut(label, "-")
	if !found {
		return Slot{}, fmt.Errorf("invalid slot label: %s", label)
	}
	if _, err := parseClock(start); err != nil {
		return Slot{}, fmt.Errorf("invalid slot label %q: %w", label, err)
	}
	if _, err := parseClock(end); err != nil {
		return Slot{}, fmt.Errorf("invalid slot label %q: %w", label, err)
	}
	return Slot{Start: start, End: end}, nil
}

// Generate produces contiguous slots of durationMinutes each, starting at
// workStart:00. A trailing period shorter than durationMinutes is dropped.
// Returns nil when the inputs leave no room for a single slot.
func Generate(workStart, workEnd, durationMinutes int) []Slot {
	if durationMinutes <= 0 || workStart < 0 || workEnd > 24 || workEnd <= workStart {
		return nil
	}

	end := workEnd * 60
	var result []Slot
	for cursor := workStart * 60; cursor+durationMinutes <= end; cursor += durationMinutes {
		result = append(result, Slot{
			Start: formatClock(cursor),
			End:   formatClock(cursor + durationMinutes),
		})
	}
	return result
}

// Labels returns the identity labels for a generated sequence.
func Labels(slots []Slot) []string {
	labels := make([]string, len(slots))
	for i, s := range slots {
		labels[i] = s.Label()
	}
	return labels
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid minute: %w", err)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %s", s)
	}
	return hour*60 + minute, nil
}
