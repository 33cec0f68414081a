// Package schedule computes open appointment slots from a doctor's working
// sessions and the ranges already booked for a day.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSlotMinutes is the consultation duration used when a schedule does
// not specify one.
const DefaultSlotMinutes = 30

// Window is a contiguous working block within a day, "HH:MM" bounds.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Range is an already-booked interval, half-open [Start, End).
type Range struct {
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

// Slot is a free appointment interval of fixed duration.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DaySchedule is one day's working sessions plus its booked ranges.
// A session with a nil window, or a window missing either bound, is skipped.
type DaySchedule struct {
	Date        string
	Morning     *Window
	Afternoon   *Window
	Evening     *Window
	Booked      []Range
	SlotMinutes int
}

// ComputeSlots walks each defined session in fixed order (morning, afternoon,
// evening) in steps of the slot duration and returns every candidate interval
// that does not overlap a booked range. Zero slots is a valid result.
func ComputeSlots(day DaySchedule) []Slot {
	duration := day.SlotMinutes
	if duration <= 0 {
		duration = DefaultSlotMinutes
	}

	booked := make([][2]int, 0, len(day.Booked))
	for _, r := range day.Booked {
		start, err1 := parseClock(r.Start)
		end, err2 := parseClock(r.End)
		if err1 != nil || err2 != nil {
			continue
		}
		booked = append(booked, [2]int{start, end})
	}

	slots := make([]Slot, 0)
	for _, window := range []*Window{day.Morning, day.Afternoon, day.Evening} {
		slots = appendSessionSlots(slots, window, duration, booked)
	}
	return slots
}

func appendSessionSlots(slots []Slot, window *Window, duration int, booked [][2]int) []Slot {
	if window == nil || window.Start == "" || window.End == "" {
		return slots
	}
	start, err := parseClock(window.Start)
	if err != nil {
		return slots
	}
	end, err := parseClock(window.End)
	if err != nil {
		return slots
	}

	for t := start; t+duration <= end; t += duration {
		if overlapsAny(t, t+duration, booked) {
			continue
		}
		slots = append(slots, Slot{
			Start: formatClock(t),
			End:   formatClock(t + duration),
		})
	}
	return slots
}

// overlapsAny uses the half-open intersection test: a candidate is taken when
// slotStart < bookedEnd and slotEnd > bookedStart.
func overlapsAny(slotStart, slotEnd int, booked [][2]int) bool {
	for _, r := range booked {
		if slotStart < r[1] && slotEnd > r[0] {
			return true
		}
	}
	return false
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("schedule: invalid time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("schedule: invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("schedule: invalid minute in %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("schedule: time out of range %q", s)
	}
	return hour*60 + minute, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
