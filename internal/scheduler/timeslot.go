package scheduler

import (
	"fmt"
	"strings"
)

// ClockTime is a time of day expressed as minutes from midnight.
type ClockTime int

// ParseClockTime parses a 24-hour "HH:MM" value.
func ParseClockTime(value string) (ClockTime, error) {
	var hours, minutes int
	if _, err := fmt.Sscanf(value, "%2d:%2d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("scheduler: invalid clock time %q", value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 || len(value) != 5 {
		return 0, fmt.Errorf("scheduler: invalid clock time %q", value)
	}
	return ClockTime(hours*60 + minutes), nil
}

// String formats the time of day as 24-hour "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// TimeSlot is a bounded interval within a single day during which a
// collection visit occurs.
type TimeSlot struct {
	Start ClockTime
	End   ClockTime
}

// Slot boundaries for the canonical catalog. Collections run inside the
// operating window on half-hour boundaries in windows of 30 to 90 minutes.
const (
	slotWindowOpen  = ClockTime(7 * 60)
	slotWindowClose = ClockTime(19 * 60)
	slotGrain       = 30
	slotMaxLength   = 90
)

// ParseTimeSlot parses a "HH:MM-HH:MM" interval.
func ParseTimeSlot(value string) (TimeSlot, error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return TimeSlot{}, fmt.Errorf("scheduler: invalid time slot %q", value)
	}
	start, err := ParseClockTime(strings.TrimSpace(parts[0]))
	if err != nil {
		return TimeSlot{}, fmt.Errorf("scheduler: invalid time slot %q", value)
	}
	end, err := ParseClockTime(strings.TrimSpace(parts[1]))
	if err != nil {
		return TimeSlot{}, fmt.Errorf("scheduler: invalid time slot %q", value)
	}
	return TimeSlot{Start: start, End: end}, nil
}

// String formats the slot as "HH:MM-HH:MM".
func (s TimeSlot) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// IsZero reports whether the slot is the zero value.
func (s TimeSlot) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Overlaps reports whether two slots share any instant.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start < other.End && other.Start < s.End
}

// Canonical reports whether the slot belongs to the enumerated catalog:
// half-hour aligned, inside the operating window, between 30 and 90 minutes.
func (s TimeSlot) Canonical() bool {
	if s.Start < slotWindowOpen || s.End > slotWindowClose {
		return false
	}
	if int(s.Start)%slotGrain != 0 || int(s.End)%slotGrain != 0 {
		return false
	}
	length := int(s.End - s.Start)
	return length >= slotGrain && length <= slotMaxLength
}

// Slots enumerates the full canonical catalog in ascending start order.
func Slots() []TimeSlot {
	slots := make([]TimeSlot, 0, 72)
	for start := slotWindowOpen; start < slotWindowClose; start += slotGrain {
		for length := slotGrain; length <= slotMaxLength; length += slotGrain {
			end := start + ClockTime(length)
			if end > slotWindowClose {
				break
			}
			slots = append(slots, TimeSlot{Start: start, End: end})
		}
	}
	return slots
}
