// Package schedule holds the pure slot arithmetic: expanding one weekday's
// availability window into candidate booking start times.
package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"slotly-service/pkg/response"
)

// GenerateSlots expands the [windowStart, windowEnd) wall-clock window into
// an ordered sequence of "HH:MM" start times. Consecutive starts are spaced
// duration+pad minutes apart; pad is the event type's beforeBuffer+afterBuffer.
// A window too short for even one slot, or a non-positive duration, yields an
// empty sequence, not an error.
func GenerateSlots(windowStart, windowEnd string, duration, pad int) ([]string, error) {
	const op = "schedule.GenerateSlots"

	start, err := ParseClock(windowStart)
	if err != nil {
		return nil, fmt.Errorf("%s: window start: %w", op, err)
	}

	end, err := ParseClock(windowEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: window end: %w", op, err)
	}

	if duration <= 0 || start >= end {
		return nil, nil
	}

	var slots []string
	for t := start; t+duration <= end; t += duration + pad {
		slots = append(slots, FormatClock(t))
	}

	return slots, nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	const op = "schedule.ParseClock"

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%s: %q: %w", op, s, response.ErrValidation)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%s: %q: %w", op, s, response.ErrValidation)
	}

	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("%s: %q: %w", op, s, response.ErrValidation)
	}

	return hours*60 + mins, nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
