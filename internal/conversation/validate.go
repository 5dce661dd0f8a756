package conversation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidTimeFormat    = errors.New("time must look like HH:MM")
	ErrOutsideBusinessHours = errors.New("time is outside business hours")
)

var timeRegex = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// BusinessHours is the daily window [Open, Close) in whole hours.
type BusinessHours struct {
	Open  int
	Close int
}

// DefaultBusinessHours is 08:00 to 18:00.
var DefaultBusinessHours = BusinessHours{Open: 8, Close: 18}

// Contains reports whether hour falls in the window.
func (h BusinessHours) Contains(hour int) bool {
	return hour >= h.Open && hour < h.Close
}

// ValidateTime checks a requested slot and returns it trimmed.
// Only the hour is range-checked; minutes are accepted as any two digits.
func (h BusinessHours) ValidateTime(input string) (string, error) {
	t := strings.TrimSpace(input)
	if !timeRegex.MatchString(t) {
		return "", ErrInvalidTimeFormat
	}
	hour, err := strconv.Atoi(strings.SplitN(t, ":", 2)[0])
	if err != nil {
		return "", ErrInvalidTimeFormat
	}
	if !h.Contains(hour) {
		return "", ErrOutsideBusinessHours
	}
	return t, nil
}
