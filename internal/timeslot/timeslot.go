package timeslot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Increment is the grid every slot boundary must sit on, in minutes.
	Increment = 15

	// MaxVisitMinutes caps the length of a single visit. Schedules are uncapped.
	MaxVisitMinutes = 120

	minutesPerDay = 24 * 60
)

var (
	ErrInvalidStartEnd      = errors.New("start time must be before end time")
	ErrInvalidTimeIncrement = errors.New("start and end times must be in 15-minute increments")
	ErrInvalidClock         = errors.New("invalid clock value")
)

// Clock is a naive local time of day stored as minutes since midnight.
type Clock int

// Unset marks a clock value that was missing or could not be read.
const Unset Clock = -1

// NewClock builds a Clock from an hour and minute. It does not check the grid.
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidClock, hour, minute)
	}
	return Clock(hour*60 + minute), nil
}

// MustClock is NewClock for literals known to be valid.
func MustClock(hour, minute int) Clock {
	c, err := NewClock(hour, minute)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClock accepts "HH:MM" and "HH:MM:SS" (seconds must be zero).
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return NewClock(hour, minute)
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Valid reports whether c lies within a single day.
func (c Clock) Valid() bool { return c >= 0 && c < minutesPerDay }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Slot is a half-open interval [Start, End) of clock time.
type Slot struct {
	Start Clock
	End   Clock
}

// New builds a Slot without validating it.
func New(start, end Clock) Slot {
	return Slot{Start: start, End: end}
}

// Parse builds a Slot from two "HH:MM" strings.
func Parse(start, end string) (Slot, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Slot{}, fmt.Errorf("start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return Slot{}, fmt.Errorf("end: %w", err)
	}
	return Slot{Start: s, End: e}, nil
}

// Readable reports whether both boundaries are real clock values.
func (s Slot) Readable() bool { return s.Start.Valid() && s.End.Valid() }

func (s Slot) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// ValidateQuantized fails unless both boundaries sit on the 15-minute grid.
func ValidateQuantized(s Slot) error {
	if s.Start.Minute()%Increment != 0 || s.End.Minute()%Increment != 0 {
		return ErrInvalidTimeIncrement
	}
	return nil
}

// ValidateOrdering fails when start is not strictly before end. A window that
// spans midnight is reported the same way.
func ValidateOrdering(s Slot) error {
	if s.Start >= s.End {
		return ErrInvalidStartEnd
	}
	return nil
}

// Overlaps uses half-open semantics: touching endpoints do not overlap.
func Overlaps(a, b Slot) bool {
	return a.Start < b.End && a.End > b.Start
}

// Contains reports whether inner lies entirely within outer.
func Contains(outer, inner Slot) bool {
	return outer.Start <= inner.Start && outer.End >= inner.End
}

// DurationMinutes returns end minus start. It is negative for unordered slots.
func DurationMinutes(s Slot) int {
	return int(s.End - s.Start)
}
