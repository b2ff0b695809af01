package types

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownInterval = errors.New("unknown interval")

type Interval string

const (
	OneMinute     Interval = "1"
	FiveMinutes   Interval = "5"
	ThirtyMinutes Interval = "30"
	Hour          Interval = "60"
	FourHours     Interval = "240"
	Day           Interval = "D"
	Week          Interval = "W"
)

var IntervalToTime = map[Interval]time.Duration{
	OneMinute:     time.Minute,
	FiveMinutes:   time.Minute * 5,
	ThirtyMinutes: time.Minute * 30,
	Hour:          time.Hour,
	FourHours:     time.Hour * 4,
	Day:           time.Hour * 24,
	Week:          time.Hour * 24 * 7,
}

// ParseInterval accepts the short codes used in config files ("D", "60", ...).
func ParseInterval(s string) (Interval, error) {
	if s == "" {
		return Day, nil
	}
	i := Interval(s)
	if _, ok := IntervalToTime[i]; !ok {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownInterval)
	}
	return i, nil
}
