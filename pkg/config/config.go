package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTime = errors.New("invalid time of day")

// HourMinute is a time of day with minute resolution.
type HourMinute struct {
	Hour   int
	Minute int
}

// ParseHourMinute parses "HH:MM" (24 hour clock).
func ParseHourMinute(s string) (HourMinute, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return HourMinute{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return HourMinute{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return HourMinute{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return HourMinute{Hour: hour, Minute: minute}, nil
}

// Of returns the time of day of t.
func Of(t time.Time) HourMinute {
	return HourMinute{Hour: t.Hour(), Minute: t.Minute()}
}

func (hm HourMinute) minutes() int {
	return hm.Hour*60 + hm.Minute
}

func (hm HourMinute) String() string {
	return fmt.Sprintf("%02d:%02d", hm.Hour, hm.Minute)
}

// OffPeriod is the window during which the tubes stay dark. Start is inclusive, End is
// exclusive. A window with Start after End spans midnight; Start equal to End is empty.
type OffPeriod struct {
	Start HourMinute
	End   HourMinute
}

// Contains reports whether tod falls inside the window.
func (p OffPeriod) Contains(tod HourMinute) bool {
	start, end, now := p.Start.minutes(), p.End.minutes(), tod.minutes()
	if start <= end {
		return now >= start && now < end
	}
	return now >= start || now < end
}

func (p OffPeriod) String() string {
	return p.Start.String() + "-" + p.End.String()
}

// ClockConfig is an immutable snapshot of the user facing clock settings.
type ClockConfig struct {
	// TwelveHour selects the 12 hour format with a blanked leading zero
	TwelveHour bool
	// SlotMachineInterval is the number of minutes between slot machine effects
	SlotMachineInterval uint32
	// ShowDate shows the date at the top of every hour
	ShowDate bool
	// OffPeriod is the time of day the tubes are turned off
	OffPeriod OffPeriod
}

// DefaultClockConfig returns the settings used until a configuration file is read.
func DefaultClockConfig() ClockConfig {
	return ClockConfig{
		TwelveHour:          false,
		SlotMachineInterval: 2,
		ShowDate:            false,
		OffPeriod: OffPeriod{
			Start: HourMinute{Hour: 0, Minute: 0},
			End:   HourMinute{Hour: 8, Minute: 0},
		},
	}
}

// FieldError reports a configuration value that could not be applied. The previous value
// of the field is kept.
type FieldError struct {
	Key   string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config key %q (value %v): %v", e.Key, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
