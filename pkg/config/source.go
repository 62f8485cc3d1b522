package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyTimeFormat   = "time_format"
	KeySlotMachine  = "effects.slot_machine"
	KeyShowDate     = "display_date"
	KeyOffStartTime = "display_off.start_time"
	KeyOffEndTime   = "display_off.end_time"

	EnvPrefix = "NIXIE"
)

var (
	ErrInvalidTimeFormat = errors.New("time format must be \"12\" or \"24\"")
	ErrInvalidInterval   = errors.New("interval must be a positive number of minutes")
	ErrInvalidFlag       = errors.New("flag must be \"yes\" or \"no\"")
)

// Source reads the clock settings from a configuration file and tracks its modification
// time so the file is only parsed again after it changed.
type Source struct {
	path    string
	lastMod time.Time
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

// Path returns the configuration file location.
func (s *Source) Path() string {
	return s.path
}

// HasChanged reports whether the file was modified since the last Load. A missing file
// never counts as a change.
func (s *Source) HasChanged() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	return !info.ModTime().Equal(s.lastMod)
}

// Load parses the file on top of prev. Fields that are missing keep their previous value,
// fields that are malformed keep it as well and are reported as *FieldError, joined.
// The returned config is always usable.
func (s *Source) Load(prev ClockConfig) (ClockConfig, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return prev, fmt.Errorf("stat config file: %w", err)
	}
	// Remember the attempt even if parsing fails, a broken file is not re-read until it changes
	s.lastMod = info.ModTime()

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return prev, fmt.Errorf("read config file: %w", err)
	}

	return Apply(v, prev)
}

// Apply overlays the clock keys present in v onto prev.
func Apply(v *viper.Viper, prev ClockConfig) (ClockConfig, error) {
	next := prev
	var errs []error

	if v.IsSet(KeyTimeFormat) {
		switch raw := v.GetString(KeyTimeFormat); raw {
		case "12":
			next.TwelveHour = true
		case "24":
			next.TwelveHour = false
		default:
			errs = append(errs, &FieldError{Key: KeyTimeFormat, Value: raw, Err: ErrInvalidTimeFormat})
		}
	}

	if v.IsSet(KeySlotMachine) {
		raw := v.GetString(KeySlotMachine)
		interval, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
		if err != nil || interval == 0 {
			errs = append(errs, &FieldError{Key: KeySlotMachine, Value: raw, Err: ErrInvalidInterval})
		} else {
			next.SlotMachineInterval = uint32(interval)
		}
	}

	if v.IsSet(KeyShowDate) {
		raw := v.GetString(KeyShowDate)
		if show, err := parseFlag(raw); err != nil {
			errs = append(errs, &FieldError{Key: KeyShowDate, Value: raw, Err: err})
		} else {
			next.ShowDate = show
		}
	}

	for _, field := range []struct {
		key string
		dst *HourMinute
	}{
		{KeyOffStartTime, &next.OffPeriod.Start},
		{KeyOffEndTime, &next.OffPeriod.End},
	} {
		if !v.IsSet(field.key) {
			continue
		}
		raw := v.GetString(field.key)
		hm, err := ParseHourMinute(raw)
		if err != nil {
			errs = append(errs, &FieldError{Key: field.key, Value: raw, Err: err})
			continue
		}
		*field.dst = hm
	}

	return next, errors.Join(errs...)
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true":
		return true, nil
	case "no", "false":
		return false, nil
	default:
		return false, ErrInvalidFlag
	}
}
