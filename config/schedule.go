package config

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	defaultScheduleTime     = "07:00"
	defaultScheduleTimezone = "Local"
)

var timeRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

type ScheduleCfg struct {
	// Time is the daily run time in 24h "HH:MM" form.
	Time string `yaml:"time"`

	// Timezone is an IANA zone name the Time is interpreted in.
	Timezone string `yaml:"timezone"`
}

func (cfg *ScheduleCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *ScheduleCfg) adjust() {
	if cfg.Time == "" {
		cfg.Time = defaultScheduleTime
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaultScheduleTimezone
	}
}

// Clock splits Time into hour and minute.
func (cfg *ScheduleCfg) Clock() (hour, minute int, err error) {
	m := timeRegex.FindStringSubmatch(cfg.Time)
	if m == nil {
		return 0, 0, fmt.Errorf("schedule.time must be HH:MM, got %q", cfg.Time)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}
