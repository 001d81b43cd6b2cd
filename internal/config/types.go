package config

import (
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/countdown/internal/target"
)

// Default values applied before the file and environment are read.
const (
	DefaultMode      = string(target.ModeTimer)
	DefaultDuration  = 5 * time.Minute
	DefaultTimezone  = "UTC"
	DefaultTheme     = "grid"
	DefaultColorMode = "system"
	DefaultMessage   = "Time's up!"
)

// Config is the persisted countdown configuration.
type Config struct {
	Mode          string        `koanf:"mode" yaml:"mode" validate:"required,countdown_mode"`
	Target        string        `koanf:"target" yaml:"target,omitempty"`
	Duration      time.Duration `koanf:"duration" yaml:"duration,omitempty" validate:"gte=0"`
	Timezone      string        `koanf:"timezone" yaml:"timezone" validate:"required,tzid"`
	Timezones     []string      `koanf:"timezones" yaml:"timezones,omitempty" validate:"dive,tzid"`
	Theme         string        `koanf:"theme" yaml:"theme" validate:"omitempty,theme_id"`
	Message       string        `koanf:"message" yaml:"message,omitempty" validate:"max=120"`
	ColorMode     string        `koanf:"color_mode" yaml:"color_mode" validate:"omitempty,oneof=system light dark"`
	ReducedMotion bool          `koanf:"reduced_motion" yaml:"reduced_motion"`
}

// DefaultConfig returns a five minute timer in UTC with the default theme.
func DefaultConfig() *Config {
	return &Config{
		Mode:      DefaultMode,
		Duration:  DefaultDuration,
		Timezone:  DefaultTimezone,
		Theme:     DefaultTheme,
		ColorMode: DefaultColorMode,
		Message:   DefaultMessage,
	}
}

// Moment converts the configured target into a target.Moment. The config
// must have passed ValidateConfig.
func (c *Config) Moment() (target.Moment, error) {
	switch target.Mode(c.Mode) {
	case target.ModeTimer:
		return target.Timer(c.Duration), nil
	case target.ModeAbsolute:
		t, err := time.Parse(time.RFC3339, c.Target)
		if err != nil {
			return target.Moment{}, fmt.Errorf("parse absolute target: %w", err)
		}
		return target.Absolute(t), nil
	case target.ModeWallClock:
		w, err := target.ParseWallClock(c.Target)
		if err != nil {
			return target.Moment{}, err
		}
		return target.Wall(w), nil
	default:
		return target.Moment{}, fmt.Errorf("unknown mode %q", c.Mode)
	}
}

// ZoneCycle returns the timezones the host cycles through, always starting
// with the configured one.
func (c *Config) ZoneCycle() []string {
	out := []string{c.Timezone}
	seen := map[string]bool{c.Timezone: true}
	for _, tz := range c.Timezones {
		if !seen[tz] {
			seen[tz] = true
			out = append(out, tz)
		}
	}
	return out
}
