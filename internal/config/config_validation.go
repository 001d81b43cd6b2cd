package config

import (
	"time"

	"github.com/alexisbeaulieu97/countdown/internal/target"
	countdownerrors "github.com/alexisbeaulieu97/countdown/pkg/errors"
)

// ValidateConfig performs structural and cross-field validation on an entire configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return countdownerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	switch target.Mode(cfg.Mode) {
	case target.ModeTimer:
		if cfg.Duration <= 0 {
			return countdownerrors.NewValidationError("duration", "timer mode requires a positive duration", nil)
		}
	case target.ModeAbsolute:
		if cfg.Target == "" {
			return countdownerrors.NewValidationError("target", "absolute mode requires a target", nil)
		}
		if _, err := time.Parse(time.RFC3339, cfg.Target); err != nil {
			return countdownerrors.NewInvalidValueError("target", cfg.Target, "absolute target is not RFC 3339", err)
		}
	case target.ModeWallClock:
		if cfg.Target == "" {
			return countdownerrors.NewValidationError("target", "wall-clock mode requires a target", nil)
		}
		if _, err := target.ParseWallClock(cfg.Target); err != nil {
			return countdownerrors.NewValidationError("target", err.Error(), err)
		}
	}

	return nil
}
