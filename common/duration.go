package common

import (
	"fmt"
	"time"
)

// Duration decodes from strings like "15s" in option maps and config
// files. Negative durations are rejected at decode time.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	dd, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}

	if dd < 0 {
		return fmt.Errorf("duration should be positive, but got %s", dd)
	}

	*d = Duration(dd)
	return nil
}
