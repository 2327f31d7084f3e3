// Package schedule wraps cron expression parsing and next-fire
// computation for the update loop.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule holds a parsed cron expression and its original input.
type Schedule struct {
	spec     string
	schedule cron.Schedule
}

// New parses a standard 5-field cron expression. Descriptors such as
// "@hourly" and "@every 5m" are accepted too.
func New(spec string) (*Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", spec, err)
	}

	return &Schedule{spec: spec, schedule: sched}, nil
}

// Next tells the next scheduled time after now.
func (s *Schedule) Next() time.Time {
	return s.schedule.Next(time.Now())
}

// String gives back the original cron string.
func (s *Schedule) String() string {
	return s.spec
}
