package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/astromitra/astromitra/internal/horoscope"
)

// EngineOptions converts the horoscope configuration into cache engine options.
func (c HoroscopeConfig) EngineOptions() ([]horoscope.EngineOption, error) {
	var opts []horoscope.EngineOption

	if tz := strings.TrimSpace(c.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("config: horoscope timezone %q: %w", tz, err)
		}
		opts = append(opts, horoscope.WithLocation(loc))
	}

	if c.BatchDelay > 0 {
		opts = append(opts, horoscope.WithBatchDelay(c.BatchDelay))
	}

	return opts, nil
}

// SchedulerOptions converts the configured cron expressions into scheduler options.
func (c HoroscopeConfig) SchedulerOptions() []horoscope.SchedulerOption {
	var opts []horoscope.SchedulerOption

	specs := map[horoscope.Period]string{
		horoscope.Daily:   c.Schedules.Daily,
		horoscope.Weekly:  c.Schedules.Weekly,
		horoscope.Monthly: c.Schedules.Monthly,
		horoscope.Yearly:  c.Schedules.Yearly,
	}
	for period, spec := range specs {
		if spec = strings.TrimSpace(spec); spec != "" {
			opts = append(opts, horoscope.WithPeriodSpec(period, spec))
		}
	}

	if spec := strings.TrimSpace(c.Schedules.Sweep); spec != "" {
		opts = append(opts, horoscope.WithSweepSpec(spec))
	}

	return opts
}
