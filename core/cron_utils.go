package core

import (
	"fmt"
	"math"
	"time"

	"github.com/robfig/cron/v3"
)

// maxUnboundedDuration is the effectively-infinite job-complete offset used
// when a JobConfig has no stage offsets at all: the window never closes on
// its own, so InWindow is governed entirely by JobStart.
const maxUnboundedDuration = time.Duration(math.MaxInt64)

// windowBuffer absorbs scanner tick jitter past job_complete.
const windowBuffer = 2 * time.Minute

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NowUTC returns the current wall-clock instant in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToZone converts t to the named IANA zone.
func ToZone(t time.Time, zoneID string) (time.Time, error) {
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadZone, zoneID, err)
	}
	return t.In(loc), nil
}

// PreviousFire returns the last instant at or before `from` at which
// cronExpr matches, inclusive of `from` itself (a tie at exact equality
// counts as its own previous fire). robfig/cron/v3's Schedule only exposes
// a forward Next(t); previous-fire is derived by a doubling backward
// search: probe a widening window before `from`, walk Next() forward from
// the window's start, and keep the last result that does not exceed
// `from`.
func PreviousFire(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadSchedule, cronExpr, err)
	}

	// If `from` itself is a fire instant, Next(from.Add(-1ns)) lands on it.
	probe := from.Add(-1 * time.Nanosecond)
	next := schedule.Next(probe)
	if !next.After(from) {
		return next, nil
	}

	window := time.Hour
	const maxWindow = 100 * 365 * 24 * time.Hour
	for window <= maxWindow {
		lowerBound := from.Add(-window)
		cursor := lowerBound
		var last time.Time
		found := false
		for {
			fire := schedule.Next(cursor)
			if fire.After(from) {
				break
			}
			last = fire
			found = true
			cursor = fire
		}
		if found {
			return last, nil
		}
		window *= 2
	}

	return time.Time{}, fmt.Errorf("%w: no fire of %q found before %s", ErrNoPrior, cronExpr, from)
}

// JobStart computes the start of a job's current window at zonedNow.
func JobStart(schedule string, zonedNow time.Time) (time.Time, error) {
	return PreviousFire(schedule, zonedNow)
}

// JobComplete computes the end of the window, before the trailing buffer,
// as jobStart plus the maximum configured stage offset. With no stage
// offsets at all it is effectively unbounded.
func JobComplete(stages []JobStageConfig, jobStart time.Time) time.Time {
	maxOffset := time.Duration(-1)
	for _, s := range stages {
		if o := maxStageOffset(s); o > maxOffset {
			maxOffset = o
		}
	}
	if maxOffset < 0 {
		return jobStart.Add(maxUnboundedDuration)
	}
	return jobStart.Add(maxOffset)
}

func maxStageOffset(s JobStageConfig) time.Duration {
	m := time.Duration(-1)
	if s.Start != nil {
		m = *s.Start
	}
	if s.Complete != nil && *s.Complete > m {
		m = *s.Complete
	}
	return m
}

// InWindow reports whether zonedNow falls within (jobStart, jobComplete+buffer).
func InWindow(zonedNow, jobStart, jobComplete time.Time) bool {
	return zonedNow.After(jobStart) && zonedNow.Before(jobComplete.Add(windowBuffer))
}
