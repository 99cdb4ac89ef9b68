package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// NextFire computes the fire time following after for a standard
// 5-field cron expression evaluated in tz. The cron schedule drops an
// occurrence whose wall time falls inside a spring-forward gap, so the
// plain wall clock is consulted as well: when it yields an occurrence
// strictly before the schedule's answer, the fire happens at the
// shifted wall instant instead. A daily 02:00 schedule therefore fires
// once per local day on either side of a DST transition.
func NextFire(expr string, tz string, after time.Time) (time.Time, error) {
	sched, err := parseSpec(expr, tz)
	if err != nil {
		return time.Time{}, err
	}
	next := sched.Next(after)

	loc := time.Local
	if tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
	}
	wallSched, err := parseSpec(expr, "UTC")
	if err != nil {
		return time.Time{}, err
	}
	la := after.In(loc)
	wall := wallSched.Next(time.Date(la.Year(), la.Month(), la.Day(), la.Hour(), la.Minute(), la.Second(), 0, time.UTC))
	// time.Date normalizes a nonexistent local time forward past the gap.
	cand := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, loc)
	if cand.After(after) && cand.Before(next) {
		return cand, nil
	}
	return next, nil
}

// ValidateRecurrence checks the cron expression and timezone pairing.
func ValidateRecurrence(expr string, tz string) error {
	_, err := parseSpec(expr, tz)
	return err
}

func parseSpec(expr string, tz string) (cron.Schedule, error) {
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		expr = "CRON_TZ=" + tz + " " + expr
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return sched, nil
}
