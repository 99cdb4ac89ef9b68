package schedule

import (
	"errors"
	"time"
)

// Schedule drives recurring execution of one report definition. At most
// one active schedule exists per report; that invariant is what keeps
// fires for the same report from overlapping.
type Schedule struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	ReportID          uint64
	CronExpression    string
	Timezone          string
	WindowMode        WindowMode
	LookbackDays      int
	AnchorAt          time.Time
	DefaultParameters map[string]any

	IsPaused     bool
	NextRunAt    *time.Time
	LastRunAt    *time.Time
	RunCount     int
	FailureCount int
}

func (s *Schedule) Pause() (*SchedulePatch, error) {
	if s.IsPaused {
		return nil, errors.New("schedule is already paused")
	}
	s.IsPaused = true
	return new(SchedulePatch).WithIsPaused(true), nil
}

// Resume clears the failure streak so a manually resumed schedule does
// not immediately re-trip the auto-pause threshold.
func (s *Schedule) Resume() (*SchedulePatch, error) {
	if !s.IsPaused {
		return nil, errors.New("schedule is not paused")
	}
	s.IsPaused = false
	s.FailureCount = 0
	return new(SchedulePatch).WithIsPaused(false).WithFailureCount(0), nil
}

// RecordFire advances counters after a successful dispatch.
func (s *Schedule) RecordFire(firedAt time.Time, nextRunAt time.Time) *SchedulePatch {
	s.LastRunAt = &firedAt
	s.NextRunAt = &nextRunAt
	s.RunCount++
	s.FailureCount = 0
	return new(SchedulePatch).
		WithLastRunAt(firedAt).
		WithNextRunAt(nextRunAt).
		WithRunCount(s.RunCount).
		WithFailureCount(0)
}

// RecordFailure counts a failed fire and auto-pauses once the streak
// reaches threshold. While paused, NextRunAt stops advancing.
func (s *Schedule) RecordFailure(nextRunAt time.Time, threshold int) *SchedulePatch {
	s.FailureCount++
	patch := new(SchedulePatch).WithFailureCount(s.FailureCount)
	if s.FailureCount >= threshold {
		s.IsPaused = true
		patch.WithIsPaused(true)
	} else {
		s.NextRunAt = &nextRunAt
		patch.WithNextRunAt(nextRunAt)
	}
	return patch
}

// Window computes the effective date window for a fire at now. The end
// bound is clamped back by the warehouse reporting lag.
func (s *Schedule) Window(now time.Time, reportingLagDays int) (time.Time, time.Time) {
	switch s.WindowMode {
	case WindowFixed:
		return s.AnchorAt.AddDate(0, 0, -s.LookbackDays), s.AnchorAt
	default:
		end := now.AddDate(0, 0, -reportingLagDays)
		return end.AddDate(0, 0, -s.LookbackDays), end
	}
}

type SchedulePatch struct {
	CronExpression    *string
	Timezone          *string
	DefaultParameters *map[string]any
	IsPaused          *bool
	NextRunAt         *time.Time
	LastRunAt         *time.Time
	RunCount          *int
	FailureCount      *int
}

func NewSchedulePatch() *SchedulePatch {
	return &SchedulePatch{}
}

func (p *SchedulePatch) WithCronExpression(expr string) *SchedulePatch {
	p.CronExpression = &expr
	return p
}

func (p *SchedulePatch) WithTimezone(tz string) *SchedulePatch {
	p.Timezone = &tz
	return p
}

func (p *SchedulePatch) WithDefaultParameters(params map[string]any) *SchedulePatch {
	p.DefaultParameters = &params
	return p
}

func (p *SchedulePatch) WithIsPaused(paused bool) *SchedulePatch {
	p.IsPaused = &paused
	return p
}

func (p *SchedulePatch) WithNextRunAt(t time.Time) *SchedulePatch {
	p.NextRunAt = &t
	return p
}

func (p *SchedulePatch) WithLastRunAt(t time.Time) *SchedulePatch {
	p.LastRunAt = &t
	return p
}

func (p *SchedulePatch) WithRunCount(n int) *SchedulePatch {
	p.RunCount = &n
	return p
}

func (p *SchedulePatch) WithFailureCount(n int) *SchedulePatch {
	p.FailureCount = &n
	return p
}
