package service

import (
	"context"
	"strings"
	"time"

	"github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/biz/schedule"
	"github.com/reports/engine/internal/fault"
	"github.com/reports/engine/internal/scheduler"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

type ScheduleService struct {
	scheduleRepo schedule.Repo
	reportRepo   report.Repo
	logger       *zap.Logger
	now          func() time.Time
}

func NewScheduleService(scheduleRepo schedule.Repo, reportRepo report.Repo, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		reportRepo:   reportRepo,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *ScheduleService) WithClock(now func() time.Time) *ScheduleService {
	s.now = now
	return s
}

type CreateScheduleRequest struct {
	ReportID          uint64
	CronExpression    string
	Timezone          string
	WindowMode        schedule.WindowMode
	LookbackDays      int
	AnchorAt          *time.Time
	DefaultParameters map[string]any
}

// CreateSchedule attaches a recurrence to a report. One active schedule
// per report; the recurrence is validated before anything is stored.
func (s *ScheduleService) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*schedule.Schedule, error) {
	rpt, err := s.reportRepo.GetByID(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}
	if rpt == nil {
		return nil, fault.ErrReportNotFound
	}
	if !rpt.IsActive {
		return nil, fault.New(fault.CodeStateConflict, "cannot schedule an inactive report", nil)
	}

	expr := strings.TrimSpace(req.CronExpression)
	if expr == "" {
		expr = rpt.Frequency.CronExpression()
	}
	if expr == "" {
		return nil, fault.New(fault.CodeValidation, "cron expression is required for one-shot reports", nil)
	}
	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if err := scheduler.ValidateRecurrence(expr, tz); err != nil {
		return nil, fault.New(fault.CodeValidation, "invalid recurrence: "+err.Error(), nil)
	}
	mode := req.WindowMode
	if mode == "" {
		mode = schedule.WindowRolling
	}
	if !mode.Valid() {
		return nil, fault.New(fault.CodeValidation, "unknown window mode "+string(mode), nil)
	}
	if req.LookbackDays < 0 {
		return nil, fault.New(fault.CodeValidation, "lookback days must not be negative", nil)
	}

	existing, err := s.scheduleRepo.GetByReportID(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fault.ErrScheduleExists
	}

	now := s.now()
	anchor := now
	if req.AnchorAt != nil {
		anchor = *req.AnchorAt
	}
	next, err := scheduler.NextFire(expr, tz, now)
	if err != nil {
		return nil, fault.New(fault.CodeValidation, "invalid recurrence: "+err.Error(), nil)
	}

	sched := &schedule.Schedule{
		ID:                uint64(idgen.NextId()),
		ReportID:          req.ReportID,
		CronExpression:    expr,
		Timezone:          tz,
		WindowMode:        mode,
		LookbackDays:      req.LookbackDays,
		AnchorAt:          anchor,
		DefaultParameters: req.DefaultParameters,
		NextRunAt:         &next,
	}
	if err := s.scheduleRepo.Create(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *ScheduleService) GetSchedule(ctx context.Context, id uint64) (*schedule.Schedule, error) {
	sched, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, fault.ErrScheduleNotFound
	}
	return sched, nil
}

func (s *ScheduleService) ListSchedules(ctx context.Context, filter *schedule.Filter) ([]*schedule.Schedule, error) {
	return s.scheduleRepo.List(ctx, filter)
}

func (s *ScheduleService) PauseSchedule(ctx context.Context, id uint64) error {
	sched, err := s.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	patch, err := sched.Pause()
	if err != nil {
		return fault.New(fault.CodeStateConflict, err.Error(), nil)
	}
	return s.scheduleRepo.Update(ctx, sched.ID, patch)
}

// ResumeSchedule clears the failure streak and recomputes the next fire
// from now, so a long pause does not replay every missed occurrence.
func (s *ScheduleService) ResumeSchedule(ctx context.Context, id uint64) error {
	sched, err := s.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	patch, err := sched.Resume()
	if err != nil {
		return fault.New(fault.CodeStateConflict, err.Error(), nil)
	}
	next, err := scheduler.NextFire(sched.CronExpression, sched.Timezone, s.now())
	if err != nil {
		return fault.New(fault.CodeInternal, "recompute next fire: "+err.Error(), nil)
	}
	patch.WithNextRunAt(next)
	return s.scheduleRepo.Update(ctx, sched.ID, patch)
}

func (s *ScheduleService) DeleteSchedule(ctx context.Context, id uint64) error {
	if _, err := s.GetSchedule(ctx, id); err != nil {
		return err
	}
	return s.scheduleRepo.Delete(ctx, id)
}
