package schedulerepo

import (
	domain "github.com/reports/engine/internal/biz/schedule"
	"github.com/reports/engine/internal/infra/persistence/commonrepo"
)

func (po *SchedulePo) ToDomain() *domain.Schedule {
	return &domain.Schedule{
		ID:                po.ID,
		CreatedAt:         po.CreatedAt,
		UpdatedAt:         po.UpdatedAt,
		ReportID:          po.ReportID,
		CronExpression:    po.CronExpression,
		Timezone:          po.Timezone,
		WindowMode:        po.WindowMode,
		LookbackDays:      po.LookbackDays,
		AnchorAt:          po.AnchorAt,
		DefaultParameters: po.DefaultParameters,
		IsPaused:          po.IsPaused,
		NextRunAt:         po.NextRunAt,
		LastRunAt:         po.LastRunAt,
		RunCount:          po.RunCount,
		FailureCount:      po.FailureCount,
	}
}

func (po *SchedulePo) FromDomain(schedule *domain.Schedule) *SchedulePo {
	return &SchedulePo{
		Model: commonrepo.Model{
			ID:        schedule.ID,
			CreatedAt: schedule.CreatedAt,
			UpdatedAt: schedule.UpdatedAt,
		},
		ReportID:          schedule.ReportID,
		CronExpression:    schedule.CronExpression,
		Timezone:          schedule.Timezone,
		WindowMode:        schedule.WindowMode,
		LookbackDays:      schedule.LookbackDays,
		AnchorAt:          schedule.AnchorAt,
		DefaultParameters: schedule.DefaultParameters,
		IsPaused:          schedule.IsPaused,
		NextRunAt:         schedule.NextRunAt,
		LastRunAt:         schedule.LastRunAt,
		RunCount:          schedule.RunCount,
		FailureCount:      schedule.FailureCount,
	}
}

func patchToMap(input *domain.SchedulePatch) map[string]any {
	var values = make(map[string]any)
	if input.CronExpression != nil {
		values["cron_expression"] = input.CronExpression
	}
	if input.Timezone != nil {
		values["timezone"] = input.Timezone
	}
	if input.DefaultParameters != nil {
		values["default_parameters"] = input.DefaultParameters
	}
	if input.IsPaused != nil {
		values["is_paused"] = input.IsPaused
	}
	if input.NextRunAt != nil {
		values["next_run_at"] = input.NextRunAt
	}
	if input.LastRunAt != nil {
		values["last_run_at"] = input.LastRunAt
	}
	if input.RunCount != nil {
		values["run_count"] = input.RunCount
	}
	if input.FailureCount != nil {
		values["failure_count"] = input.FailureCount
	}
	return values
}
