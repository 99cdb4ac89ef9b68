package api

import (
	"github.com/gin-gonic/gin"
	domain "github.com/reports/engine/internal/biz/backfill"
	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/biz/schedule"
	"github.com/samber/lo"
)

func reportView(rpt *report.ReportDefinition) gin.H {
	return gin.H{
		"id":              rpt.ID,
		"name":            rpt.Name,
		"owner":           rpt.Owner,
		"target_instance": rpt.TargetInstance,
		"sql_template":    rpt.SQLTemplate,
		"schema":          rpt.Schema,
		"parameters":      rpt.Parameters,
		"frequency":       string(rpt.Frequency),
		"is_active":       rpt.IsActive,
		"created_at":      rpt.CreatedAt,
		"updated_at":      rpt.UpdatedAt,
	}
}

func executionView(exec *execution.Execution) gin.H {
	return gin.H{
		"id":              exec.ID,
		"report_id":       exec.ReportID,
		"segment_id":      exec.SegmentID,
		"trigger_kind":    string(exec.TriggerKind),
		"status":          string(exec.Status),
		"target_instance": exec.TargetInstance,
		"sql":             exec.SQL,
		"parameters":      exec.ParameterSnapshot,
		"window_start":    exec.WindowStart,
		"window_end":      exec.WindowEnd,
		"job_id":          exec.JobID,
		"result_location": exec.ResultLocation,
		"row_count":       exec.RowCount,
		"byte_count":      exec.ByteCount,
		"error_kind":      string(exec.ErrorKind),
		"error_message":   exec.ErrorMessage,
		"start_time":      exec.StartTime,
		"end_time":        exec.EndTime,
		"created_at":      exec.CreatedAt,
	}
}

func scheduleView(sched *schedule.Schedule) gin.H {
	return gin.H{
		"id":                 sched.ID,
		"report_id":          sched.ReportID,
		"cron_expression":    sched.CronExpression,
		"timezone":           sched.Timezone,
		"window_mode":        string(sched.WindowMode),
		"lookback_days":      sched.LookbackDays,
		"anchor_at":          sched.AnchorAt,
		"default_parameters": sched.DefaultParameters,
		"is_paused":          sched.IsPaused,
		"next_run_at":        sched.NextRunAt,
		"last_run_at":        sched.LastRunAt,
		"run_count":          sched.RunCount,
		"failure_count":      sched.FailureCount,
		"created_at":         sched.CreatedAt,
	}
}

func collectionView(collection *domain.BackfillCollection) gin.H {
	return gin.H{
		"id":            collection.ID,
		"report_id":     collection.ReportID,
		"granularity":   string(collection.Granularity),
		"lookback_days": collection.LookbackDays,
		"end_date":      collection.EndDate,
		"segment_count": collection.SegmentCount,
		"status":        string(collection.Status),
		"created_at":    collection.CreatedAt,
	}
}

func segmentView(seg *domain.Segment) gin.H {
	return gin.H{
		"id":            seg.ID,
		"collection_id": seg.CollectionID,
		"position":      seg.Position,
		"range_start":   seg.RangeStart,
		"range_end":     seg.RangeEnd,
		"status":        string(seg.Status),
		"execution_id":  seg.ExecutionID,
		"attempts":      seg.Attempts,
	}
}

func executionViews(items []*execution.Execution) []gin.H {
	return lo.Map(items, func(e *execution.Execution, _ int) gin.H { return executionView(e) })
}

func segmentViews(items []*domain.Segment) []gin.H {
	return lo.Map(items, func(s *domain.Segment, _ int) gin.H { return segmentView(s) })
}
