package executionrepo

import (
	domain "github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/infra/persistence/commonrepo"
)

func (po *ExecutionPo) ToDomain() *domain.Execution {
	return &domain.Execution{
		ID:                po.ID,
		CreatedAt:         po.CreatedAt,
		UpdatedAt:         po.UpdatedAt,
		ReportID:          po.ReportID,
		SegmentID:         po.SegmentID,
		TriggerKind:       po.TriggerKind,
		Status:            po.Status,
		TargetInstance:    po.TargetInstance,
		SQL:               po.SQL,
		ParameterSnapshot: po.ParameterSnapshot,
		WindowStart:       po.WindowStart,
		WindowEnd:         po.WindowEnd,
		JobID:             po.JobID,
		ResultLocation:    po.ResultLocation,
		RowCount:          po.RowCount,
		ByteCount:         po.ByteCount,
		ErrorKind:         po.ErrorKind,
		ErrorMessage:      po.ErrorMessage,
		StartTime:         po.StartTime,
		EndTime:           po.EndTime,
	}
}

func (po *ExecutionPo) FromDomain(execution *domain.Execution) *ExecutionPo {
	return &ExecutionPo{
		Model: commonrepo.Model{
			ID:        execution.ID,
			CreatedAt: execution.CreatedAt,
			UpdatedAt: execution.UpdatedAt,
		},
		ReportID:          execution.ReportID,
		SegmentID:         execution.SegmentID,
		TriggerKind:       execution.TriggerKind,
		Status:            execution.Status,
		TargetInstance:    execution.TargetInstance,
		SQL:               execution.SQL,
		ParameterSnapshot: execution.ParameterSnapshot,
		WindowStart:       execution.WindowStart,
		WindowEnd:         execution.WindowEnd,
		JobID:             execution.JobID,
		ResultLocation:    execution.ResultLocation,
		RowCount:          execution.RowCount,
		ByteCount:         execution.ByteCount,
		ErrorKind:         execution.ErrorKind,
		ErrorMessage:      execution.ErrorMessage,
		StartTime:         execution.StartTime,
		EndTime:           execution.EndTime,
	}
}
