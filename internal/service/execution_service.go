package service

import (
	"context"

	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/dispatch"
	"github.com/reports/engine/internal/fault"
	"go.uber.org/zap"
)

type ExecutionService struct {
	executionRepo execution.Repo
	dispatcher    *dispatch.Dispatcher
	logger        *zap.Logger
}

func NewExecutionService(executionRepo execution.Repo, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *ExecutionService {
	return &ExecutionService{executionRepo: executionRepo, dispatcher: dispatcher, logger: logger}
}

func (s *ExecutionService) GetExecution(ctx context.Context, id uint64) (*execution.Execution, error) {
	exec, err := s.executionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, fault.ErrExecutionNotFound
	}
	return exec, nil
}

type ExecutionPage struct {
	Items []*execution.Execution
	Total int64
}

func (s *ExecutionService) ListExecutions(ctx context.Context, filter execution.ListFilter, offset, limit int) (*ExecutionPage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.executionRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ExecutionPage{Items: items, Total: total}, nil
}

// CancelExecution cancels a pending or running execution. Terminal
// executions are left untouched and reported as a state conflict.
func (s *ExecutionService) CancelExecution(ctx context.Context, id uint64) (*execution.Execution, error) {
	return s.dispatcher.Cancel(ctx, id)
}
