// Package service is the structured facade exposed to the API layer
// and other collaborators. Every method returns a value or a coded
// fault, never a panic or a raw repository error leaking upward.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/wire"
	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/dispatch"
	"github.com/reports/engine/internal/fault"
	"github.com/reports/engine/internal/template"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(
	NewReportService,
	NewScheduleService,
	NewExecutionService,
	NewBackfillService,
)

type ReportService struct {
	reportRepo report.Repo
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

func NewReportService(reportRepo report.Repo, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *ReportService {
	return &ReportService{reportRepo: reportRepo, dispatcher: dispatcher, logger: logger}
}

type CreateReportRequest struct {
	Name           string
	Owner          string
	TargetInstance string
	SQLTemplate    string
	Schema         template.Schema
	Parameters     map[string]any
	Frequency      report.Frequency
}

func (s *ReportService) CreateReport(ctx context.Context, req CreateReportRequest) (*report.ReportDefinition, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fault.New(fault.CodeValidation, "report name is required", nil)
	}
	if strings.TrimSpace(req.SQLTemplate) == "" {
		return nil, fault.New(fault.CodeValidation, "sql template is required", nil)
	}
	if req.Frequency != "" && !req.Frequency.Valid() {
		return nil, fault.New(fault.CodeValidation, "unknown frequency", nil)
	}
	for _, p := range req.Schema {
		if !p.Kind.Valid() {
			return nil, fault.New(fault.CodeValidation, "unknown parameter kind "+string(p.Kind), nil)
		}
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = report.FrequencyOnce
	}

	rpt := &report.ReportDefinition{
		ID:             uint64(idgen.NextId()),
		Name:           req.Name,
		Owner:          req.Owner,
		TargetInstance: req.TargetInstance,
		SQLTemplate:    req.SQLTemplate,
		Schema:         req.Schema,
		Parameters:     req.Parameters,
		Frequency:      frequency,
		IsActive:       true,
	}
	if err := s.reportRepo.Create(ctx, rpt); err != nil {
		return nil, err
	}
	return rpt, nil
}

func (s *ReportService) GetReport(ctx context.Context, id uint64) (*report.ReportDefinition, error) {
	rpt, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rpt == nil {
		return nil, fault.ErrReportNotFound
	}
	return rpt, nil
}

func (s *ReportService) ListReports(ctx context.Context, filter *report.Filter) ([]*report.ReportDefinition, error) {
	return s.reportRepo.List(ctx, filter)
}

func (s *ReportService) UpdateReport(ctx context.Context, id uint64, patch *report.ReportDefinitionPatch) (*report.ReportDefinition, error) {
	rpt, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.reportRepo.Update(ctx, rpt.ID, patch); err != nil {
		return nil, err
	}
	return s.GetReport(ctx, id)
}

// DeactivateReport soft-deactivates a report. Definitions referenced by
// executions are never deleted.
func (s *ReportService) DeactivateReport(ctx context.Context, id uint64) error {
	rpt, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}
	patch, err := rpt.Deactivate()
	if err != nil {
		return fault.New(fault.CodeStateConflict, err.Error(), nil)
	}
	return s.reportRepo.Update(ctx, rpt.ID, patch)
}

type PreviewResult struct {
	SQL      string
	Warnings []string
}

// CompilePreview compiles without dispatching. It runs the same pure
// compilation as dispatch, so preview output always equals the SQL
// submitted for the same inputs.
func (s *ReportService) CompilePreview(tmpl string, params map[string]any, schema template.Schema) (*PreviewResult, error) {
	result, errs := template.Compile(tmpl, params, schema)
	if len(errs) > 0 {
		return nil, compileFault(errs)
	}
	return &PreviewResult{SQL: result.SQL, Warnings: template.SortedWarnings(result)}, nil
}

// PreviewReport compiles a saved report with optional overrides.
func (s *ReportService) PreviewReport(ctx context.Context, id uint64, overrides map[string]any) (*PreviewResult, error) {
	rpt, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	params := mergeParams(rpt.Parameters, overrides)
	return s.CompilePreview(rpt.SQLTemplate, params, rpt.Schema)
}

type AdHocRequest struct {
	ReportID    *uint64
	TriggerKind execution.TriggerKind
	Overrides   map[string]any
	WindowStart *time.Time
	WindowEnd   *time.Time

	// For report-less ad-hoc runs the caller supplies the template
	// inline along with its schema and target.
	SQLTemplate    string
	Schema         template.Schema
	TargetInstance string
}

// DispatchAdHoc compiles and submits a single execution. Compilation
// errors block dispatch; transport failures come back as a failed
// execution rather than an error.
func (s *ReportService) DispatchAdHoc(ctx context.Context, req AdHocRequest) (*execution.Execution, error) {
	tmpl := req.SQLTemplate
	schema := req.Schema
	target := req.TargetInstance
	params := req.Overrides

	if req.ReportID != nil {
		rpt, err := s.GetReport(ctx, *req.ReportID)
		if err != nil {
			return nil, err
		}
		if !rpt.IsActive {
			return nil, fault.New(fault.CodeStateConflict, "report is inactive", nil)
		}
		tmpl = rpt.SQLTemplate
		schema = rpt.Schema
		target = rpt.TargetInstance
		params = mergeParams(rpt.Parameters, req.Overrides)
	}
	if strings.TrimSpace(tmpl) == "" {
		return nil, fault.New(fault.CodeValidation, "nothing to execute: no report and no inline template", nil)
	}

	if req.WindowStart != nil {
		params = mergeParams(params, map[string]any{"window_start": req.WindowStart.Format("2006-01-02")})
	}
	if req.WindowEnd != nil {
		params = mergeParams(params, map[string]any{"window_end": req.WindowEnd.Format("2006-01-02")})
	}

	result, errs := template.Compile(tmpl, params, schema)
	if len(errs) > 0 {
		return nil, compileFault(errs)
	}

	trigger := req.TriggerKind
	if trigger == "" {
		trigger = execution.TriggerManual
	}

	// Interactive callers get an immediate rejection instead of queueing
	// behind scheduled or backfill dispatches.
	return s.dispatcher.SubmitNoWait(ctx, dispatch.SubmitRequest{
		ReportID:          req.ReportID,
		TriggerKind:       trigger,
		TargetInstance:    target,
		SQL:               result.SQL,
		ParameterSnapshot: params,
		WindowStart:       req.WindowStart,
		WindowEnd:         req.WindowEnd,
	})
}

// compileFault folds compilation errors into one coded fault, keeping
// the security classification when any value tripped the denylist.
func compileFault(errs []error) error {
	code := fault.CodeValidation
	for _, err := range errs {
		var unsafe *template.UnsafeValueError
		if errors.As(err, &unsafe) {
			code = fault.CodeUnsafeParameter
			break
		}
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return fault.New(code, strings.Join(messages, "; "), nil)
}

func mergeParams(base, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
