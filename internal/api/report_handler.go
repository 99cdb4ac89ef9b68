package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/fault"
	"github.com/reports/engine/internal/service"
	"github.com/reports/engine/internal/template"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type createReportBody struct {
	Name           string          `json:"name" binding:"required"`
	Owner          string          `json:"owner"`
	TargetInstance string          `json:"target_instance"`
	SQLTemplate    string          `json:"sql_template" binding:"required"`
	Schema         template.Schema `json:"schema"`
	Parameters     map[string]any  `json:"parameters"`
	Frequency      string          `json:"frequency"`
}

func (h *ReportHandler) CreateReport(c *gin.Context) {
	var body createReportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fault.New(fault.CodeValidation, err.Error(), nil))
		return
	}

	rpt, err := h.reports.CreateReport(c.Request.Context(), service.CreateReportRequest{
		Name:           body.Name,
		Owner:          body.Owner,
		TargetInstance: body.TargetInstance,
		SQLTemplate:    body.SQLTemplate,
		Schema:         body.Schema,
		Parameters:     body.Parameters,
		Frequency:      report.Frequency(body.Frequency),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reportView(rpt))
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rpt, err := h.reports.GetReport(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reportView(rpt))
}

func (h *ReportHandler) ListReports(c *gin.Context) {
	filter := &report.Filter{}
	if owner := c.Query("owner"); owner != "" {
		filter.Owner = mo.Some(owner)
	}
	if active := c.Query("is_active"); active != "" {
		filter.IsActive = mo.Some(active == "true")
	}

	reports, err := h.reports.ListReports(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": lo.Map(reports, func(r *report.ReportDefinition, _ int) gin.H { return reportView(r) }),
		"total": len(reports),
	})
}

// The template and schema are immutable after creation; updates touch
// only descriptive fields and saved parameters.
type updateReportBody struct {
	Name       *string         `json:"name"`
	Parameters *map[string]any `json:"parameters"`
	Frequency  *string         `json:"frequency"`
}

func (h *ReportHandler) UpdateReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body updateReportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fault.New(fault.CodeValidation, err.Error(), nil))
		return
	}

	patch := report.NewReportDefinitionPatch()
	if body.Name != nil {
		patch.WithName(*body.Name)
	}
	if body.Parameters != nil {
		patch.WithParameters(*body.Parameters)
	}
	if body.Frequency != nil {
		freq := report.Frequency(*body.Frequency)
		if !freq.Valid() {
			writeError(c, fault.New(fault.CodeValidation, "unknown frequency", nil))
			return
		}
		patch.WithFrequency(freq)
	}

	rpt, err := h.reports.UpdateReport(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reportView(rpt))
}

func (h *ReportHandler) DeactivateReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.reports.DeactivateReport(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": false})
}

type previewBody struct {
	SQLTemplate string          `json:"sql_template"`
	Schema      template.Schema `json:"schema"`
	Parameters  map[string]any  `json:"parameters"`
}

// PreviewInline compiles an inline template without persisting anything.
func (h *ReportHandler) PreviewInline(c *gin.Context) {
	var body previewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fault.New(fault.CodeValidation, err.Error(), nil))
		return
	}
	result, err := h.reports.CompilePreview(body.SQLTemplate, body.Parameters, body.Schema)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sql": result.SQL, "warnings": result.Warnings})
}

func (h *ReportHandler) PreviewReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Parameters map[string]any `json:"parameters"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fault.New(fault.CodeValidation, err.Error(), nil))
		return
	}
	result, err := h.reports.PreviewReport(c.Request.Context(), id, body.Parameters)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sql": result.SQL, "warnings": result.Warnings})
}

type executeBody struct {
	Parameters  map[string]any `json:"parameters"`
	WindowStart *time.Time     `json:"window_start"`
	WindowEnd   *time.Time     `json:"window_end"`
}

// ExecuteReport dispatches an ad-hoc run of a saved report. The response
// is the execution record; dispatch failures surface there as a failed
// execution, not as an HTTP error.
func (h *ReportHandler) ExecuteReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body executeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fault.New(fault.CodeValidation, err.Error(), nil))
		return
	}

	exec, err := h.reports.DispatchAdHoc(c.Request.Context(), service.AdHocRequest{
		ReportID:    &id,
		TriggerKind: execution.TriggerAPI,
		Overrides:   body.Parameters,
		WindowStart: body.WindowStart,
		WindowEnd:   body.WindowEnd,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, executionView(exec))
}

func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, fault.New(fault.CodeValidation, "invalid id", nil))
		return 0, false
	}
	return id, true
}
