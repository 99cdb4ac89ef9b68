package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/service"
	"github.com/samber/mo"
)

type ExecutionHandler struct {
	executions *service.ExecutionService
}

func NewExecutionHandler(executions *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executions: executions}
}

func (h *ExecutionHandler) GetExecution(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	exec, err := h.executions.GetExecution(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, executionView(exec))
}

func (h *ExecutionHandler) ListExecutions(c *gin.Context) {
	filter := execution.ListFilter{}
	if reportID, ok := queryID(c, "report_id"); ok {
		filter.ReportID = mo.Some(reportID)
	}
	if segmentID, ok := queryID(c, "segment_id"); ok {
		filter.SegmentID = mo.Some(segmentID)
	}
	if status := c.Query("status"); status != "" {
		filter.Status = mo.Some(execution.Status(status))
	}
	if trigger := c.Query("trigger_kind"); trigger != "" {
		filter.TriggerKind = mo.Some(execution.TriggerKind(trigger))
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	page, err := h.executions.ListExecutions(c.Request.Context(), filter, offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": executionViews(page.Items),
		"total": page.Total,
	})
}

func (h *ExecutionHandler) CancelExecution(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	exec, err := h.executions.CancelExecution(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, executionView(exec))
}

func queryID(c *gin.Context, name string) (uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
