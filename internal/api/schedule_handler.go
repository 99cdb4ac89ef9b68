package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reports/engine/internal/biz/schedule"
	"github.com/reports/engine/internal/fault"
	"github.com/reports/engine/internal/service"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

type ScheduleHandler struct {
	schedules *service.ScheduleService
}

func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

type createScheduleBody struct {
	ReportID          uint64         `json:"report_id" binding:"required"`
	CronExpression    string         `json:"cron_expression"`
	Timezone          string         `json:"timezone"`
	WindowMode        string         `json:"window_mode"`
	LookbackDays      int            `json:"lookback_days"`
	AnchorAt          *time.Time     `json:"anchor_at"`
	DefaultParameters map[string]any `json:"default_parameters"`
}

func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var body createScheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fault.New(fault.CodeValidation, err.Error(), nil))
		return
	}

	sched, err := h.schedules.CreateSchedule(c.Request.Context(), service.CreateScheduleRequest{
		ReportID:          body.ReportID,
		CronExpression:    body.CronExpression,
		Timezone:          body.Timezone,
		WindowMode:        schedule.WindowMode(body.WindowMode),
		LookbackDays:      body.LookbackDays,
		AnchorAt:          body.AnchorAt,
		DefaultParameters: body.DefaultParameters,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scheduleView(sched))
}

func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sched, err := h.schedules.GetSchedule(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheduleView(sched))
}

func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	filter := &schedule.Filter{}
	if reportID, ok := queryID(c, "report_id"); ok {
		filter.ReportID = mo.Some(reportID)
	}
	if paused := c.Query("is_paused"); paused != "" {
		filter.IsPaused = mo.Some(paused == "true")
	}

	schedules, err := h.schedules.ListSchedules(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": lo.Map(schedules, func(s *schedule.Schedule, _ int) gin.H { return scheduleView(s) }),
		"total": len(schedules),
	})
}

func (h *ScheduleHandler) PauseSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.schedules.PauseSchedule(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_paused": true})
}

func (h *ScheduleHandler) ResumeSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.schedules.ResumeSchedule(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_paused": false})
}

func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.schedules.DeleteSchedule(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
