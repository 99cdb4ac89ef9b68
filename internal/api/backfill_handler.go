package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	domain "github.com/reports/engine/internal/biz/backfill"
	"github.com/reports/engine/internal/fault"
	"github.com/reports/engine/internal/service"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

type BackfillHandler struct {
	backfills *service.BackfillService
}

func NewBackfillHandler(backfills *service.BackfillService) *BackfillHandler {
	return &BackfillHandler{backfills: backfills}
}

type startBackfillBody struct {
	ReportID     uint64     `json:"report_id" binding:"required"`
	Granularity  string     `json:"granularity" binding:"required"`
	LookbackDays int        `json:"lookback_days" binding:"required"`
	EndDate      *time.Time `json:"end_date"`
}

func (h *BackfillHandler) StartBackfill(c *gin.Context) {
	var body startBackfillBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fault.New(fault.CodeValidation, err.Error(), nil))
		return
	}

	collection, err := h.backfills.StartBackfill(c.Request.Context(), service.StartBackfillRequest{
		ReportID:     body.ReportID,
		Granularity:  domain.Granularity(body.Granularity),
		LookbackDays: body.LookbackDays,
		EndDate:      body.EndDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, collectionView(collection))
}

func (h *BackfillHandler) GetCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	detail, err := h.backfills.GetCollection(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	view := collectionView(detail.Collection)
	view["segments"] = segmentViews(detail.Segments)
	c.JSON(http.StatusOK, view)
}

func (h *BackfillHandler) ListCollections(c *gin.Context) {
	filter := &domain.Filter{}
	if reportID, ok := queryID(c, "report_id"); ok {
		filter.ReportID = mo.Some(reportID)
	}
	if status := c.Query("status"); status != "" {
		filter.Status = mo.Some(domain.CollectionStatus(status))
	}

	collections, err := h.backfills.ListCollections(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": lo.Map(collections, func(b *domain.BackfillCollection, _ int) gin.H { return collectionView(b) }),
		"total": len(collections),
	})
}

func (h *BackfillHandler) CancelCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	collection, err := h.backfills.CancelCollection(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, collectionView(collection))
}

func (h *BackfillHandler) RetrySegment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	seg, err := h.backfills.RetrySegment(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, segmentView(seg))
}
