package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/reports/engine/internal/service"
)

type Router struct {
	reportHandler    *ReportHandler
	scheduleHandler  *ScheduleHandler
	executionHandler *ExecutionHandler
	backfillHandler  *BackfillHandler
}

func NewRouter(
	reports *service.ReportService,
	schedules *service.ScheduleService,
	executions *service.ExecutionService,
	backfills *service.BackfillService,
) *Router {
	return &Router{
		reportHandler:    NewReportHandler(reports),
		scheduleHandler:  NewScheduleHandler(schedules),
		executionHandler: NewExecutionHandler(executions),
		backfillHandler:  NewBackfillHandler(backfills),
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(config))

	v1 := engine.Group("/api/v1")
	{
		reports := v1.Group("/reports")
		{
			reports.POST("", r.reportHandler.CreateReport)
			reports.GET("", r.reportHandler.ListReports)
			reports.GET("/:id", r.reportHandler.GetReport)
			reports.PUT("/:id", r.reportHandler.UpdateReport)
			reports.DELETE("/:id", r.reportHandler.DeactivateReport)
			reports.POST("/:id/preview", r.reportHandler.PreviewReport)
			reports.POST("/:id/execute", r.reportHandler.ExecuteReport)
		}

		v1.POST("/preview", r.reportHandler.PreviewInline)

		schedules := v1.Group("/schedules")
		{
			schedules.POST("", r.scheduleHandler.CreateSchedule)
			schedules.GET("", r.scheduleHandler.ListSchedules)
			schedules.GET("/:id", r.scheduleHandler.GetSchedule)
			schedules.POST("/:id/pause", r.scheduleHandler.PauseSchedule)
			schedules.POST("/:id/resume", r.scheduleHandler.ResumeSchedule)
			schedules.DELETE("/:id", r.scheduleHandler.DeleteSchedule)
		}

		executions := v1.Group("/executions")
		{
			executions.GET("", r.executionHandler.ListExecutions)
			executions.GET("/:id", r.executionHandler.GetExecution)
			executions.POST("/:id/cancel", r.executionHandler.CancelExecution)
		}

		backfills := v1.Group("/backfills")
		{
			backfills.POST("", r.backfillHandler.StartBackfill)
			backfills.GET("", r.backfillHandler.ListCollections)
			backfills.GET("/:id", r.backfillHandler.GetCollection)
			backfills.POST("/:id/cancel", r.backfillHandler.CancelCollection)
		}

		v1.POST("/segments/:id/retry", r.backfillHandler.RetrySegment)
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return engine
}
