package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-planner-api/api/swagger"
	"github.com/noah-isme/student-planner-api/internal/handler"
	"github.com/noah-isme/student-planner-api/internal/middleware"
	"github.com/noah-isme/student-planner-api/internal/service"
	"github.com/noah-isme/student-planner-api/pkg/config"
	"github.com/noah-isme/student-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-planner-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	subjects   *handler.SubjectHandler
	grades     *handler.GradeHandler
	attendance *handler.AttendanceHandler
	tasks      *handler.TaskHandler
	terms      *handler.TermHandler
	agenda     *handler.AgendaHandler
	summary    *handler.SummaryHandler
	widgets    *handler.WidgetHandler
	metrics    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, tokens *service.TokenService, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(tokens))

	api.GET("/subjects", h.subjects.List)
	api.POST("/subjects", h.subjects.Create)
	api.GET("/subjects/:id", h.subjects.Get)
	api.PUT("/subjects/:id", h.subjects.Update)
	api.DELETE("/subjects/:id", h.subjects.Delete)

	api.GET("/subjects/:id/grades", h.grades.List)
	api.POST("/subjects/:id/grades", h.grades.Create)
	api.DELETE("/grades/:id", h.grades.Delete)

	api.GET("/subjects/:id/attendance", h.attendance.List)
	api.POST("/subjects/:id/attendance", h.attendance.Record)
	api.POST("/attendance/now", h.attendance.MarkCurrent)
	api.DELETE("/attendance/:id", h.attendance.Delete)

	api.GET("/tasks", h.tasks.List)
	api.POST("/tasks", h.tasks.Create)
	api.PUT("/tasks/:id", h.tasks.Update)
	api.DELETE("/tasks/:id", h.tasks.Delete)
	api.POST("/tasks/:id/toggle", h.tasks.Toggle)

	api.GET("/agenda", h.agenda.Day)
	api.GET("/agenda/now", h.agenda.Now)
	api.GET("/agenda/export", h.agenda.Export)

	api.GET("/summary/subjects/:id", h.summary.Subject)
	api.GET("/summary/performance", h.summary.Performance)

	api.GET("/widgets/snapshot", h.widgets.Snapshot)
	api.POST("/widgets/refresh", h.widgets.Refresh)

	api.GET("/terms", h.terms.List)
	api.POST("/terms", h.terms.Create)

	api.GET("/metrics/system", h.metrics.System)

	return r
}
