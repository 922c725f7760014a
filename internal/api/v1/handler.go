package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/logger"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/cutoff"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/excel"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/pipeline"
	sessionstore "github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/store"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/store"
)

// Handler V1 API 处理器
type Handler struct {
	store     *store.Store
	session   *sessionstore.MemoryStore
	opts      pipeline.Options
	exporter  *excel.Exporter
	downloads *exportDownloadStore
	log       logger.Logger
}

// NewHandler 创建 V1 API 处理器
func NewHandler(st *store.Store, session *sessionstore.MemoryStore, opts pipeline.Options, log logger.Logger) *Handler {
	if session == nil {
		session = sessionstore.NewMemoryStore()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{
		store:     st,
		session:   session,
		opts:      opts,
		exporter:  excel.NewExporter(),
		downloads: newExportDownloadStore(),
		log:       log,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 数据导入
	router.POST("/import", h.Import)
	router.GET("/imports", h.ListImports)

	// 会话中的船期数据
	router.POST("/schedules", h.AddSchedules)
	router.GET("/schedules", h.PreviewSchedules)
	router.DELETE("/schedules", h.ClearSchedules)
	router.PATCH("/schedules/:recordId", h.UpdateSchedule)
	router.DELETE("/schedules/:recordId", h.DeleteSchedule)
	router.GET("/batches", h.ListBatches)
	router.DELETE("/batches/:id", h.DeleteBatch)

	// 航线截关规则
	router.GET("/rules", h.ListRules)
	router.PUT("/rules", h.UpsertRules)
	router.DELETE("/rules/:service", h.DeleteRule)
	router.POST("/rules/import", h.ImportRules)
	router.GET("/rules/export", h.ExportRules)

	// 数据导出
	router.POST("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
}

// runSession 对会话中的全部记录执行处理流程
func (h *Handler) runSession() (*pipeline.Result, error) {
	rules, err := h.store.ListRules()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return pipeline.New(h.opts).Run(pipeline.Batch{
		Records: h.session.Records(),
		Rules:   cutoff.NewRuleTable(rules),
	})
}
