package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/parser"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/pipeline"
	sessionstore "github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/store"
)

// AddSchedulesRequest 直接提交船期记录（AI 提取、网页抓取、手工录入等来源）
type AddSchedulesRequest struct {
	Label  string             `json:"label"`
	Source model.SourceMedium `json:"source"`
	// Rows 松散记录，字段名可为任意别名
	Rows []map[string]any `json:"rows"`
	// Entries 统一口径记录
	Entries []model.ScheduleEntry `json:"entries"`
}

// UpdateScheduleRequest 修改会话中的单条记录
type UpdateScheduleRequest struct {
	// Fields 要修改的字段，键名可为任意别名；值为 null 时删除该字段
	Fields map[string]any `json:"fields"`
}

// PreviewResponse 会话预览
type PreviewResponse struct {
	Stats         pipeline.Stats            `json:"stats"`
	Sheets        []model.SheetSummary      `json:"sheets"`
	Warnings      []model.Warning           `json:"warnings"`
	WarningCounts map[model.WarningKind]int `json:"warningCounts"`
	Entries       []model.ScheduleEntry     `json:"entries,omitempty"`
}

func validSource(s model.SourceMedium) bool {
	switch s {
	case model.SourceUpload, model.SourceAIExtraction, model.SourceScrape, model.SourceManual:
		return true
	}
	return false
}

// AddSchedules 追加记录到会话
// POST /api/v1/schedules
func (h *Handler) AddSchedules(c *gin.Context) {
	var req AddSchedulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}
	if req.Source == "" {
		req.Source = model.SourceManual
	}
	if !validSource(req.Source) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未知的数据来源: " + string(req.Source)})
		return
	}
	if len(req.Rows)+len(req.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "没有可添加的记录"})
		return
	}

	records := make([]model.RawRecord, 0, len(req.Rows)+len(req.Entries))
	for _, row := range req.Rows {
		records = append(records, model.RawRecord{Source: req.Source, Fields: row})
	}
	for _, e := range req.Entries {
		if e.Source == "" {
			e.Source = req.Source
		}
		records = append(records, parser.RecordFromEntry(e))
	}

	label := req.Label
	if label == "" {
		label = string(req.Source)
	}
	batchID := h.session.AddBatch(label, req.Source, records)
	h.log.Infof("session: added %d %s records (batch %s)", len(records), req.Source, batchID)

	c.JSON(http.StatusCreated, gin.H{
		"batchId": batchID,
		"added":   len(records),
		"total":   h.session.Count(),
	})
}

// PreviewSchedules 预览处理结果（工作表名称与行数、告警、统计）
// GET /api/v1/schedules?entries=true&carrier=CNC&pod=KHH
// carrier/pod 只筛选返回的记录，统计与工作表仍按全部记录计算。
func (h *Handler) PreviewSchedules(c *gin.Context) {
	res, err := h.runSession()
	if err != nil {
		h.log.Errorf("preview: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理失败: " + err.Error()})
		return
	}

	resp := PreviewResponse{
		Stats:         res.Stats,
		Sheets:        res.Workbook.Summaries(),
		Warnings:      res.Warnings,
		WarningCounts: res.WarningCounts(),
	}
	if resp.Warnings == nil {
		resp.Warnings = []model.Warning{}
	}
	carrier, pod := c.Query("carrier"), c.Query("pod")
	if c.Query("entries") == "true" || carrier != "" || pod != "" {
		resp.Entries = h.filterEntries(res.Entries, carrier, pod)
	}
	c.JSON(http.StatusOK, resp)
}

// filterEntries 按船司与目的港筛选；目的港可填名称或代码
func (h *Handler) filterEntries(entries []model.ScheduleEntry, carrier, pod string) []model.ScheduleEntry {
	carrier = strings.TrimSpace(carrier)
	if pod = strings.TrimSpace(pod); pod != "" {
		ports := h.opts.Ports
		if ports == nil {
			ports = parser.NewPortTable(parser.DefaultPortCodes())
		}
		pod = ports.Code(pod)
	}
	if carrier == "" && pod == "" {
		return entries
	}

	out := make([]model.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		if carrier != "" && !strings.EqualFold(e.Carrier, carrier) {
			continue
		}
		if pod != "" && e.POD != pod {
			continue
		}
		out = append(out, e)
	}
	return out
}

// UpdateSchedule 修改会话中的一条记录
// PATCH /api/v1/schedules/:recordId
func (h *Handler) UpdateSchedule(c *gin.Context) {
	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}
	if len(req.Fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "没有需要修改的字段"})
		return
	}

	id := c.Param("recordId")
	record, err := h.session.UpdateRecord(id, func(fields map[string]any) {
		parser.MergeFields(fields, req.Fields)
	})
	if errors.Is(err, sessionstore.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "记录不存在"})
		return
	}
	h.log.Infof("session: updated record %s (%d fields)", id, len(req.Fields))
	c.JSON(http.StatusOK, gin.H{"record": record})
}

// DeleteSchedule 删除会话中的一条记录
// DELETE /api/v1/schedules/:recordId
func (h *Handler) DeleteSchedule(c *gin.Context) {
	id := c.Param("recordId")
	if err := h.session.RemoveRecord(id); errors.Is(err, sessionstore.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "记录不存在"})
		return
	}
	h.log.Infof("session: removed record %s", id)
	c.JSON(http.StatusOK, gin.H{"removed": 1, "total": h.session.Count()})
}

// ClearSchedules 清空会话
// DELETE /api/v1/schedules
func (h *Handler) ClearSchedules(c *gin.Context) {
	n := h.session.Clear()
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

// ListBatches 会话中的导入批次
// GET /api/v1/batches
func (h *Handler) ListBatches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"batches": h.session.Batches()})
}

// DeleteBatch 删除一个批次
// DELETE /api/v1/batches/:id
func (h *Handler) DeleteBatch(c *gin.Context) {
	n, err := h.session.RemoveBatch(c.Param("id"))
	if errors.Is(err, sessionstore.ErrBatchNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "批次不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
