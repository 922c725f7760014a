package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized    bool       `json:"initialized"`              // 会话中是否已有数据
	Records        int        `json:"records"`                  // 会话记录数
	Batches        int        `json:"batches"`                  // 会话批次数
	Rules          int        `json:"rules"`                    // 航线规则数
	LastImportTime *time.Time `json:"lastImportTime,omitempty"` // 最后导入时间
}

// GetStatus 获取系统状态
// GET /api/v1/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Records: h.session.Count(),
		Batches: len(h.session.Batches()),
	}
	resp.Initialized = resp.Records > 0

	if rules, err := h.store.ListRules(); err == nil {
		resp.Rules = len(rules)
	} else {
		h.log.Warnf("status: list rules: %v", err)
	}
	if logs, err := h.store.ListImportLogs(1); err == nil && len(logs) > 0 {
		resp.LastImportTime = &logs[0].CreatedAt
	}

	c.JSON(http.StatusOK, resp)
}
