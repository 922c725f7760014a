package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/excel"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Export 导出 Excel
// POST /api/v1/export
func (h *Handler) Export(c *gin.Context) {
	if h.session.Count() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "会话中没有船期数据"})
		return
	}

	res, err := h.runSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理失败: " + err.Error()})
		return
	}

	file, err := h.exporter.Export(res.Workbook)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
		return
	}
	defer file.Close()

	filename := excel.DefaultFileName(time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Content-Type", xlsxContentType)
	c.Header("X-Warning-Count", strconv.Itoa(len(res.Warnings)))

	if err := file.Write(c.Writer); err != nil {
		h.log.Errorf("write export: %v", err)
	}
}

// ExportStream 导出 Excel（SSE 进度 + 完成后提供下载地址）
// POST /api/v1/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	send := func(typ, message string, data interface{}) {
		b, err := json.Marshal(exportProgressEvent{
			Type:      typ,
			Message:   message,
			Data:      data,
			Timestamp: time.Now(),
		})
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send("start", "开始导出", map[string]any{"records": h.session.Count()})

	if h.session.Count() == 0 {
		send("error", "会话中没有船期数据", map[string]any{})
		return
	}

	res, err := h.runSession()
	if err != nil {
		send("error", "处理失败: "+err.Error(), map[string]any{})
		return
	}
	send("progress", "数据处理完成", map[string]any{
		"percent":  50,
		"stats":    res.Stats,
		"warnings": len(res.Warnings),
	})

	file, err := h.exporter.Export(res.Workbook)
	if err != nil {
		send("error", "导出失败: "+err.Error(), map[string]any{})
		return
	}
	defer file.Close()

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("schedule_export_%s.xlsx", uuid.NewString()))
	if err := file.SaveAs(tempPath); err != nil {
		send("error", "写入导出文件失败: "+err.Error(), map[string]any{})
		_ = os.Remove(tempPath)
		return
	}

	token := h.downloads.put(tempPath, excel.DefaultFileName(time.Now()), exportTTL)
	send("done", "导出完成", map[string]any{
		"percent":     100,
		"downloadUrl": fmt.Sprintf("/api/v1/export/download/%s", token),
		"sheets":      res.Workbook.Summaries(),
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/v1/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}
	defer os.Remove(item.filePath)

	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", item.fileName))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)
}
