package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/importer"
)

// Import 导入船期表格 (SSE 流式响应)
// POST /api/v1/import
//
// 表单字段：file（xlsx/csv），carrier/pol/pod（表格缺列时的默认值），
// sheets（仅导入指定工作表，可多值），clearExisting（默认 false，累加到会话）。
func (h *Handler) Import(c *gin.Context) {
	// 解析 multipart form
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的表单数据"})
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	uploadedFile := files[0]

	// 保存到临时目录
	tempFilePath := filepath.Join(os.TempDir(), fmt.Sprintf("schedule_import_%s%s", uuid.NewString(), filepath.Ext(uploadedFile.Filename)))
	if err := c.SaveUploadedFile(uploadedFile, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}

	// 清理临时文件
	defer os.Remove(tempFilePath)

	clearExisting := c.DefaultPostForm("clearExisting", "false") == "true"

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	coordinator := importer.NewCoordinator(h.store, h.session, h.log)
	progressChan := coordinator.Import(c.Request.Context(), importer.ImportOptions{
		FilePath:      tempFilePath,
		Filename:      filepath.Base(uploadedFile.Filename),
		Carrier:       c.PostForm("carrier"),
		POL:           c.PostForm("pol"),
		POD:           c.PostForm("pod"),
		Sheets:        form.Value["sheets"],
		ClearExisting: clearExisting,
	})

	// 流式发送进度事件
	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ListImports 最近的导入日志
// GET /api/v1/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	logs, err := h.store.ListImportLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取导入日志失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imports": logs})
}
