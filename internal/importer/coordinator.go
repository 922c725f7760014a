package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/logger"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/excel"
	sessionstore "github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/store"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/store"
)

// Coordinator 导入协调器：上传文件 → 原始记录 → 会话
type Coordinator struct {
	store   *store.Store
	session *sessionstore.MemoryStore
	log     logger.Logger
}

// NewCoordinator 创建导入协调器；st 为 nil 时不记录导入日志
func NewCoordinator(st *store.Store, session *sessionstore.MemoryStore, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Coordinator{
		store:   st,
		session: session,
		log:     log,
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	FilePath string
	// Filename 原始文件名（上传时的临时文件名不具可读性）
	Filename string
	// Carrier/POL/POD 表格缺失对应列时的默认值
	Carrier string
	POL     string
	POD     string
	// Sheets 仅导入指定工作表
	Sheets []string
	// ClearExisting 导入前清空会话
	ClearExisting bool
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/sheet_done/warning/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// Import 执行导入，返回进度通道；ctx 取消后不再写入会话
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan<- ProgressEvent) {
	startTime := time.Now()
	filename := opts.Filename
	if filename == "" {
		filename = filepath.Base(opts.FilePath)
	}

	c.sendProgress(progressChan, "start", "开始导入文件", map[string]string{"filename": filename})

	data, err := os.ReadFile(opts.FilePath)
	if err != nil {
		c.fail(progressChan, 0, fmt.Errorf("读取文件失败: %w", err))
		return
	}
	sum := sha256.Sum256(data)

	var logID int64
	if c.store != nil {
		logID, err = c.store.CreateImportLog(filename, opts.FilePath, int64(len(data)), hex.EncodeToString(sum[:]), model.SourceUpload)
		if err != nil {
			c.log.Warnf("create import log: %v", err)
		}
	}

	parsed, err := excel.ParseUpload(bytes.NewReader(data), excel.ParseOptions{
		Filename: filename,
		Carrier:  opts.Carrier,
		POL:      opts.POL,
		POD:      opts.POD,
		Sheets:   opts.Sheets,
	})
	if err != nil {
		c.fail(progressChan, logID, fmt.Errorf("解析文件失败: %w", err))
		return
	}

	report := &model.ImportReport{
		Filename:    filename,
		Source:      model.SourceUpload,
		TotalSheets: len(parsed.Sheets),
		Sheets:      parsed.Sheets,
	}
	for _, s := range parsed.Sheets {
		report.TotalRows += s.ImportedRows + s.SkippedRows
		report.ImportedRows += s.ImportedRows
		report.SkippedRows += s.SkippedRows

		switch s.Status {
		case "imported":
			report.ImportedSheets++
			c.sendProgress(progressChan, "sheet_done", fmt.Sprintf("工作表 \"%s\" 解析完成: %d 行", s.SheetName, s.ImportedRows), map[string]interface{}{
				"sheet_name":    s.SheetName,
				"imported_rows": s.ImportedRows,
				"skipped_rows":  s.SkippedRows,
			})
		default:
			report.SkippedSheets++
			c.sendProgress(progressChan, "warning", fmt.Sprintf("跳过工作表: %s", s.SheetName), map[string]interface{}{
				"sheet_name": s.SheetName,
				"errors":     s.Errors,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		c.fail(progressChan, logID, fmt.Errorf("导入已取消: %w", err))
		return
	}

	if opts.ClearExisting {
		n := c.session.Clear()
		c.sendProgress(progressChan, "info", fmt.Sprintf("已清空会话中的 %d 条记录", n), nil)
	}
	report.BatchID = c.session.AddBatch(filename, model.SourceUpload, parsed.Records)
	report.Duration = time.Since(startTime)

	if c.store != nil && logID > 0 {
		if err := c.store.UpdateImportLog(logID, report, "completed", ""); err != nil {
			c.log.Warnf("update import log: %v", err)
		}
	}
	c.log.Infof("imported %s: %d rows from %d/%d sheets", filename, report.ImportedRows, report.ImportedSheets, report.TotalSheets)

	c.sendProgress(progressChan, "done", "导入完成", report)
}

func (c *Coordinator) fail(progressChan chan<- ProgressEvent, logID int64, err error) {
	c.log.Errorf("import failed: %v", err)
	if c.store != nil && logID > 0 {
		if uerr := c.store.UpdateImportLog(logID, nil, "failed", err.Error()); uerr != nil {
			c.log.Warnf("update import log: %v", uerr)
		}
	}
	c.sendProgress(progressChan, "error", err.Error(), nil)
}

func (c *Coordinator) sendProgress(progressChan chan<- ProgressEvent, typ, message string, data interface{}) {
	progressChan <- ProgressEvent{
		Type:      typ,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}
