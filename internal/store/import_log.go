package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

// ImportLog 导入日志
type ImportLog struct {
	ID             int64      `json:"id"`
	BatchID        string     `json:"batchId"`
	Filename       string     `json:"filename"`
	FileSize       int64      `json:"fileSize"`
	FileHash       string     `json:"fileHash"`
	Source         string     `json:"source"`
	Status         string     `json:"status"`
	TotalSheets    int        `json:"totalSheets"`
	ImportedSheets int        `json:"importedSheets"`
	SkippedSheets  int        `json:"skippedSheets"`
	TotalRows      int        `json:"totalRows"`
	ImportedRows   int        `json:"importedRows"`
	ErrorRows      int        `json:"errorRows"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(filename, filePath string, fileSize int64, fileHash string, source model.SourceMedium) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (filename, file_path, file_size, file_hash, source, status)
		VALUES (?, ?, ?, ?, ?, 'processing')
	`, filename, filePath, fileSize, fileHash, string(source))
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(id int64, report *model.ImportReport, status, errorMessage string) error {
	if report == nil {
		report = &model.ImportReport{}
	}
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			batch_id = ?,
			total_sheets = ?,
			imported_sheets = ?,
			skipped_sheets = ?,
			total_rows = ?,
			imported_rows = ?,
			error_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, report.BatchID, report.TotalSheets, report.ImportedSheets, report.SkippedSheets,
		report.TotalRows, report.ImportedRows, report.SkippedRows, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入日志（新的在前）
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, batch_id, filename, file_size, file_hash, source, status,
			total_sheets, imported_sheets, skipped_sheets, total_rows, imported_rows, error_rows,
			error_message, created_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import logs: %w", err)
	}
	defer rows.Close()

	logs := make([]ImportLog, 0)
	for rows.Next() {
		var l ImportLog
		var completed sql.NullTime
		if err := rows.Scan(
			&l.ID, &l.BatchID, &l.Filename, &l.FileSize, &l.FileHash, &l.Source, &l.Status,
			&l.TotalSheets, &l.ImportedSheets, &l.SkippedSheets, &l.TotalRows, &l.ImportedRows, &l.ErrorRows,
			&l.ErrorMessage, &l.CreatedAt, &completed,
		); err != nil {
			return nil, err
		}
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
