package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// schemaVersion 当前库结构版本，记录在 PRAGMA user_version
const schemaVersion = 1

// DefaultFileName 数据目录下的数据库文件名
const DefaultFileName = "schedule.db"

// Store SQLite 存储：航线规则、导入日志与运行配置
type Store struct {
	db   *sql.DB
	path string
}

// New 打开（必要时创建）数据库并初始化表结构
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// 单连接：写入串行化，PRAGMA 对后续语句始终生效
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate 建表并校验库结构版本
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database %s has schema version %d, newer than supported %d", s.path, version, schemaVersion)
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(string(schemaSQL)); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
		return nil
	})
}

// withTx 在事务中执行 fn，fn 返回错误时回滚
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Path 数据库文件路径
func (s *Store) Path() string {
	return s.path
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
