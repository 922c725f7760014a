package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrConfigNotFound 配置项不存在
var ErrConfigNotFound = errors.New("config key not found")

// execer 由 *sql.DB 与 *sql.Tx 实现
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func getConfig(q execer, key string) (string, error) {
	var value string
	switch err := q.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("%w: %s", ErrConfigNotFound, key)
	case err != nil:
		return "", fmt.Errorf("failed to read config %s: %w", key, err)
	}
	return value, nil
}

func setConfig(q execer, key, value string) error {
	if _, err := q.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value); err != nil {
		return fmt.Errorf("failed to write config %s: %w", key, err)
	}
	return nil
}

// GetConfig 读取运行配置项
func (s *Store) GetConfig(key string) (string, error) {
	return getConfig(s.db, key)
}

// SetConfig 写入运行配置项
func (s *Store) SetConfig(key, value string) error {
	return setConfig(s.db, key, value)
}

// GetAllConfig 全部运行配置项
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query config: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}
