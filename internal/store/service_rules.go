package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

// ErrRuleNotFound 航线规则不存在
var ErrRuleNotFound = errors.New("service rule not found")

// configRulesSeeded 记录默认规则是否已写入，避免覆盖用户删除
const configRulesSeeded = "rules_seeded"

// ListRules 获取全部航线规则（按航线名排序）
func (s *Store) ListRules() ([]model.ServiceCutoffRule, error) {
	rows, err := s.db.Query(`
		SELECT service_name, cy_weekday, cy_time, si_weekday, si_time, same_weekday
		FROM service_rules
		ORDER BY service_name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query service rules: %w", err)
	}
	defer rows.Close()

	rules := make([]model.ServiceCutoffRule, 0)
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetRule 获取单条航线规则（航线名不区分大小写）
func (s *Store) GetRule(service string) (model.ServiceCutoffRule, error) {
	row := s.db.QueryRow(`
		SELECT service_name, cy_weekday, cy_time, si_weekday, si_time, same_weekday
		FROM service_rules WHERE service_name = ?
	`, strings.TrimSpace(service))
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ServiceCutoffRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, service)
	}
	return r, err
}

// UpsertRules 批量写入航线规则（同名覆盖，航线名不区分大小写）
func (s *Store) UpsertRules(rules []model.ServiceCutoffRule) error {
	if len(rules) == 0 {
		return nil
	}
	return s.withTx(func(tx *sql.Tx) error {
		return upsertRules(tx, rules)
	})
}

func upsertRules(tx *sql.Tx, rules []model.ServiceCutoffRule) error {
	stmt, err := tx.Prepare(`
		INSERT INTO service_rules (service_name, cy_weekday, cy_time, si_weekday, si_time, same_weekday)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(service_name) DO UPDATE SET
			cy_weekday = excluded.cy_weekday,
			cy_time = excluded.cy_time,
			si_weekday = excluded.si_weekday,
			si_time = excluded.si_time,
			same_weekday = excluded.same_weekday,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rules {
		name := strings.TrimSpace(r.ServiceName)
		if name == "" {
			return errors.New("service name is required")
		}
		if !r.SameWeekday.Valid() {
			return fmt.Errorf("service %s: unknown same weekday policy %q", name, r.SameWeekday)
		}
		if _, err := stmt.Exec(name, r.CYWeekday, r.CYTime, r.SIWeekday, r.SITime, string(r.SameWeekday)); err != nil {
			return fmt.Errorf("failed to upsert rule %s: %w", name, err)
		}
	}
	return nil
}

// DeleteRule 删除航线规则
func (s *Store) DeleteRule(service string) error {
	res, err := s.db.Exec("DELETE FROM service_rules WHERE service_name = ?", strings.TrimSpace(service))
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, service)
	}
	return nil
}

// SeedRules 首次启动时写入默认规则；之后以数据库为准
func (s *Store) SeedRules(rules []model.ServiceCutoffRule) (bool, error) {
	seeded := false
	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := getConfig(tx, configRulesSeeded); err == nil {
			return nil
		} else if !errors.Is(err, ErrConfigNotFound) {
			return err
		}
		if err := upsertRules(tx, rules); err != nil {
			return err
		}
		seeded = true
		return setConfig(tx, configRulesSeeded, "1")
	})
	return seeded, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (model.ServiceCutoffRule, error) {
	var r model.ServiceCutoffRule
	var same string
	if err := row.Scan(&r.ServiceName, &r.CYWeekday, &r.CYTime, &r.SIWeekday, &r.SITime, &same); err != nil {
		return model.ServiceCutoffRule{}, err
	}
	r.SameWeekday = model.SameWeekdayPolicy(same)
	return r, nil
}
