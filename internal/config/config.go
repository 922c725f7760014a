package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/parser"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/dedupe"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/pipeline"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/sheets"
)

// FileName 默认配置文件名
const FileName = "config.toml"

// DefaultPOL 默认装货港
const DefaultPOL = "HAIPHONG"

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Schedule ScheduleConfig `toml:"schedule"`
	Rules    RulesConfig    `toml:"rules"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int  `toml:"port"`
	DevMode     bool `toml:"dev_mode"`
	OpenBrowser bool `toml:"open_browser"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ScheduleConfig 船期处理配置
type ScheduleConfig struct {
	// POL 非空时所有记录的装货港统一为该值
	POL string `toml:"pol"`
	// Ports 港口名称 → 代码，为空时使用内置表
	Ports map[string]string `toml:"ports"`
	// AllowedPODs 允许的目的港代码，为空表示不限制
	AllowedPODs   []string               `toml:"allowed_pods"`
	Carriers      []model.CarrierProfile `toml:"carriers"`
	DedupePolicy  string                 `toml:"dedupe_policy"`
	SheetTemplate string                 `toml:"sheet_template"`
}

// RulesConfig 航线截关规则
type RulesConfig struct {
	// Seed 首次启动时写入数据库的规则
	Seed []model.ServiceCutoffRule `toml:"seed"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultCarriers 默认船司列表；TSL 只公布航线周期，截关需推算
func DefaultCarriers() []model.CarrierProfile {
	codes := []string{"CNC", "IAL", "KMTC", "SITC", "TSL", "YML", "COSCO", "EVERGREEN", "ONE", "PIL", "RCL", "WHL", "OTHER"}
	out := make([]model.CarrierProfile, 0, len(codes))
	for _, c := range codes {
		mode := model.CutoffSupplied
		if c == "TSL" {
			mode = model.CutoffDerived
		}
		out = append(out, model.CarrierProfile{Code: c, CutoffMode: mode})
	}
	return out
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20261,
			DevMode:     false,
			OpenBrowser: true,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Schedule: ScheduleConfig{
			POL:           DefaultPOL,
			Carriers:      DefaultCarriers(),
			DedupePolicy:  string(dedupe.FirstWins),
			SheetTemplate: sheets.DefaultTemplate,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 可执行文件同目录下的 config.toml
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, FileName)
}

// LoadFile 从指定路径加载配置；path 为空时使用默认路径
// 文件不存在时返回默认配置。
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		// 数组表解码时不覆盖已有元素，默认船司在解码后补齐
		config.Schedule.Carriers = nil
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
		if len(config.Schedule.Carriers) == 0 {
			config.Schedule.Carriers = DefaultCarriers()
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 从可执行文件同目录的 config.toml 加载配置
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadFile("")
	return config, err
}

// 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := strings.TrimSpace(os.Getenv("SCHEDULE_DATA_DIR")); v != "" {
		config.Data.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULE_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCHEDULE_PORT: %w", err)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULE_POL")); v != "" {
		config.Schedule.POL = v
	}
	if os.Getenv("APP_ENV") == "dev" {
		config.Server.DevMode = true
	}
	return nil
}

// Validate 检查配置取值
func (c *AppConfig) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := dedupe.ParsePolicy(c.Schedule.DedupePolicy); err != nil {
		return fmt.Errorf("schedule.dedupe_policy: %w", err)
	}
	for _, p := range c.Schedule.Carriers {
		if strings.TrimSpace(p.Code) == "" {
			return fmt.Errorf("schedule.carriers: empty code")
		}
		switch p.CutoffMode {
		case "", model.CutoffSupplied, model.CutoffDerived:
		default:
			return fmt.Errorf("schedule.carriers: %s has unknown cutoff_mode %q", p.Code, p.CutoffMode)
		}
	}
	for _, r := range c.Rules.Seed {
		if strings.TrimSpace(r.ServiceName) == "" {
			return fmt.Errorf("rules.seed: empty service")
		}
		if !r.SameWeekday.Valid() {
			return fmt.Errorf("rules.seed: %s has unknown same_weekday %q", r.ServiceName, r.SameWeekday)
		}
	}
	return nil
}

// PipelineOptions 生成处理流程参数
func (c *AppConfig) PipelineOptions() pipeline.Options {
	// Validate 已检查过策略名称
	policy, _ := dedupe.ParsePolicy(c.Schedule.DedupePolicy)

	var ports *parser.PortTable
	if len(c.Schedule.Ports) > 0 {
		ports = parser.NewPortTable(c.Schedule.Ports)
	}
	return pipeline.Options{
		POL:           c.Schedule.POL,
		AllowedPODs:   c.Schedule.AllowedPODs,
		Ports:         ports,
		Carriers:      c.Schedule.Carriers,
		DedupePolicy:  policy,
		SheetTemplate: c.Schedule.SheetTemplate,
	}
}

// SaveConfig 保存配置到指定路径；path 为空时使用默认路径
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir 数据目录绝对路径；相对路径相对于可执行文件目录
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
