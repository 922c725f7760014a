// Package logger 结构化日志（zerolog）
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger 组件日志接口
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger 丢弃所有日志
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// SetLevel 设置全局日志级别（debug/info/warn/error），无法识别时保持不变
func SetLevel(level string) {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
}

// New 创建带 component 字段的日志；APP_ENV=dev 时输出彩色控制台格式
func New(component string) Logger {
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		return NewWithWriter(component, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return NewWithWriter(component, os.Stdout)
}

// NewWithWriter 创建写入 w 的 JSON 日志
func NewWithWriter(component string, w io.Writer) Logger {
	z := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

// ZerologLogger zerolog 实现
type ZerologLogger struct {
	log zerolog.Logger
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
