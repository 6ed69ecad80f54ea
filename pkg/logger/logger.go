// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

type ctxKey string

// RequestIDKey 请求ID在 context 中的键
const RequestIDKey ctxKey = "request_id"

// Config 日志配置
type Config struct {
	Level   string // trace/debug/info/warn/error/disabled
	Format  string // json/console
	Service string // 非空时每条日志附带 service 字段

	// Out 为空时写 stdout
	Out io.Writer
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
	}
}

// Init 初始化全局日志器，只有第一次调用生效
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		out := cfg.Out
		if out == nil {
			out = os.Stdout
		}
		if cfg.Format == "console" {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		ctx := zerolog.New(out).With().Timestamp()
		if cfg.Service != "" {
			ctx = ctx.Str("service", cfg.Service)
		}
		logger = ctx.Logger()
	})
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

// ContextWithRequestID 在 context 中写入请求ID
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID 从 context 读取请求ID
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	reqID, _ := ctx.Value(RequestIDKey).(string)
	return reqID
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()
	if reqID := RequestID(ctx); reqID != "" {
		l = l.With().Str("request_id", reqID).Logger()
	}
	return &l
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// SchedulerLogger 排班引擎专用日志器
type SchedulerLogger struct {
	base zerolog.Logger
}

// NewSchedulerLogger 创建排班引擎日志器
func NewSchedulerLogger() *SchedulerLogger {
	return &SchedulerLogger{base: Get().With().Str("component", "scheduler").Logger()}
}

// WithContext 返回带请求ID的排班日志器
func (l *SchedulerLogger) WithContext(ctx context.Context) *SchedulerLogger {
	reqID := RequestID(ctx)
	if reqID == "" {
		return l
	}
	return &SchedulerLogger{base: l.base.With().Str("request_id", reqID).Logger()}
}

// ModelBuilt 记录模型构建完成
func (l *SchedulerLogger) ModelBuilt(workers, days, shifts, variables, constraints, costTerms int) {
	l.base.Debug().
		Int("workers", workers).
		Int("days", days).
		Int("shift_types", shifts).
		Int("variables", variables).
		Int("constraints", constraints).
		Int("cost_terms", costTerms).
		Msg("排班模型构建完成")
}

// ConstraintEncoded 记录单个约束写入模型的规模
func (l *SchedulerLogger) ConstraintEncoded(constraint string, variables, constraints, costTerms int) {
	l.base.Trace().
		Str("constraint", constraint).
		Int("variables", variables).
		Int("constraints", constraints).
		Int("cost_terms", costTerms).
		Msg("约束已编码")
}

// InvalidInput 记录前置校验失败
func (l *SchedulerLogger) InvalidInput(reason string) {
	l.base.Warn().
		Str("reason", reason).
		Msg("排班输入无效，未调用求解器")
}

// StartSolve 记录求解开始
func (l *SchedulerLogger) StartSolve(solver string, timeLimit time.Duration) {
	l.base.Info().
		Str("solver", solver).
		Dur("time_limit", timeLimit).
		Msg("开始求解")
}

// Improved 记录找到更优解
func (l *SchedulerLogger) Improved(iteration, cost int, elapsed time.Duration) {
	l.base.Debug().
		Int("iteration", iteration).
		Int("cost", cost).
		Dur("elapsed", elapsed).
		Msg("找到更优解")
}

// ConstraintViolation 记录约束违反
func (l *SchedulerLogger) ConstraintViolation(constraint, details string) {
	l.base.Error().
		Str("constraint", constraint).
		Str("details", details).
		Msg("约束违反")
}

// ScheduleComplete 记录排班完成
func (l *SchedulerLogger) ScheduleComplete(outcome string, assignments int, objective float64, duration time.Duration) {
	l.base.Info().
		Str("outcome", outcome).
		Int("assignments", assignments).
		Float64("objective", objective).
		Dur("duration", duration).
		Msg("排班生成完成")
}
