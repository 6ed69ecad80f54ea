// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/internal/config"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/metrics"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/notify"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/repository"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/solver"
)

// RosterLoader 按科室加载排班输入
type RosterLoader interface {
	LoadInput(ctx context.Context, departmentID uuid.UUID, window model.PlanningWindow) (*scheduler.Input, error)
}

// ScheduleStore 排班记录存取
type ScheduleStore interface {
	SaveDraft(ctx context.Context, departmentID uuid.UUID, assignments []*model.Assignment) (int, error)
	Publish(ctx context.Context, departmentID uuid.UUID, startDate, endDate string) (int64, error)
	ListByRange(ctx context.Context, departmentID uuid.UUID, startDate, endDate string, status repository.ScheduleStatus) ([]*repository.ScheduleRecord, error)
}

// ResultCache 排班结果缓存
type ResultCache interface {
	Get(ctx context.Context, fingerprint string) (*scheduler.Result, bool, error)
	Set(ctx context.Context, fingerprint string, result *scheduler.Result) error
}

// HealthChecker 依赖健康检查
type HealthChecker func(ctx context.Context) error

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Deps 可选依赖，未配置的保持为 nil
type Deps struct {
	Roster    RosterLoader
	Schedules ScheduleStore
	Cache     ResultCache
	Publisher notify.Publisher
	Checks    map[string]HealthChecker
	Build     BuildInfo
}

// Handler HTTP处理器
type Handler struct {
	validate   *validator.Validate
	translator ut.Translator
	config     *config.Config
	deps       Deps
	limiter    *RateLimiter
	solves     *solver.Limiter

	Mux *chi.Mux
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, deps Deps) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	if deps.Publisher == nil {
		deps.Publisher = notify.Nop{}
	}

	h := &Handler{
		validate:   validate,
		translator: trans,
		config:     cfg,
		deps:       deps,
		solves:     solver.NewLimiter(cfg.Scheduler.MaxSolves),

		Mux: chi.NewRouter(),
	}
	if cfg.API.RateLimit > 0 {
		h.limiter = NewRateLimiter(cfg.API.RateLimit)
	}
	return h, nil
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(chiMiddleware.RealIP)
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(chiMiddleware.Recoverer)
	if h.limiter != nil {
		h.Mux.Use(h.rateLimit)
	}
	if h.config.API.CORS.Enabled {
		h.Mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.config.API.CORS.Origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	h.Mux.Get("/health", h.Health)
	h.Mux.Get("/version", h.Version)
	if h.config.Metrics.Enabled {
		h.Mux.Handle(h.config.Metrics.Path, metrics.Handler())
	}

	h.Mux.Route("/api/v1", func(r chi.Router) {
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.ListSchedules)
			r.Post("/generate", h.Generate)
			r.Post("/batch", h.GenerateBatch)
			r.Post("/publish", h.PublishSchedules)
			r.Post("/swap/evaluate", h.EvaluateSwap)
			r.Post("/swap/recommend", h.RecommendSwap)
		})

		r.Post("/stats/analyze", h.AnalyzeStats)
		r.Get("/constraints/library", h.ConstraintLibrary)
	})
}

// maxTimeLimit 单次求解允许的最长时间，不超过请求超时
func (h *Handler) maxTimeLimit() time.Duration {
	if h.config.API.Timeout > 0 {
		return h.config.API.Timeout
	}
	return 120 * time.Second
}
