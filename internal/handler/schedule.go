package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/internal/cache"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/metrics"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/notify"
	"github.com/Simon6088/Doctor-Scheduling-System/internal/repository"
	apperrors "github.com/Simon6088/Doctor-Scheduling-System/pkg/errors"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/logger"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler"
)

// GenerateRequest 排班生成请求
// 提供 department_id 时从数据库加载医生和班次，否则使用请求中的数据
type GenerateRequest struct {
	DepartmentID   *uuid.UUID              `json:"department_id,omitempty"`
	StartDate      string                  `json:"start_date" validate:"required"`
	Days           int                     `json:"days" validate:"max=366"`
	Workers        []*model.Worker         `json:"workers,omitempty"`
	ShiftTypes     []*model.ShiftType      `json:"shift_types,omitempty"`
	Preferences    []*model.Preference     `json:"preferences,omitempty"`
	Unavailability []*model.Unavailability `json:"unavailability,omitempty"`
	Options        *OptionsOverride        `json:"options,omitempty"`
}

// OptionsOverride 覆盖服务端默认配置，未提供的字段沿用默认值
type OptionsOverride struct {
	TimeLimitSeconds      *float64          `json:"time_limit_seconds,omitempty"`
	BalanceWeight         *float64          `json:"balance_weight,omitempty"`
	PreferenceWeight      *float64          `json:"preference_weight,omitempty"`
	CoverageCountPerShift *int              `json:"coverage_count_per_shift,omitempty"`
	RestRules             *[]model.RestRule `json:"rest_rules,omitempty"` // [] 表示不限制
	MaxImprovements       *int              `json:"max_improvements,omitempty"`
}

func (o *OptionsOverride) apply(base scheduler.Options) scheduler.Options {
	if o == nil {
		return base
	}
	if o.TimeLimitSeconds != nil {
		base.TimeLimitSeconds = *o.TimeLimitSeconds
	}
	if o.BalanceWeight != nil {
		base.BalanceWeight = *o.BalanceWeight
	}
	if o.PreferenceWeight != nil {
		base.PreferenceWeight = *o.PreferenceWeight
	}
	if o.CoverageCountPerShift != nil {
		base.CoverageCountPerShift = *o.CoverageCountPerShift
	}
	if o.RestRules != nil {
		base.RestRules = *o.RestRules
	}
	if o.MaxImprovements != nil {
		base.MaxImprovements = *o.MaxImprovements
	}
	return base
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success     bool              `json:"success"`
	Code        apperrors.Code    `json:"code,omitempty"`
	Message     string            `json:"message,omitempty"`
	Fingerprint string            `json:"fingerprint"`
	Cached      bool              `json:"cached"`
	Saved       int               `json:"saved"` // 新保存的草稿条数
	Result      *scheduler.Result `json:"result"`
}

// Generate 生成排班
// OPTIMAL/FEASIBLE 返回 200，INFEASIBLE 422，TIMEOUT 504，INVALID_INPUT 400
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	opts, err := h.options(req.Options)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	in, err := h.buildInput(ctx, &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp, err := h.generate(ctx, req.DepartmentID, in, opts)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if err := resp.Result.Err(); err != nil {
		status = apperrors.GetHTTPStatus(err)
	}
	respondJSON(w, r, status, resp)
}

// options 合并请求配置并限制求解时间不超过接口超时
func (h *Handler) options(o *OptionsOverride) (scheduler.Options, error) {
	opts := o.apply(h.config.SchedulerOptions())
	opts.Limiter = h.solves
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	if limit := h.maxTimeLimit(); opts.TimeLimit() > limit {
		return opts, apperrors.InvalidConfig("time_limit_seconds", opts.TimeLimitSeconds,
			fmt.Sprintf("不能超过接口超时 %.0f 秒", limit.Seconds()))
	}
	return opts, nil
}

func (h *Handler) buildInput(ctx context.Context, req *GenerateRequest) (*scheduler.Input, error) {
	window := model.PlanningWindow{StartDate: req.StartDate, Days: req.Days}
	if req.DepartmentID == nil {
		return &scheduler.Input{
			Workers:        req.Workers,
			ShiftTypes:     req.ShiftTypes,
			Window:         window,
			Preferences:    req.Preferences,
			Unavailability: req.Unavailability,
		}, nil
	}

	if h.deps.Roster == nil {
		return nil, errStorageDisabled()
	}
	if len(req.Workers) > 0 || len(req.ShiftTypes) > 0 {
		return nil, apperrors.InvalidInput("department_id", "不能与 workers、shift_types 同时提供")
	}

	in, err := h.deps.Roster.LoadInput(ctx, *req.DepartmentID, window)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("科室", req.DepartmentID.String())
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "加载科室排班数据失败")
	}
	// 请求中附带的偏好和不可排班日期追加在数据库记录之后
	in.Preferences = append(in.Preferences, req.Preferences...)
	in.Unavailability = append(in.Unavailability, req.Unavailability...)
	return in, nil
}

// generate 求解或命中缓存，随后保存草稿并发送事件
func (h *Handler) generate(ctx context.Context, departmentID *uuid.UUID, in *scheduler.Input, opts scheduler.Options) (*GenerateResponse, error) {
	log := logger.WithContext(ctx)

	fingerprint, err := cache.Fingerprint(*in, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "计算请求指纹失败")
	}
	resp := &GenerateResponse{Fingerprint: fingerprint}

	resp.Result = h.lookup(ctx, fingerprint)
	resp.Cached = resp.Result != nil
	if !resp.Cached {
		if h.solves.Full() {
			metrics.RecordSolveRejected()
			return nil, errSolverBusy()
		}
		eng, err := scheduler.New(*in, opts)
		if err != nil {
			return nil, err
		}

		done := metrics.TrackActive()
		resp.Result = eng.Solve(ctx)
		done()

		metrics.RecordGeneration(string(resp.Result.Outcome), resp.Result.Iterations, resp.Result.Duration)
		if resp.Result.Coverage != nil {
			metrics.SetCoverageRate(resp.Result.Coverage.OverallCoverage)
		}
		if h.deps.Cache != nil {
			if err := h.deps.Cache.Set(ctx, fingerprint, resp.Result); err != nil {
				log.Warn().Err(err).Msg("写入排班缓存失败")
			}
		}
	}

	result := resp.Result
	if departmentID != nil && h.deps.Schedules != nil && result.HasSolution() {
		saved, err := h.deps.Schedules.SaveDraft(ctx, *departmentID, result.Assignments)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存排班草稿失败")
		}
		resp.Saved = saved
	}

	if !resp.Cached || resp.Saved > 0 {
		event := notify.NewScheduleGenerated(departmentID, in, result, resp.Saved)
		if err := h.deps.Publisher.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("发送排班事件失败")
		}
	}

	resp.Success = result.HasSolution()
	resp.Message = result.Reason
	if err := result.Err(); err != nil {
		resp.Code = apperrors.GetCode(err)
	}
	return resp, nil
}

// lookup 读取缓存，缓存异常按未命中处理
func (h *Handler) lookup(ctx context.Context, fingerprint string) *scheduler.Result {
	if h.deps.Cache == nil {
		return nil
	}

	result, hit, err := h.deps.Cache.Get(ctx, fingerprint)
	if err != nil {
		logger.WithContext(ctx).Warn().Err(err).Msg("读取排班缓存失败")
		return nil
	}
	metrics.RecordCacheLookup(hit)
	return result
}

// BatchItem 批量请求中的一项
type BatchItem struct {
	ID string `json:"id"`
	GenerateRequest
}

// BatchRequest 批量排班请求
type BatchRequest struct {
	Requests []BatchItem `json:"requests" validate:"required,min=1,max=50,dive"`
}

// BatchItemResult 批量排班中单项的结果
type BatchItemResult struct {
	Index  int               `json:"index"`
	ID     string            `json:"id"`
	Result *scheduler.Result `json:"result,omitempty"`
	Error  *ErrorResponse    `json:"error,omitempty"`
}

// GenerateBatch 并行生成多个排班，例如一次为多个科室排班
// 单项失败不影响其他项；不保存草稿也不读写缓存
func (h *Handler) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if h.solves.Full() {
		metrics.RecordSolveRejected()
		h.respondError(w, r, errSolverBusy())
		return
	}

	ctx := r.Context()
	results := make([]BatchItemResult, len(req.Requests))
	var requests []scheduler.Request
	var positions []int

	for i := range req.Requests {
		item := &req.Requests[i]
		results[i] = BatchItemResult{Index: i, ID: item.ID}

		opts, err := h.options(item.Options)
		if err == nil {
			var in *scheduler.Input
			if in, err = h.buildInput(ctx, &item.GenerateRequest); err == nil {
				requests = append(requests, scheduler.Request{ID: item.ID, Input: *in, Options: opts})
				positions = append(positions, i)
				continue
			}
		}
		results[i].Error = toErrorResponse(err)
	}

	for _, br := range scheduler.RunBatch(ctx, requests, h.config.Scheduler.BatchWorkers) {
		i := positions[br.Index]
		if br.Err != nil {
			results[i].Error = toErrorResponse(br.Err)
			continue
		}
		results[i].Result = br.Result
		metrics.RecordGeneration(string(br.Result.Outcome), br.Result.Iterations, br.Result.Duration)
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{"results": results})
}

// PublishRequest 发布排班请求
type PublishRequest struct {
	DepartmentID uuid.UUID `json:"department_id" validate:"required"`
	StartDate    string    `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string    `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// PublishSchedules 将周期内的草稿发布
func (h *Handler) PublishSchedules(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if h.deps.Schedules == nil {
		h.respondError(w, r, errStorageDisabled())
		return
	}
	if req.EndDate < req.StartDate {
		h.respondError(w, r, apperrors.InvalidInput("end_date", "不能早于 start_date"))
		return
	}

	n, err := h.deps.Schedules.Publish(r.Context(), req.DepartmentID, req.StartDate, req.EndDate)
	if err != nil {
		h.respondError(w, r, apperrors.Wrap(err, apperrors.CodeDatabaseError, "发布排班失败"))
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":   true,
		"published": n,
	})
}

// ListQuery 排班查询参数
type ListQuery struct {
	DepartmentID string `validate:"required,uuid"`
	StartDate    string `validate:"required,datetime=2006-01-02"`
	EndDate      string `validate:"required,datetime=2006-01-02"`
	Status       string `validate:"omitempty,oneof=draft published"`
}

// ListSchedules 查询周期内的排班记录
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ListQuery{
		DepartmentID: q.Get("department_id"),
		StartDate:    q.Get("start_date"),
		EndDate:      q.Get("end_date"),
		Status:       q.Get("status"),
	}
	if err := h.validate.Struct(query); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if h.deps.Schedules == nil {
		h.respondError(w, r, errStorageDisabled())
		return
	}

	records, err := h.deps.Schedules.ListByRange(r.Context(), uuid.MustParse(query.DepartmentID),
		query.StartDate, query.EndDate, repository.ScheduleStatus(query.Status))
	if err != nil {
		h.respondError(w, r, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询排班记录失败"))
		return
	}
	if records == nil {
		records = []*repository.ScheduleRecord{}
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":   true,
		"schedules": records,
	})
}

func errStorageDisabled() *apperrors.AppError {
	return apperrors.New(apperrors.CodeUnavailable, "未配置数据库")
}

// errSolverBusy 求解名额被占满，包括超时后仍在后台运行的求解
func errSolverBusy() *apperrors.AppError {
	return apperrors.New(apperrors.CodeUnavailable, "求解任务已满，请稍后重试")
}
