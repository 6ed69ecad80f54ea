package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Simon6088/Doctor-Scheduling-System/internal/constraints"
)

// Health 健康检查，任一依赖不可用时返回 503
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.deps.Checks))
	for name := range h.deps.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.deps.Checks[name](ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, r, status, map[string]interface{}{
		"status":  state,
		"service": h.config.App.Name,
		"checks":  checks,
	})
}

// Version 版本信息
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.deps.Build)
}

// ConstraintLibrary 返回支持的约束及默认配置
func (h *Handler) ConstraintLibrary(w http.ResponseWriter, r *http.Request) {
	lib := constraints.Library()
	lib.Defaults = h.config.SchedulerOptions()
	respondJSON(w, r, http.StatusOK, lib)
}
