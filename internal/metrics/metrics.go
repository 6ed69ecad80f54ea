// Package metrics 提供Prometheus文本格式的监控指标
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// 指标名称
const (
	HTTPRequestsTotal     = "doctor_scheduling_http_requests_total"
	HTTPRequestDuration   = "doctor_scheduling_http_request_duration_seconds"
	GenerationTotal       = "doctor_scheduling_generation_total"
	GenerationDuration    = "doctor_scheduling_generation_duration_seconds"
	SolverIterationsTotal = "doctor_scheduling_solver_iterations_total"
	CacheLookupsTotal     = "doctor_scheduling_cache_lookups_total"
	LastCoverageRate      = "doctor_scheduling_last_coverage_rate"
	ActiveGenerations     = "doctor_scheduling_active_generations"
	SolvesRejectedTotal   = "doctor_scheduling_solves_rejected_total"
	DBSlowQueriesTotal    = "doctor_scheduling_db_slow_queries_total"
	DBOpenConnections     = "doctor_scheduling_db_open_connections"
)

// Registry 指标注册表
type Registry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter 计数器
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge 仪表盘
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	registry *Registry
	once     sync.Once
)

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

// Default 获取全局注册表
func Default() *Registry {
	once.Do(func() {
		registry = NewRegistry()
		registerDefaults(registry)
	})
	return registry
}

func registerDefaults(r *Registry) {
	r.NewCounter(HTTPRequestsTotal, "HTTP请求总数", []string{"method", "path", "status"})
	r.NewHistogram(HTTPRequestDuration, "HTTP请求延迟",
		[]string{"method", "path"},
		[]float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0})

	r.NewCounter(GenerationTotal, "排班生成次数", []string{"outcome"})
	r.NewHistogram(GenerationDuration, "排班生成耗时",
		[]string{"outcome"},
		[]float64{0.01, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0})
	r.NewCounter(SolverIterationsTotal, "求解器调用次数", nil)
	r.NewCounter(CacheLookupsTotal, "结果缓存查询次数", []string{"result"})

	r.NewGauge(LastCoverageRate, "最近一次排班的覆盖率", nil)
	r.NewGauge(ActiveGenerations, "正在进行的排班生成数", nil)
	r.NewCounter(SolvesRejectedTotal, "求解名额已满被拒绝的请求数", nil)

	r.NewCounter(DBSlowQueriesTotal, "慢SQL次数", []string{"op"})
	r.NewGauge(DBOpenConnections, "数据库连接数", []string{"state"})
}

// NewCounter 创建计数器
func (r *Registry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Counter{Name: name, Help: help, Labels: labels, values: make(map[string]float64)}
	r.counters[name] = c
	return c
}

// NewGauge 创建仪表盘
func (r *Registry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &Gauge{Name: name, Help: help, Labels: labels, values: make(map[string]float64)}
	r.gauges[name] = g
	return g
}

// NewHistogram 创建直方图
func (r *Registry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = h
	return h
}

// Counter 获取计数器
func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// Gauge 获取仪表盘
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// Histogram 获取直方图
func (r *Registry) Histogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc 增加计数
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add 增加指定值
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += value
}

// Value 读取当前值
func (c *Counter) Value(labelValues ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[labelKey(labelValues)]
}

// Set 设置值
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = value
}

// Add 增加指定值，负数为减少
func (g *Gauge) Add(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] += value
}

// Value 读取当前值
func (g *Gauge) Value(labelValues ...string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values[labelKey(labelValues)]
}

// Observe 记录观测值
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	counts, ok := h.counts[key]
	if !ok {
		// 最后一格为 +Inf
		counts = make([]int, len(h.Buckets)+1)
		h.counts[key] = counts
	}

	i := sort.SearchFloat64s(h.Buckets, value)
	counts[i]++
	h.sums[key] += value
}

// Count 某组标签的观测次数
func (h *Histogram) Count(labelValues ...string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, n := range h.counts[labelKey(labelValues)] {
		total += n
	}
	return total
}

func labelKey(labels []string) string {
	return strings.Join(labels, "\x1f")
}

func formatLabels(names []string, key string, extra ...string) string {
	var vals []string
	if key != "" || len(names) > 0 {
		vals = strings.Split(key, "\x1f")
	}

	parts := make([]string, 0, len(names)+len(extra)/2)
	for i, name := range names {
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	for i := 0; i+1 < len(extra); i += 2 {
		parts = append(parts, fmt.Sprintf("%s=%q", extra[i], extra[i+1]))
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// metricsWriter 记录写出的字节数，出错后不再写入
type metricsWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (mw *metricsWriter) printf(format string, args ...any) {
	if mw.err != nil {
		return
	}
	n, err := fmt.Fprintf(mw.w, format, args...)
	mw.n += int64(n)
	mw.err = err
}

// WriteTo 以Prometheus文本格式输出全部指标，按名称排序。
// 实现 io.WriterTo，返回已写出的字节数和第一个写入错误
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mw := &metricsWriter{w: w}
	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		mw.printf("# HELP %s %s\n# TYPE %s counter\n", c.Name, c.Help, c.Name)
		c.mu.RLock()
		for _, key := range sortedKeys(c.values) {
			mw.printf("%s%s %g\n", c.Name, formatLabels(c.Labels, key), c.values[key])
		}
		c.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		mw.printf("# HELP %s %s\n# TYPE %s gauge\n", g.Name, g.Help, g.Name)
		g.mu.RLock()
		for _, key := range sortedKeys(g.values) {
			mw.printf("%s%s %g\n", g.Name, formatLabels(g.Labels, key), g.values[key])
		}
		g.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.histograms) {
		h := r.histograms[name]
		mw.printf("# HELP %s %s\n# TYPE %s histogram\n", h.Name, h.Help, h.Name)
		h.mu.RLock()
		for _, key := range sortedKeys(h.counts) {
			counts := h.counts[key]
			cumulative := 0
			for i, bucket := range h.Buckets {
				cumulative += counts[i]
				le := strconv.FormatFloat(bucket, 'g', -1, 64)
				mw.printf("%s_bucket%s %d\n", h.Name, formatLabels(h.Labels, key, "le", le), cumulative)
			}
			cumulative += counts[len(h.Buckets)]
			mw.printf("%s_bucket%s %d\n", h.Name, formatLabels(h.Labels, key, "le", "+Inf"), cumulative)
			mw.printf("%s_sum%s %g\n", h.Name, formatLabels(h.Labels, key), h.sums[key])
			mw.printf("%s_count%s %d\n", h.Name, formatLabels(h.Labels, key), cumulative)
		}
		h.mu.RUnlock()
	}
	return mw.n, mw.err
}

// Handler 返回全局注册表的HTTP处理器
func Handler() http.Handler {
	return HandlerFor(Default())
}

// HandlerFor 返回指定注册表的HTTP处理器
func HandlerFor(r *Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		// 客户端断开时写入失败，无需处理
		_, _ = r.WriteTo(w)
	})
}

// RecordRequest 记录请求指标，path 应为路由模板而非原始路径
func RecordRequest(method, path string, status int, duration time.Duration) {
	r := Default()
	r.Counter(HTTPRequestsTotal).Inc(method, path, strconv.Itoa(status))
	r.Histogram(HTTPRequestDuration).Observe(duration.Seconds(), method, path)
}

// RecordGeneration 记录一次排班生成
func RecordGeneration(outcome string, iterations int, duration time.Duration) {
	r := Default()
	r.Counter(GenerationTotal).Inc(outcome)
	r.Histogram(GenerationDuration).Observe(duration.Seconds(), outcome)
	r.Counter(SolverIterationsTotal).Add(float64(iterations))
}

// RecordCacheLookup 记录缓存命中情况
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	Default().Counter(CacheLookupsTotal).Inc(result)
}

// SetCoverageRate 设置最近一次排班的覆盖率
func SetCoverageRate(rate float64) {
	Default().Gauge(LastCoverageRate).Set(rate)
}

// TrackActive 标记一次生成开始，返回的函数在结束时调用
func TrackActive() func() {
	g := Default().Gauge(ActiveGenerations)
	g.Add(1)
	return func() { g.Add(-1) }
}

// RecordSolveRejected 记录一次因求解名额已满而拒绝的请求
func RecordSolveRejected() {
	Default().Counter(SolvesRejectedTotal).Inc()
}

// RecordSlowQuery 记录一次慢SQL，op 为 exec/query/query_row
func RecordSlowQuery(op string) {
	Default().Counter(DBSlowQueriesTotal).Inc(op)
}

// SetDBConnections 设置连接池中使用中和空闲的连接数
func SetDBConnections(inUse, idle int) {
	g := Default().Gauge(DBOpenConnections)
	g.Set(float64(inUse), "in_use")
	g.Set(float64(idle), "idle")
}
