package solver

import (
	"runtime"
	"time"
)

// Limiter 限制同时运行的 gophersat 求解数。
// 超时后仍在后台运行的求解也占用名额，直到 gophersat 真正返回
type Limiter struct {
	slots chan struct{}
}

// NewLimiter 创建最多允许 n 个求解同时运行的限制器，n < 1 时按 1 处理
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

var defaultLimiter = NewLimiter(runtime.NumCPU())

// DefaultLimiter 返回进程内共享的限制器，名额为 CPU 数
func DefaultLimiter() *Limiter {
	return defaultLimiter
}

// acquire 在截止时间前取得名额
func (l *Limiter) acquire(deadline time.Time) bool {
	if l.TryAcquire() {
		return true
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// TryAcquire 不等待地占用一个名额
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release 归还一个名额
func (l *Limiter) Release() {
	<-l.slots
}

// InUse 当前占用的名额数
func (l *Limiter) InUse() int {
	return len(l.slots)
}

// Limit 名额上限
func (l *Limiter) Limit() int {
	return cap(l.slots)
}

// Full 名额是否已用完
func (l *Limiter) Full() bool {
	return l.InUse() >= l.Limit()
}
