// Package retry 提供通用的有限次数重试执行器
//
// 重试循环本身与提供商无关，是否继续重试由调用方传入的判定函数决定，
// 这样每个提供商的"不可重试"条件（额度耗尽、认证失败等）都留在提供商内部。
package retry

import (
	"context"
	"time"
)

// Policy 重试策略
type Policy struct {
	// Times 总尝试次数（不是额外重试次数），小于 1 时按 1 处理
	Times int `json:"times"`

	// Sleep 两次尝试之间的等待时间
	Sleep time.Duration `json:"sleep"`
}

// DefaultPolicy 返回默认重试策略
func DefaultPolicy() Policy {
	return Policy{
		Times: 3,
		Sleep: time.Second,
	}
}

// FromMillis 根据次数和毫秒数创建重试策略
func FromMillis(times, sleepMillis int) Policy {
	if sleepMillis < 0 {
		sleepMillis = 0
	}
	return Policy{
		Times: times,
		Sleep: time.Duration(sleepMillis) * time.Millisecond,
	}
}

// attempts 返回有效的总尝试次数
func (p Policy) attempts() int {
	if p.Times < 1 {
		return 1
	}
	return p.Times
}

// ShouldRetry 判断错误是否需要重试
type ShouldRetry func(err error) bool

// Always 所有错误都重试
func Always(error) bool { return true }

// Never 所有错误都不重试
func Never(error) bool { return false }

// Operation 可重试的操作
type Operation[T any] func(ctx context.Context) (T, error)

// Do 执行操作，失败时按策略和判定函数决定是否重试
//
// 判定函数返回 false 或尝试次数用尽时立即返回最后一次的错误。
func Do[T any](ctx context.Context, policy Policy, shouldRetry ShouldRetry, op Operation[T]) (T, error) {
	var zero T
	if shouldRetry == nil {
		shouldRetry = Always
	}

	attempts := policy.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts || !shouldRetry(err) {
			break
		}

		if policy.Sleep > 0 {
			timer := time.NewTimer(policy.Sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
