package source

import (
	"context"
	"errors"
	"time"

	"github.com/jpillora/backoff"

	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/service"
	"github.com/vitalchart/vitalchart/tools/log"
)

// Retry adds exponential backoff to a loader; cancelled requests are not retried
// Retry 为 Loader 加上指数退避重试。被取消或超时的请求不会重试。
type Retry struct {
	loader   service.Loader
	attempts int
	min      time.Duration
	max      time.Duration
}

// RetryOption configures retries
// RetryOption 重试配置
type RetryOption func(*Retry)

// WithAttempts sets the maximum number of attempts, including the first
// WithAttempts 最多尝试的次数（包含第一次）
func WithAttempts(attempts int) RetryOption {
	return func(r *Retry) {
		if attempts > 0 {
			r.attempts = attempts
		}
	}
}

// WithBackoff sets the bounds of the backoff
// WithBackoff 退避时间的上下限
func WithBackoff(min, max time.Duration) RetryOption {
	return func(r *Retry) {
		r.min, r.max = min, max
	}
}

// NewRetry wraps loader
// NewRetry 包装 loader
func NewRetry(loader service.Loader, options ...RetryOption) *Retry {
	retry := &Retry{
		loader:   loader,
		attempts: 3,
		min:      200 * time.Millisecond,
		max:      5 * time.Second,
	}
	for _, option := range options {
		option(retry)
	}
	return retry
}

func (r *Retry) do(ctx context.Context, operation string, fn func() error) error {
	b := &backoff.Backoff{
		Min:    r.min,
		Max:    r.max,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || attempt >= r.attempts {
			return err
		}

		wait := b.Duration()
		log.WithField("operation", operation).Warnf("attempt %d failed, retrying in %s: %v", attempt, wait, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// LoadReadings loads readings with retries
// LoadReadings 带重试地读取读数
func (r *Retry) LoadReadings(ctx context.Context, panelID string, window model.LoadWindow) ([]model.Point, error) {
	var points []model.Point
	err := r.do(ctx, "readings:"+panelID, func() error {
		var err error
		points, err = r.loader.LoadReadings(ctx, panelID, window)
		return err
	})
	return points, err
}

// LoadAnnotations loads events with retries
// LoadAnnotations 带重试地读取事件
func (r *Retry) LoadAnnotations(ctx context.Context, window model.LoadWindow) ([]model.Annotation, error) {
	var events []model.Annotation
	err := r.do(ctx, "annotations", func() error {
		var err error
		events, err = r.loader.LoadAnnotations(ctx, window)
		return err
	})
	return events, err
}
