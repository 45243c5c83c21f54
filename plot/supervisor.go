package plot

import (
	"fmt"
	"runtime/debug"

	"github.com/vitalchart/vitalchart/tools/log"
)

// RenderError is a render failure isolated to one panel
// RenderError 面板渲染失败。失败被隔离在该面板内，其他面板照常渲染，可通过 RetryPanel 重试。
type RenderError struct {
	PanelID  string
	Cause    error
	Panicked bool
}

func (e *RenderError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("panel %s: render panic: %v", e.PanelID, e.Cause)
	}
	return fmt.Sprintf("panel %s: render: %v", e.PanelID, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Result of a guarded render; only one of Value and Err is set
// Result 一次受保护的渲染结果：Value 与 Err 只有一个有效
type Result[T any] struct {
	Value T
	Err   *RenderError
}

// OK reports whether the render succeeded
// OK 渲染是否成功
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Guard runs render and turns a returned error or a panic into a RenderError
// Guard 在受保护的上下文中执行 render，把返回的错误或 panic 收集为 RenderError
func Guard[T any](panelID string, render func() (T, error)) (result Result[T]) {
	defer func() {
		if recovered := recover(); recovered != nil {
			cause, ok := recovered.(error)
			if !ok {
				cause = fmt.Errorf("%v", recovered)
			}
			log.WithField("panel", panelID).Errorf("render panic: %v\n%s", recovered, debug.Stack())
			result = Result[T]{Err: &RenderError{PanelID: panelID, Cause: cause, Panicked: true}}
		}
	}()

	value, err := render()
	if err != nil {
		log.WithField("panel", panelID).Warnf("render failed: %v", err)
		return Result[T]{Err: &RenderError{PanelID: panelID, Cause: err}}
	}

	return Result[T]{Value: value}
}
