package plot

import (
	"math"
	"time"

	"github.com/vitalchart/vitalchart/downsample"
	"github.com/vitalchart/vitalchart/model"
)

// Policy holds tunable performance and interaction parameters
// Policy 可调的性能与交互参数
type Policy struct {
	FullThreshold int     // 超过该点数才对完整数据执行 LTTB
	FullTarget    int     // LTTB 目标点数
	VisibleCap    int     // 可见切片的点数上限（步进采样）
	ZoomStep      float64 // 每次滚轮缩放改变的跨度（百分比）
	MinSpan       float64 // 缩放允许的最小跨度（百分比）
	PanelHeight   int     // 面板高度（像素），0 表示按宽度推算
}

// DefaultPolicy returns the default policy
// DefaultPolicy 返回默认策略
func DefaultPolicy() Policy {
	return Policy{
		FullThreshold: downsample.DefaultThreshold,
		FullTarget:    downsample.DefaultTarget,
		VisibleCap:    downsample.DefaultVisibleCap,
		ZoomStep:      10,
		MinSpan:       5,
	}
}

// WheelDirection maps a wheel deltaY to -1 (zoom in) or +1 (zoom out)
// WheelDirection 将滚轮 deltaY 转换为缩放方向：向上滚（负值）放大为 -1，向下滚缩小为 +1
func WheelDirection(deltaY float64) int {
	switch {
	case deltaY < 0:
		return -1
	case deltaY > 0:
		return 1
	}
	return 0
}

// Zoom zooms around the center of the window, keeping the span within [minSpan, 100]
// Zoom 以当前窗口中心缩放。direction 为 -1 放大、+1 缩小。
// 新跨度被限制在 [minSpan, 100]，越界时两端一起平移，不会压缩跨度。
func Zoom(v model.Viewport, direction int, step, minSpan float64) model.Viewport {
	v = Normalize(v)
	if direction == 0 {
		return v
	}

	center := (v.Start + v.End) / 2
	span := v.Span()

	// 已经小于最小跨度时（例如预设产生的窄窗口），放大不会再把它撑大
	low := minSpan
	if span < low {
		low = span
	}
	newSpan := clamp(span+float64(direction)*step, low, 100)

	start := center - newSpan/2
	end := center + newSpan/2
	if start < 0 {
		end -= start
		start = 0
	}
	if end > 100 {
		start -= end - 100
		end = 100
	}

	return Normalize(model.Viewport{Start: math.Max(start, 0), End: end})
}

// Pan shifts the viewport with grab semantics. deltaPx is the raw pointer
// displacement (current x minus the x at pointer down); the sign is applied here,
// so a positive delta (dragging right) reveals earlier data. Callers must not negate it.
// Pan 根据拖拽的像素位移平移窗口。位移换算为 deltaPx / widthPx × 100 个百分点；
// 向右拖动显示更早的数据。deltaPx 传入指针的原始位移即可，取反已在这里完成，调用方不要再取反。
// 跨度保持不变，两端同时被限制在 [0, 100]。
func Pan(origin model.Viewport, deltaPx, widthPx float64) model.Viewport {
	origin = Normalize(origin)
	if widthPx <= 0 || math.IsNaN(deltaPx) || math.IsInf(deltaPx, 0) {
		return origin
	}

	shift := -deltaPx / widthPx * 100
	if origin.Start+shift < 0 {
		shift = -origin.Start
	}
	if origin.End+shift > 100 {
		shift = 100 - origin.End
	}

	return Normalize(model.Viewport{Start: origin.Start + shift, End: origin.End + shift})
}

// Normalize clamps a viewport to [0, 100], falling back to the full view when invalid
// Normalize 把窗口限制在 [0, 100]；出现 NaN/Inf 或 start > end 时退回完整视图
func Normalize(v model.Viewport) model.Viewport {
	for _, f := range []float64{v.Start, v.End} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return model.FullViewport
		}
	}

	v.Start = clamp(v.Start, 0, 100)
	v.End = clamp(v.End, 0, 100)
	if v.Start > v.End {
		return model.FullViewport
	}
	return v
}

// ViewportForWindow converts an absolute window into percentages of [first, last]
// ViewportForWindow 把绝对时间窗口换算为相对于数据范围 [first, last] 的百分比窗口
func ViewportForWindow(first, last time.Time, window model.LoadWindow) model.Viewport {
	span := float64(last.Sub(first))
	if span <= 0 {
		return model.FullViewport
	}

	start := float64(window.Start.Sub(first)) / span * 100
	end := float64(window.End.Sub(first)) / span * 100
	return Normalize(model.Viewport{Start: clamp(start, 0, 100), End: clamp(end, 0, 100)})
}

// VisibleRange converts a viewport back into absolute times
// VisibleRange 把百分比窗口换算回绝对时间
func VisibleRange(first, last time.Time, v model.Viewport) (time.Time, time.Time) {
	v = Normalize(v)
	span := float64(last.Sub(first))
	if span <= 0 {
		return first, last
	}

	// 向外取整，浮点误差不会把边界上的点挤出窗口
	start := first.Add(time.Duration(math.Floor(span * v.Start / 100)))
	end := first.Add(time.Duration(math.Ceil(span * v.End / 100)))
	return start, end
}

func clamp(value, low, high float64) float64 {
	return math.Min(math.Max(value, low), high)
}
