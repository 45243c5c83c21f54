package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

var (
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidPreset    = errors.New("invalid range preset")
)

// PanelKind is the kind of a panel
// PanelKind 面板类型
type PanelKind string

const (
	PanelDualAxis PanelKind = "dual-axis" // 双轴图：两个序列分别对应左右 Y 轴
	PanelMonitor  PanelKind = "monitor"   // 监护视图：一个主序列加一个“活动量”副序列
)

// AxisSide is the Y axis a series is bound to
// AxisSide 序列绑定的 Y 轴
type AxisSide string

const (
	AxisLeft  AxisSide = "left"
	AxisRight AxisSide = "right"
)

// SeriesInfo describes one logical channel
// SeriesInfo 描述一个逻辑通道，例如 "Heart Rate (BPM)"
type SeriesInfo struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Unit  string   `json:"unit,omitempty"`
	Color string   `json:"color,omitempty"`
	Axis  AxisSide `json:"axis,omitempty"`
}

// Threshold holds the optional low and high limits of a series
// Threshold 单个序列的上下限，任一项可以缺省
type Threshold struct {
	High *float64 `json:"high,omitempty"`
	Low  *float64 `json:"low,omitempty"`
}

// Breach reports whether value is out of range and which limit it crossed
// Breach 判断数值是否越界，返回 "over"/"under" 以及被突破的限值
func (t Threshold) Breach(value float64) (string, float64, bool) {
	if t.High != nil && value > *t.High {
		return "over", *t.High, true
	}
	if t.Low != nil && value < *t.Low {
		return "under", *t.Low, true
	}
	return "", 0, false
}

// PanelSettings configures one parameter panel
// PanelSettings 单个参数面板的配置
type PanelSettings struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Kind   PanelKind    `json:"kind"`
	Series []SeriesInfo `json:"series"`
}

// Primary returns the first series of the panel
// Primary 返回面板的主序列（第一个序列）
func (p PanelSettings) Primary() SeriesInfo {
	if len(p.Series) == 0 {
		return SeriesInfo{}
	}
	return p.Series[0]
}

// Settings of the dashboard
// Settings 设置
type Settings struct {
	Panels     []PanelSettings      `json:"panels"`
	Thresholds map[string]Threshold `json:"thresholds,omitempty"`
	Presets    []string             `json:"presets,omitempty"` // 例如 "1D=1d"
}

// Point holds the readings of several series at one instant
// Point 一个时间点上的多序列读数。Values 中的 nil 表示缺测。
type Point struct {
	Time   time.Time           `json:"time"`
	Values map[string]*float64 `json:"values"`
}

// Value returns the value of a series, ok is false when it is missing
// Value 返回序列的值，缺测时 ok=false
func (p Point) Value(seriesID string) (float64, bool) {
	v := p.Values[seriesID]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// ValueOrZero treats a missing value as zero
// ValueOrZero 缺测按 0 处理，只用于降采样的面积计算，不可用于展示
func (p Point) ValueOrZero(seriesID string) float64 {
	v, _ := p.Value(seriesID)
	return v
}

// Float returns a pointer to v
// Float 返回 v 的指针，方便构造 Point.Values
func Float(v float64) *float64 {
	return &v
}

// Viewport is the visible window as percentages of the loaded span
// Viewport 当前可见窗口，[Start, End] ⊂ [0, 100]，是已加载数据跨度的百分比
type Viewport struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// FullViewport shows the whole loaded span
// FullViewport 完整视图
var FullViewport = Viewport{Start: 0, End: 100}

// Span returns the width of the window in percent
// Span 返回窗口宽度（百分比）
func (v Viewport) Span() float64 {
	return v.End - v.Start
}

// Valid reports whether 0 <= start <= end <= 100 without NaN or Inf
// Valid 判断窗口是否满足 0 ≤ start ≤ end ≤ 100 且没有 NaN/Inf
func (v Viewport) Valid() bool {
	for _, f := range []float64{v.Start, v.End} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return v.Start >= 0 && v.Start <= v.End && v.End <= 100
}

func (v Viewport) String() string {
	return fmt.Sprintf("[%.2f%%, %.2f%%]", v.Start, v.End)
}

// LoadWindow is the absolute time range requested from the backend
// LoadWindow 绝对时间范围，决定向后端请求哪些数据
type LoadWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether both ends are set and Start is not after End
// Valid 起止时间都有效且 Start 不晚于 End
func (w LoadWindow) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !w.End.Before(w.Start)
}

// Duration returns the length of the window
// Duration 返回窗口长度
func (w LoadWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t lies in [Start, End]
// Contains 判断 t 是否落在闭区间 [Start, End] 内
func (w LoadWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w LoadWindow) String() string {
	return fmt.Sprintf("%s ~ %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// RangePreset is a named shortcut for a time range
// RangePreset 命名的时间范围快捷方式，例如 "7D"
type RangePreset struct {
	ID       string        `json:"id"`
	Duration time.Duration `json:"duration"`
}

// Days returns the length of the preset in days
// Days 返回预设覆盖的天数
func (p RangePreset) Days() float64 {
	return p.Duration.Hours() / 24
}

// WindowEndingAt returns the window of the preset length ending at anchor
// WindowEndingAt 返回以 anchor 结尾、长度为预设时长的窗口
func (p RangePreset) WindowEndingAt(anchor time.Time) LoadWindow {
	return LoadWindow{Start: anchor.Add(-p.Duration), End: anchor}
}

// ParsePreset parses definitions such as "7D=7d" or "30d"
// ParsePreset 解析 "7D=7d" 或 "30d" 这样的预设定义
func ParsePreset(definition string) (RangePreset, error) {
	id, expr, found := strings.Cut(strings.TrimSpace(definition), "=")
	if !found {
		expr = id
		id = strings.ToUpper(id)
	}

	duration, err := str2duration.ParseDuration(strings.ToLower(strings.TrimSpace(expr)))
	if err != nil {
		return RangePreset{}, fmt.Errorf("%w: %s: %v", ErrInvalidPreset, definition, err)
	}
	if duration <= 0 {
		return RangePreset{}, fmt.Errorf("%w: %s", ErrInvalidPreset, definition)
	}

	return RangePreset{ID: strings.TrimSpace(id), Duration: duration}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses RFC3339, common dates and unix seconds or milliseconds into UTC
// ParseTimestamp 解析 RFC3339 / 常见日期格式 / unix 秒或毫秒时间戳，结果统一为 UTC
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		// 13 位及以上按毫秒处理
		if len(strings.TrimPrefix(value, "-")) >= 13 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}
