package plot

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/vitalchart/vitalchart/downsample"
	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/tools/log"
)

const defaultWidth = 800

// Reference is a threshold line
// Reference 阈值参考线
type Reference struct {
	SeriesID string         `json:"series_id"`
	Kind     string         `json:"kind"` // "high" 或 "low"
	Value    float64        `json:"value"`
	Color    string         `json:"color,omitempty"`
	Axis     model.AxisSide `json:"axis,omitempty"`
}

// Frame is one rendering of a panel
// Frame 一个面板的一次渲染结果，渲染器按它绘制画面
type Frame struct {
	PanelID    string             `json:"panel_id"`
	Title      string             `json:"title"`
	Kind       model.PanelKind    `json:"kind"`
	Width      int                `json:"width"`
	Viewport   model.Viewport     `json:"viewport"`
	Start      time.Time          `json:"start"`
	End        time.Time          `json:"end"`
	Series     []model.SeriesInfo `json:"series"`
	Points     []model.Point      `json:"points"`
	Ticks      []Tick             `json:"ticks"`
	Markers    []Marker           `json:"markers"`
	References []Reference        `json:"references,omitempty"`
	Indicators []IndicatorMetric  `json:"indicators,omitempty"`

	Total     int    `json:"total"`                // 完整分辨率的点数
	Empty     bool   `json:"empty"`                // 范围内没有数据
	Fallback  string `json:"fallback,omitempty"`   // 空状态下一键切换的最宽预设
	LoadError string `json:"load_error,omitempty"` // 最近一次加载失败，仍显示上一次的数据
	Error     string `json:"error,omitempty"`      // 渲染失败，可以重试
}

// panel 单个参数面板的状态：完整数据、降采样数据、可见窗口和事件标记
type panel struct {
	settings   model.PanelSettings
	points     []model.Point // 完整分辨率，已排序
	reduced    []model.Point // reduceFullDataset 的结果
	viewport   model.Viewport
	width      int
	overlay    *Overlay
	indicators []Indicator
	metrics    []IndicatorMetric
	computed   bool
	renderErr  *RenderError
	outside    bool // 全局预设的窗口与该面板的数据没有交集
}

func newPanel(settings model.PanelSettings, indicators []Indicator) *panel {
	return &panel{
		settings:   settings,
		viewport:   model.FullViewport,
		width:      defaultWidth,
		overlay:    NewOverlay(nil),
		indicators: indicators,
	}
}

// setData 整体替换数据，同时重置窗口、选中状态和渲染错误
func (p *panel) setData(points []model.Point, events []model.Annotation, policy Policy) {
	p.points = prepare(p.settings.ID, points)
	p.reduced = reduceFullDataset(p.points, p.settings.Primary().ID, policy)
	p.viewport = model.FullViewport
	p.outside = false
	p.overlay = NewOverlay(events)
	p.metrics = nil
	p.computed = false
	p.renderErr = nil
}

// setViewport 更新可见窗口，窗口真正变化后不再显示全局预设的空状态
func (p *panel) setViewport(v model.Viewport) {
	if v != p.viewport {
		p.outside = false
	}
	p.viewport = v
}

// extent 返回已加载数据的时间范围
func (p *panel) extent() (time.Time, time.Time, bool) {
	if len(p.points) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return p.points[0].Time, p.points[len(p.points)-1].Time, true
}

func (p *panel) seriesIDs() []string {
	return lo.Map(p.settings.Series, func(info model.SeriesInfo, _ int) string {
		return info.ID
	})
}

// visible 返回当前窗口内经过步进采样的点
func (p *panel) visible(policy Policy) ([]model.Point, time.Time, time.Time) {
	first, last, ok := p.extent()
	if !ok || p.outside {
		return nil, time.Time{}, time.Time{}
	}
	return reduceVisibleSlice(p.reduced, first, last, p.viewport, policy.VisibleCap)
}

func (p *panel) render(policy Policy, thresholds map[string]model.Threshold, fallback string) (Frame, error) {
	frame := Frame{
		PanelID:  p.settings.ID,
		Title:    p.settings.Title,
		Kind:     p.settings.Kind,
		Width:    p.width,
		Viewport: p.viewport,
		Series:   p.settings.Series,
		Total:    len(p.points),
	}

	visible, start, end := p.visible(policy)
	frame.Start, frame.End = start, end
	if len(visible) == 0 {
		frame.Empty = true
		frame.Fallback = fallback
		return frame, nil
	}

	frame.Points = visible
	frame.Ticks = Ticks(start, end, p.width, DefaultLabelSpacing)
	// 标记的范围取自实际渲染的点，而不是完整数据集
	frame.Markers = p.overlay.Visible(visible[0].Time, visible[len(visible)-1].Time)
	frame.References = references(p.settings.Series, thresholds)

	if !p.computed {
		p.loadIndicators()
	}
	for _, metric := range p.metrics {
		frame.Indicators = append(frame.Indicators, metric.slice(start, end, policy.VisibleCap))
	}

	return frame, nil
}

// loadIndicators 在完整分辨率数据上计算叠加指标，每次加载数据只计算一次
func (p *panel) loadIndicators() {
	var metrics []IndicatorMetric
	if len(p.indicators) > 0 {
		frame := model.NewFrame(p.settings.ID, p.points, p.seriesIDs()...)
		for _, indicator := range p.indicators {
			if frame.Len() < indicator.Warmup() {
				continue
			}
			indicator.Load(frame)
			metrics = append(metrics, indicator.Metrics()...)
		}
	}
	p.metrics, p.computed = metrics, true
}

func references(series []model.SeriesInfo, thresholds map[string]model.Threshold) []Reference {
	var result []Reference
	for _, info := range series {
		threshold, ok := thresholds[info.ID]
		if !ok {
			continue
		}
		if threshold.High != nil {
			result = append(result, Reference{SeriesID: info.ID, Kind: "high", Value: *threshold.High, Color: info.Color, Axis: info.Axis})
		}
		if threshold.Low != nil {
			result = append(result, Reference{SeriesID: info.ID, Kind: "low", Value: *threshold.Low, Color: info.Color, Axis: info.Axis})
		}
	}
	return result
}

// prepare 复制并按时间稳定排序；没有有效时间戳的点被丢弃，不会被画在纪元零点
func prepare(panelID string, points []model.Point) []model.Point {
	sorted := lo.Filter(points, func(point model.Point, _ int) bool {
		return !point.Time.IsZero()
	})
	if dropped := len(points) - len(sorted); dropped > 0 {
		log.WithField("panel", panelID).Warnf("dropped %d points without a valid timestamp", dropped)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return sorted
}

// reduceFullDataset 第一阶段：数据加载后对完整数据集执行一次 LTTB（只在超过阈值时）。
// 面积计算使用主序列，缺测按 0 计算，但输出的点保留原始的缺测值。
func reduceFullDataset(points []model.Point, primary string, policy Policy) []model.Point {
	return downsample.ForChart(points, policy.FullThreshold, policy.FullTarget,
		func(point model.Point) float64 {
			return float64(point.Time.UnixMilli())
		},
		func(point model.Point) float64 {
			return point.ValueOrZero(primary)
		},
	)
}

// reduceVisibleSlice 第二阶段：按窗口截取可见切片，超过上限时步进采样。
// 每次平移/缩放都会执行，二分查找加步进采样，开销与完整数据量无关。
func reduceVisibleSlice(points []model.Point, first, last time.Time, v model.Viewport,
	limit int) ([]model.Point, time.Time, time.Time) {

	start, end := VisibleRange(first, last, v)
	from := sort.Search(len(points), func(i int) bool {
		return !points[i].Time.Before(start)
	})
	to := sort.Search(len(points), func(i int) bool {
		return points[i].Time.After(end)
	})
	if from > to {
		from = to
	}

	return downsample.Stride(points[from:to], limit), start, end
}

// timeBounds 返回 times 中落在 [start, end] 内的下标区间 [from, to)
func timeBounds(times []time.Time, start, end time.Time) (int, int) {
	from := sort.Search(len(times), func(i int) bool {
		return !times[i].Before(start)
	})
	to := sort.Search(len(times), func(i int) bool {
		return times[i].After(end)
	})
	if from > to {
		from = to
	}
	return from, to
}
