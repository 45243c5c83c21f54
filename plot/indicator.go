package plot

import (
	"time"

	"github.com/vitalchart/vitalchart/downsample"
	"github.com/vitalchart/vitalchart/model"
)

// Indicator is a derived curve drawn over a panel, such as a moving average
// Indicator 叠加在面板上的派生曲线（例如移动平均），在完整分辨率的数据上计算
type Indicator interface {
	Name() string
	Warmup() int
	Load(frame *model.Frame)
	Metrics() []IndicatorMetric
}

// IndicatorMetric is one curve produced by an indicator
// IndicatorMetric 指标输出的一条曲线
type IndicatorMetric struct {
	Name   string           `json:"name"`
	Color  string           `json:"color"`
	Style  string           `json:"style"` // "line" 或 "dashed"
	Axis   model.AxisSide   `json:"axis,omitempty"`
	Values model.NullSeries `json:"values"`
	Time   []time.Time      `json:"time"`
}

// IndicatorFactory creates the indicators of a panel
// IndicatorFactory 为每个面板创建独立的指标实例
type IndicatorFactory func(panel model.PanelSettings) []Indicator

type metricSample struct {
	time  time.Time
	value *float64
}

// slice 截取 [start, end] 时间范围内的指标值，步进采样与可见点使用同一个 downsample.Stride
func (m IndicatorMetric) slice(start, end time.Time, limit int) IndicatorMetric {
	sliced := IndicatorMetric{Name: m.Name, Color: m.Color, Style: m.Style, Axis: m.Axis}

	from, to := timeBounds(m.Time, start, end)
	samples := make([]metricSample, 0, to-from)
	for i := from; i < to && i < len(m.Values); i++ {
		samples = append(samples, metricSample{time: m.Time[i], value: m.Values[i]})
	}

	for _, sample := range downsample.Stride(samples, limit) {
		sliced.Time = append(sliced.Time, sample.time)
		sliced.Values = append(sliced.Values, sample.value)
	}
	return sliced
}
