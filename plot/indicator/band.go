package indicator

import (
	"fmt"
	"time"

	"github.com/vitalchart/vitalchart/indicator"
	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/plot"
)

// Band returns a variability band indicator around the moving average
// Band 返回一个变异带指标：序列的移动平均 ± deviation 倍标准差，
// 用来显示生命体征在一段时间内的正常波动范围
func Band(series model.SeriesInfo, period int, deviation float64, bandColor, midColor string) plot.Indicator {
	return &band{
		Series:    series,
		Period:    period,
		Deviation: deviation,
		BandColor: bandColor,
		MidColor:  midColor,
	}
}

// band 计算所需的参数和计算结果
type band struct {
	Series    model.SeriesInfo
	Period    int
	Deviation float64
	BandColor string
	MidColor  string
	Upper     model.NullSeries
	Middle    model.NullSeries
	Lower     model.NullSeries
	Time      []time.Time
}

// Warmup returns the number of points needed for the first value
// Warmup 返回计算第一个值所需的点数
func (b band) Warmup() int {
	return b.Period
}

// Name returns the indicator name
// Name 返回指标的名称，格式为 "Band(序列, 周期, 标准差)"
func (b band) Name() string {
	return fmt.Sprintf("Band(%s, %d, %.1f)", b.Series.ID, b.Period, b.Deviation)
}

// Load computes the bands on full-resolution data
// Load 在完整分辨率的数据上计算上轨、中轨和下轨，缺测处保持断开
func (b *band) Load(frame *model.Frame) {
	values := frame.Column(b.Series.ID)
	if len(values) < b.Period {
		return
	}

	b.Upper, b.Middle, b.Lower = indicator.Band(values, b.Period, b.Deviation)
	b.Time = frame.Time
}

// Metrics returns the upper, middle and lower curves
// Metrics 返回三条曲线，上下轨使用相同的颜色
func (b band) Metrics() []plot.IndicatorMetric {
	return []plot.IndicatorMetric{
		{
			Name:   b.Name() + " upper",
			Style:  "dashed",
			Color:  b.BandColor,
			Axis:   b.Series.Axis,
			Values: b.Upper,
			Time:   b.Time,
		},
		{
			Name:   b.Name() + " mid",
			Style:  "line",
			Color:  b.MidColor,
			Axis:   b.Series.Axis,
			Values: b.Middle,
			Time:   b.Time,
		},
		{
			Name:   b.Name() + " lower",
			Style:  "dashed",
			Color:  b.BandColor,
			Axis:   b.Series.Axis,
			Values: b.Lower,
			Time:   b.Time,
		},
	}
}
