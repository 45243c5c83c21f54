package indicator

import (
	"fmt"
	"time"

	"github.com/vitalchart/vitalchart/indicator"
	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/plot"
)

// Trend returns the moving average of a series
// Trend 返回序列的移动平均线
func Trend(series model.SeriesInfo, period int, color string) plot.Indicator {
	return &trend{
		Series: series,
		Period: period,
		Color:  color,
	}
}

type trend struct {
	Series model.SeriesInfo // 计算的序列
	Period int              // 周期长度（点数）
	Color  string           // 图表中的颜色
	Values model.NullSeries // 移动平均值，预热期和缺口处为 nil
	Time   []time.Time      // 与指标值对应的时间
}

// Warmup 返回预热期
func (t trend) Warmup() int {
	return t.Period
}

// Name 返回名称
func (t trend) Name() string {
	return fmt.Sprintf("MA(%s, %d)", t.Series.ID, t.Period)
}

// Load 载入数据并计算移动平均
func (t *trend) Load(frame *model.Frame) {
	values := frame.Column(t.Series.ID)
	if len(values) < t.Period {
		return
	}

	t.Values = indicator.MovingAverage(values, t.Period)
	t.Time = frame.Time
}

// Metrics 返回图表数据
func (t trend) Metrics() []plot.IndicatorMetric {
	return []plot.IndicatorMetric{
		{
			Name:   t.Name(),
			Style:  "line",
			Color:  t.Color,
			Axis:   t.Series.Axis,
			Values: t.Values,
			Time:   t.Time,
		},
	}
}

// Defaults creates a trend line and a band for the primary series of each panel
// Defaults 为每个面板的主序列创建一条趋势线和一条变异带
func Defaults(period int) plot.IndicatorFactory {
	return func(panel model.PanelSettings) []plot.Indicator {
		primary := panel.Primary()
		return []plot.Indicator{
			Trend(primary, period, "#546e7a"),
			Band(primary, period, 2, "#b0bec5", "#78909c"),
		}
	}
}
