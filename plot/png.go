package plot

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vitalchart/vitalchart/model"
)

// PixelRatio is the scale of exported images relative to the screen
// PixelRatio PNG 导出时相对于屏幕尺寸的像素倍数
const PixelRatio = 2

const baseDPI = 92

var fallbackPalette = []string{"#1e88e5", "#43a047", "#e53935", "#fb8c00", "#00897b", "#3949ab"}

// chartSize 在没有配置高度时保持约 3:1 的宽高比
func chartSize(width, height int) (int, int) {
	if width <= 0 {
		width = defaultWidth
	}
	if height > 0 {
		return width, height
	}
	h := int(float32(width) * 0.33)
	if h < 280 {
		h = 280
	}
	if h > 520 {
		h = 520
	}
	return width, h
}

func color(hex string, index int) drawing.Color {
	if hex == "" {
		hex = fallbackPalette[index%len(fallbackPalette)]
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// RenderPNG draws a frame as PNG at PixelRatio times its size
// RenderPNG 按 Frame 中的内容（与屏幕上显示的完全相同）以 PixelRatio 倍尺寸绘制 PNG
func RenderPNG(w io.Writer, frame Frame, thresholds map[string]model.Threshold, height int) error {
	if len(frame.Points) == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, frame.PanelID)
	}

	width, height := chartSize(frame.Width, height)
	start, end := frame.Start, frame.End
	if !end.After(start) {
		end = start.Add(time.Second)
	}

	var series []chart.Series
	var hasRight bool
	primary, secondary := newBounds(), newBounds()

	for i, info := range frame.Series {
		axis := chart.YAxisPrimary
		yRange := primary
		if info.Axis == model.AxisRight {
			axis, yRange, hasRight = chart.YAxisSecondary, secondary, true
		}

		style := chart.Style{
			StrokeColor: color(info.Color, i),
			StrokeWidth: 1.5 * PixelRatio,
		}
		// 缺测处断开，不跨越缺口连线
		for _, segment := range segments(frame.Points, info.ID) {
			segmentStyle := style
			if len(segment.times) == 1 {
				segmentStyle = chart.Style{StrokeWidth: 0, DotWidth: 2 * PixelRatio, DotColor: style.StrokeColor}
			}
			series = append(series, chart.TimeSeries{
				Name:    info.Label,
				XValues: segment.times,
				YValues: segment.values,
				YAxis:   axis,
				Style:   segmentStyle,
			})
			yRange.add(segment.values...)
		}

		threshold := thresholds[info.ID]
		for _, limit := range []*float64{threshold.High, threshold.Low} {
			if limit == nil {
				continue
			}
			yRange.add(*limit)
			series = append(series, chart.TimeSeries{
				Name:    fmt.Sprintf("%s limit", info.Label),
				XValues: []time.Time{start, end},
				YValues: []float64{*limit, *limit},
				YAxis:   axis,
				Style: chart.Style{
					StrokeColor:     style.StrokeColor.WithAlpha(160),
					StrokeWidth:     PixelRatio,
					StrokeDashArray: []float64{4 * PixelRatio, 4 * PixelRatio},
				},
			})
		}
	}

	for _, metric := range frame.Indicators {
		axis, yRange := chart.YAxisPrimary, primary
		if metric.Axis == model.AxisRight {
			axis, yRange, hasRight = chart.YAxisSecondary, secondary, true
		}
		for _, segment := range nullSegments(metric.Time, metric.Values) {
			if len(segment.times) < 2 {
				continue
			}
			series = append(series, chart.TimeSeries{
				Name:    metric.Name,
				XValues: segment.times,
				YValues: segment.values,
				YAxis:   axis,
				Style:   chart.Style{StrokeColor: color(metric.Color, 0), StrokeWidth: PixelRatio},
			})
			yRange.add(segment.values...)
		}
	}

	low, high := primary.padded()
	for _, marker := range frame.Markers {
		style := chart.Style{
			StrokeColor: color(marker.Style.Color, 0),
			StrokeWidth: marker.Style.StrokeWidth * PixelRatio,
		}
		for _, dash := range marker.Style.Dash {
			style.StrokeDashArray = append(style.StrokeDashArray, dash*PixelRatio)
		}
		series = append(series, chart.TimeSeries{
			Name:    marker.Annotation.Label,
			XValues: []time.Time{marker.Annotation.Time, marker.Annotation.Time},
			YValues: []float64{low, high},
			Style:   style,
		})
	}

	ticks := make([]chart.Tick, 0, len(frame.Ticks))
	for _, tick := range frame.Ticks {
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(tick.Time), Label: tick.Label})
	}

	graph := chart.Chart{
		Title:      frame.Title,
		Width:      width * PixelRatio,
		Height:     height * PixelRatio,
		DPI:        baseDPI * PixelRatio,
		Background: chart.Style{Padding: chart.Box{Top: 14 * PixelRatio, Left: 16 * PixelRatio, Right: 12 * PixelRatio, Bottom: 24 * PixelRatio}},
		XAxis: chart.XAxis{
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(start), Max: chart.TimeToFloat64(end)},
			Ticks:          ticks,
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:  axisName(frame.Series, model.AxisLeft),
			Range: &chart.ContinuousRange{Min: low, Max: high},
		},
		Series: series,
	}
	if hasRight {
		low, high := secondary.padded()
		graph.YAxisSecondary = chart.YAxis{
			Name:  axisName(frame.Series, model.AxisRight),
			Range: &chart.ContinuousRange{Min: low, Max: high},
		}
	}

	return graph.Render(chart.PNG, w)
}

func axisName(series []model.SeriesInfo, side model.AxisSide) string {
	for _, info := range series {
		if info.Axis == side || (side == model.AxisLeft && info.Axis == "") {
			if info.Unit != "" {
				return fmt.Sprintf("%s (%s)", info.Label, info.Unit)
			}
			return info.Label
		}
	}
	return ""
}

type segment struct {
	times  []time.Time
	values []float64
}

// segments 把一个序列按缺测切分为连续的线段
func segments(points []model.Point, seriesID string) []segment {
	times := make([]time.Time, len(points))
	values := make(model.NullSeries, len(points))
	for i, point := range points {
		times[i] = point.Time
		values[i] = point.Values[seriesID]
	}
	return nullSegments(times, values)
}

func nullSegments(times []time.Time, values model.NullSeries) []segment {
	runs := values.Runs()
	result := make([]segment, 0, len(runs))
	for _, run := range runs {
		result = append(result, segment{
			times:  times[run[0]:run[1]],
			values: values[run[0]:run[1]].Compact(),
		})
	}
	return result
}

type bounds struct {
	low, high float64
}

func newBounds() *bounds {
	return &bounds{low: math.Inf(1), high: math.Inf(-1)}
}

func (b *bounds) add(values ...float64) {
	for _, v := range values {
		b.low = math.Min(b.low, v)
		b.high = math.Max(b.high, v)
	}
}

// padded 返回上下各留 5% 空白的范围
func (b *bounds) padded() (float64, float64) {
	if math.IsInf(b.low, 0) || math.IsInf(b.high, 0) {
		return 0, 1
	}
	pad := (b.high - b.low) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(b.high)*0.05, 1)
	}
	return b.low - pad, b.high + pad
}
