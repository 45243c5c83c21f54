package plot

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vitalchart/vitalchart/model"
)

// Direction of the change since the previous visible point
// Direction 与上一个可见点相比的变化方向
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

const missingValue = "—"

var directionSymbols = map[Direction]string{
	DirectionUp:   "▲",
	DirectionDown: "▼",
	DirectionFlat: "▶",
}

// TooltipLine is one series in the crosshair tooltip
// TooltipLine 十字准线提示中的一行（一个序列）
type TooltipLine struct {
	SeriesID  string    `json:"series_id"`
	Label     string    `json:"label"`
	Unit      string    `json:"unit,omitempty"`
	Value     *float64  `json:"value"`
	Delta     *float64  `json:"delta,omitempty"`
	Direction Direction `json:"direction,omitempty"`
	Breach    string    `json:"breach,omitempty"` // "over" 或 "under"
	Limit     *float64  `json:"limit,omitempty"`
	Text      string    `json:"text"`
}

// Tooltip is the hover content at one instant
// Tooltip 悬停在某个时间点时的提示内容
type Tooltip struct {
	Time  time.Time     `json:"time"`
	Lines []TooltipLine `json:"lines"`
}

// String returns the tooltip as lines of text
// String 返回多行文本
func (t Tooltip) String() string {
	lines := make([]string, 0, len(t.Lines)+1)
	lines = append(lines, t.Time.Format(time.RFC3339))
	for _, line := range t.Lines {
		lines = append(lines, line.Text)
	}
	return strings.Join(lines, "\n")
}

// ComposeTooltip builds the tooltip for the visible point at exactly t
// ComposeTooltip 在可见点集中定位时间戳恰好为 t 的点，逐序列生成提示。
// points 必须按时间排序，且应当是已经降采样的可见切片，因此每次悬停的开销与完整数据量无关。
// 找不到对应的点时返回 false。
func ComposeTooltip(points []model.Point, t time.Time, series []model.SeriesInfo,
	thresholds map[string]model.Threshold) (Tooltip, bool) {

	index := sort.Search(len(points), func(i int) bool {
		return !points[i].Time.Before(t)
	})
	if index >= len(points) || !points[index].Time.Equal(t) {
		return Tooltip{}, false
	}

	current := points[index]
	var previous *model.Point
	if index > 0 {
		previous = &points[index-1]
	}

	tooltip := Tooltip{Time: current.Time, Lines: make([]TooltipLine, 0, len(series))}
	for _, info := range series {
		tooltip.Lines = append(tooltip.Lines, composeLine(info, current, previous, thresholds[info.ID]))
	}

	return tooltip, true
}

func composeLine(info model.SeriesInfo, current model.Point, previous *model.Point,
	threshold model.Threshold) TooltipLine {

	line := TooltipLine{SeriesID: info.ID, Label: info.Label, Unit: info.Unit}

	value, ok := current.Value(info.ID)
	if !ok {
		line.Text = fmt.Sprintf("%s: %s", info.Label, missingValue)
		return line
	}
	line.Value = model.Float(value)

	text := strings.Builder{}
	text.WriteString(info.Label)
	text.WriteString(": ")
	text.WriteString(withUnit(formatNumber(value), info.Unit))

	if previous != nil {
		if before, ok := previous.Value(info.ID); ok {
			delta, formatted := signedDelta(before, value)
			line.Delta = model.Float(delta)
			switch {
			case delta > 0:
				line.Direction = DirectionUp
			case delta < 0:
				line.Direction = DirectionDown
			default:
				line.Direction = DirectionFlat
			}
			text.WriteString(" ")
			text.WriteString(directionSymbols[line.Direction])
			text.WriteString(" ")
			text.WriteString(formatted)
		}
	}

	if breach, limit, ok := threshold.Breach(value); ok {
		line.Breach = breach
		line.Limit = model.Float(limit)
		text.WriteString(fmt.Sprintf(" ⚠ %s %s", breach, withUnit(formatNumber(limit), info.Unit)))
	}

	line.Text = text.String()
	return line
}

// signedDelta 计算 current - previous，并按两个操作数中较多的小数位数格式化，避免浮点噪声
func signedDelta(previous, current float64) (float64, string) {
	places := model.NumDecPlaces(previous)
	if p := model.NumDecPlaces(current); p > places {
		places = p
	}
	if places > 4 {
		places = 4
	}

	scale := math.Pow(10, float64(places))
	delta := math.Round((current-previous)*scale) / scale
	if delta == 0 {
		// 去掉 -0
		delta = 0
	}

	formatted := strconv.FormatFloat(delta, 'f', int(places), 64)
	if delta >= 0 {
		formatted = "+" + formatted
	}
	return delta, formatted
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func withUnit(value, unit string) string {
	if unit == "" {
		return value
	}
	return fmt.Sprintf("%s (%s)", value, unit)
}
