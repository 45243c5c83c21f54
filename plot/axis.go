package plot

import (
	"time"
)

const day = 24 * time.Hour

// FormatAxis 根据可见窗口的时长选择时间标签的粒度：
//
//	≤ 24h  -> 15:04
//	≤ 7d   -> Mon, Jan 2 15:04
//	≤ 90d  -> Jan 2
//	> 90d  -> Jan 2006
func FormatAxis(t time.Time, visibleSpan time.Duration) string {
	switch {
	case visibleSpan <= 24*time.Hour:
		return t.Format("15:04")
	case visibleSpan <= 7*day:
		return t.Format("Mon, Jan 2 15:04")
	case visibleSpan <= 90*day:
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2006")
	}
}

// Tick is one label on the time axis
// Tick 时间轴上的一个刻度
type Tick struct {
	Time  time.Time `json:"time"`
	Label string    `json:"label"`
	X     float64   `json:"x"` // 距离绘图区左侧的像素
}

var tickSteps = []time.Duration{
	time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	time.Hour,
	2 * time.Hour,
	3 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	day,
	2 * day,
	7 * day,
	14 * day,
	30 * day,
	90 * day,
	180 * day,
	365 * day,
}

// DefaultLabelSpacing is the minimum distance between labels in pixels
// DefaultLabelSpacing 两个刻度标签之间的最小像素距离
const DefaultLabelSpacing = 90

// Ticks returns aligned ticks over [start, end] at least minSpacing pixels apart
// Ticks 在 [start, end] 上生成对齐到整步长的刻度，保证相邻标签至少相隔 minSpacing 像素，
// 标签内容由 FormatAxis 按可见跨度决定。
func Ticks(start, end time.Time, widthPx, minSpacing int) []Tick {
	span := end.Sub(start)
	if span <= 0 || widthPx <= 0 {
		return nil
	}
	if minSpacing <= 0 {
		minSpacing = DefaultLabelSpacing
	}

	maxTicks := widthPx / minSpacing
	if maxTicks < 1 {
		maxTicks = 1
	}

	step := tickSteps[len(tickSteps)-1]
	for _, candidate := range tickSteps {
		if float64(span)/float64(candidate) <= float64(maxTicks) {
			step = candidate
			break
		}
	}

	// 以 UTC 对齐，避免夏令时造成刻度抖动
	first := start.UTC().Truncate(step)
	if first.Before(start) {
		first = first.Add(step)
	}

	ticks := make([]Tick, 0, maxTicks+1)
	for t := first; !t.After(end); t = t.Add(step) {
		ticks = append(ticks, Tick{
			Time:  t,
			Label: FormatAxis(t.In(start.Location()), span),
			X:     float64(t.Sub(start)) / float64(span) * float64(widthPx),
		})
	}

	return ticks
}
