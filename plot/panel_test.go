package plot

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalchart/vitalchart/model"
)

var minuteBase = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// minuteReadings 每分钟一个读数；steps 在奇数分钟缺测
func minuteReadings(n int) []model.Point {
	points := make([]model.Point, n)
	for i := range points {
		values := map[string]*float64{"hr": model.Float(70 + 20*math.Sin(float64(i)/50))}
		if i%2 == 0 {
			values["steps"] = model.Float(float64(i % 100))
		} else {
			values["steps"] = nil
		}
		points[i] = model.Point{Time: minuteBase.Add(time.Duration(i) * time.Minute), Values: values}
	}
	return points
}

func TestPanelTwoStagePipeline(t *testing.T) {
	policy := DefaultPolicy()
	settings := testSettings().Panels[0]
	p := newPanel(settings, nil)

	const total = 50_000
	p.setData(minuteReadings(total), nil, policy)

	t.Run("full data set is reduced once", func(t *testing.T) {
		require.Len(t, p.points, total)
		require.Len(t, p.reduced, policy.FullTarget)
		assert.True(t, p.reduced[0].Time.Equal(minuteBase))
		assert.True(t, p.reduced[len(p.reduced)-1].Time.Equal(minuteBase.Add((total-1)*time.Minute)))
	})

	t.Run("missing secondary values stay missing", func(t *testing.T) {
		for _, point := range p.reduced {
			index := int(point.Time.Sub(minuteBase) / time.Minute)
			_, ok := point.Value("steps")
			assert.Equal(t, index%2 == 0, ok, "minute %d", index)
			if index%2 == 1 {
				value, present := point.Values["steps"]
				assert.True(t, present)
				assert.Nil(t, value)
			}
		}
	})

	t.Run("full view is capped", func(t *testing.T) {
		frame, err := p.render(policy, nil, "1Y")
		require.NoError(t, err)
		assert.False(t, frame.Empty)
		assert.Equal(t, total, frame.Total)
		assert.LessOrEqual(t, len(frame.Points), policy.VisibleCap)
		// 8000 个点以步长 27 采样
		assert.Len(t, frame.Points, 297)
		assert.True(t, frame.Points[0].Time.Equal(minuteBase))
	})

	t.Run("zoomed view is capped", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			p.setViewport(Zoom(p.viewport, -1, policy.ZoomStep, policy.MinSpan))

			frame, err := p.render(policy, nil, "1Y")
			require.NoError(t, err)
			require.False(t, frame.Empty)
			assert.NotEmpty(t, frame.Points)
			assert.LessOrEqual(t, len(frame.Points), policy.VisibleCap)
			for _, point := range frame.Points {
				assert.False(t, point.Time.Before(frame.Start))
				assert.False(t, point.Time.After(frame.End))
			}
		}
		assert.InDelta(t, policy.MinSpan, p.viewport.Span(), 1e-9)
	})

	t.Run("small data sets are not reduced", func(t *testing.T) {
		small := newPanel(settings, nil)
		small.setData(minuteReadings(policy.FullThreshold), nil, policy)
		assert.Len(t, small.reduced, policy.FullThreshold)
	})
}

func TestReduceVisibleSlice(t *testing.T) {
	hour := func(h int) time.Time {
		return minuteBase.Add(time.Duration(h) * time.Hour)
	}
	points := make([]model.Point, 0, 11)
	for h := 0; h <= 100; h += 10 {
		points = append(points, model.Point{Time: hour(h), Values: map[string]*float64{"hr": model.Float(float64(h))}})
	}
	first, last := hour(0), hour(100)

	tt := []struct {
		name     string
		viewport model.Viewport
		limit    int
		start    time.Time
		end      time.Time
		expected []int
	}{
		{"points on both edges are kept", model.Viewport{Start: 20, End: 50}, 300, hour(20), hour(50), []int{20, 30, 40, 50}},
		{"window between points", model.Viewport{Start: 25, End: 45}, 300, hour(25), hour(45), []int{30, 40}},
		{"no point in window", model.Viewport{Start: 21, End: 29}, 300, hour(21), hour(29), nil},
		{"zero span at the end", model.Viewport{Start: 100, End: 100}, 300, hour(100), hour(100), []int{100}},
		{"zero span at the start", model.Viewport{Start: 0, End: 0}, 300, hour(0), hour(0), []int{0}},
		{"stride above the limit", model.FullViewport, 5, hour(0), hour(100), []int{0, 30, 60, 90}},
		{"invalid viewport falls back to full view", model.Viewport{Start: 60, End: 40}, 300, hour(0), hour(100),
			[]int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			visible, start, end := reduceVisibleSlice(points, first, last, tc.viewport, tc.limit)
			assert.True(t, start.Equal(tc.start), "start %s", start)
			assert.True(t, end.Equal(tc.end), "end %s", end)

			hours := make([]int, 0, len(visible))
			for _, point := range visible {
				hours = append(hours, int(point.Time.Sub(minuteBase)/time.Hour))
			}
			if tc.expected == nil {
				assert.Empty(t, hours)
				return
			}
			assert.Equal(t, tc.expected, hours)
		})
	}

	t.Run("empty input", func(t *testing.T) {
		visible, _, _ := reduceVisibleSlice(nil, time.Time{}, time.Time{}, model.FullViewport, 300)
		assert.Empty(t, visible)
	})
}

func TestIndicatorMetricSlice(t *testing.T) {
	metric := IndicatorMetric{Name: "MA(hr, 3)", Color: "#f00", Style: "dashed"}
	for i := 0; i < 10; i++ {
		metric.Time = append(metric.Time, minuteBase.Add(time.Duration(i)*time.Hour))
		if i < 2 {
			metric.Values = append(metric.Values, nil)
		} else {
			metric.Values = append(metric.Values, model.Float(float64(i)))
		}
	}

	sliced := metric.slice(minuteBase, minuteBase.Add(9*time.Hour), 4)
	assert.Equal(t, "MA(hr, 3)", sliced.Name)
	assert.Equal(t, "dashed", sliced.Style)
	// 10 个点以步长 3 采样
	require.Len(t, sliced.Time, 4)
	require.Len(t, sliced.Values, 4)
	assert.Nil(t, sliced.Values[0])
	assert.Equal(t, 3.0, *sliced.Values[1])
	assert.Equal(t, 9.0, *sliced.Values[3])
	assert.True(t, sliced.Time[3].Equal(minuteBase.Add(9*time.Hour)))

	window := metric.slice(minuteBase.Add(2*time.Hour), minuteBase.Add(4*time.Hour), 300)
	require.Len(t, window.Values, 3)
	assert.Equal(t, 2.0, *window.Values[0])
	assert.Equal(t, 4.0, *window.Values[2])

	empty := metric.slice(minuteBase.Add(20*time.Hour), minuteBase.Add(30*time.Hour), 300)
	assert.Empty(t, empty.Values)
}
