package plot

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalchart/vitalchart/model"
)

func TestWheelDirection(t *testing.T) {
	assert.Equal(t, -1, WheelDirection(-120))
	assert.Equal(t, 1, WheelDirection(3))
	assert.Equal(t, 0, WheelDirection(0))
}

func TestZoom(t *testing.T) {
	tt := []struct {
		name      string
		viewport  model.Viewport
		direction int
		expected  model.Viewport
	}{
		{"zoom in from full view", model.FullViewport, -1, model.Viewport{Start: 5, End: 95}},
		{"zoom out caps at full view", model.Viewport{Start: 5, End: 95}, 1, model.FullViewport},
		{"zoom out shifts away from the left edge", model.Viewport{Start: 0, End: 20}, 1, model.Viewport{Start: 0, End: 30}},
		{"zoom out shifts away from the right edge", model.Viewport{Start: 85, End: 100}, 1, model.Viewport{Start: 75, End: 100}},
		{"zoom in stops at minimum span", model.Viewport{Start: 45, End: 55}, -1, model.Viewport{Start: 47.5, End: 52.5}},
		{"narrow window does not grow on zoom in", model.Viewport{Start: 49, End: 51}, -1, model.Viewport{Start: 49, End: 51}},
		{"narrow window zooms out normally", model.Viewport{Start: 49, End: 51}, 1, model.Viewport{Start: 44, End: 56}},
		{"no direction", model.Viewport{Start: 10, End: 20}, 0, model.Viewport{Start: 10, End: 20}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := Zoom(tc.viewport, tc.direction, 10, 5)
			assert.InDelta(t, tc.expected.Start, got.Start, 1e-9)
			assert.InDelta(t, tc.expected.End, got.End, 1e-9)
		})
	}

	t.Run("repeated zoom keeps the invariant", func(t *testing.T) {
		v := model.FullViewport
		for i := 0; i < 50; i++ {
			v = Zoom(v, -1, 10, 5)
			require.True(t, v.Valid())
			require.GreaterOrEqual(t, v.Span(), 5.0-1e-9)
		}
		assert.InDelta(t, 5, v.Span(), 1e-9)
		assert.InDelta(t, 50, (v.Start+v.End)/2, 1e-9)

		for i := 0; i < 50; i++ {
			v = Zoom(v, 1, 10, 5)
			require.True(t, v.Valid())
		}
		assert.Equal(t, model.FullViewport, v)
	})
}

func TestPan(t *testing.T) {
	origin := model.Viewport{Start: 20, End: 40}

	tt := []struct {
		name     string
		deltaPx  float64
		widthPx  float64
		expected model.Viewport
	}{
		{"drag right shows earlier data", 100, 1000, model.Viewport{Start: 10, End: 30}},
		{"drag left shows later data", -100, 1000, model.Viewport{Start: 30, End: 50}},
		{"clamped at start", 500, 1000, model.Viewport{Start: 0, End: 20}},
		{"clamped at end", -1000, 1000, model.Viewport{Start: 80, End: 100}},
		{"zero width is ignored", 100, 0, origin},
		{"NaN delta is ignored", math.NaN(), 1000, origin},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := Pan(origin, tc.deltaPx, tc.widthPx)
			assert.InDelta(t, tc.expected.Start, got.Start, 1e-9)
			assert.InDelta(t, tc.expected.End, got.End, 1e-9)
			assert.InDelta(t, origin.Span(), got.Span(), 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, model.FullViewport, Normalize(model.Viewport{Start: math.NaN(), End: 10}))
	assert.Equal(t, model.FullViewport, Normalize(model.Viewport{Start: 0, End: math.Inf(1)}))
	assert.Equal(t, model.FullViewport, Normalize(model.Viewport{Start: 60, End: 40}))
	assert.Equal(t, model.Viewport{Start: 0, End: 100}, Normalize(model.Viewport{Start: -5, End: 120}))
	assert.Equal(t, model.Viewport{Start: 10, End: 20}, Normalize(model.Viewport{Start: 10, End: 20}))
}

func TestViewportForWindow(t *testing.T) {
	first := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := first.Add(100 * time.Hour)

	v := ViewportForWindow(first, last, model.LoadWindow{Start: first.Add(25 * time.Hour), End: first.Add(75 * time.Hour)})
	assert.InDelta(t, 25, v.Start, 1e-9)
	assert.InDelta(t, 75, v.End, 1e-9)

	// 超出数据范围的窗口被截断
	v = ViewportForWindow(first, last, model.LoadWindow{Start: first.Add(-time.Hour), End: last.Add(time.Hour)})
	assert.Equal(t, model.FullViewport, v)

	// 数据只有一个时间点
	assert.Equal(t, model.FullViewport, ViewportForWindow(first, first, model.LoadWindow{Start: first, End: first}))

	start, end := VisibleRange(first, last, model.Viewport{Start: 25, End: 75})
	assert.WithinDuration(t, first.Add(25*time.Hour), start, time.Microsecond)
	assert.WithinDuration(t, first.Add(75*time.Hour), end, time.Microsecond)
}

func TestGesture(t *testing.T) {
	var g Gesture
	origin := model.Viewport{Start: 20, End: 40}

	require.True(t, g.Down("heart", 100, origin))
	assert.Equal(t, GestureDragging, g.State())
	assert.False(t, g.Down("pressure", 10, model.FullViewport), "only one panel may be dragged")

	_, ok := g.Move("pressure", 50, 1000)
	assert.False(t, ok)

	_, _, ok = g.Flush()
	assert.False(t, ok, "nothing to flush before the first move")

	preview, ok := g.Move("heart", 200, 1000)
	require.True(t, ok)
	assert.InDelta(t, 10, preview.Start, 1e-9)

	// 位移总是相对于按下时的位置和窗口计算
	preview, ok = g.Move("heart", 300, 1000)
	require.True(t, ok)
	assert.InDelta(t, 0, preview.Start, 1e-9)

	panelID, flushed, ok := g.Flush()
	require.True(t, ok)
	assert.Equal(t, "heart", panelID)
	assert.Equal(t, preview, flushed)
	_, _, ok = g.Flush()
	assert.False(t, ok)

	final, ok := g.Release("heart")
	require.True(t, ok)
	assert.Equal(t, preview, final)
	assert.Equal(t, GestureIdle, g.State())

	_, ok = g.Release("heart")
	assert.False(t, ok)

	require.True(t, g.Down("pressure", 0, origin))
	g.Cancel()
	_, dragging := g.Dragging()
	assert.False(t, dragging)
}
