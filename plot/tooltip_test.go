package plot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalchart/vitalchart/model"
)

func TestComposeTooltip(t *testing.T) {
	start := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	series := []model.SeriesInfo{
		{ID: "hr", Label: "Heart Rate", Unit: "BPM"},
		{ID: "temp", Label: "Temperature", Unit: "°C"},
		{ID: "steps", Label: "Steps"},
	}
	thresholds := map[string]model.Threshold{
		"hr":   {High: model.Float(100), Low: model.Float(50)},
		"temp": {High: model.Float(37.5)},
	}
	points := []model.Point{
		{Time: start, Values: map[string]*float64{"hr": model.Float(72), "temp": model.Float(36.6), "steps": nil}},
		{Time: start.Add(time.Hour), Values: map[string]*float64{"hr": model.Float(80), "temp": model.Float(37.1), "steps": model.Float(10)}},
		{Time: start.Add(2 * time.Hour), Values: map[string]*float64{"hr": model.Float(72), "temp": model.Float(37.1), "steps": model.Float(10)}},
		{Time: start.Add(3 * time.Hour), Values: map[string]*float64{"hr": model.Float(105), "temp": model.Float(37.6)}},
		{Time: start.Add(4 * time.Hour), Values: map[string]*float64{"hr": model.Float(45)}},
	}

	t.Run("first point has no delta", func(t *testing.T) {
		tooltip, ok := ComposeTooltip(points, start, series, thresholds)
		require.True(t, ok)
		require.Len(t, tooltip.Lines, 3)
		assert.Equal(t, "Heart Rate: 72 (BPM)", tooltip.Lines[0].Text)
		assert.Nil(t, tooltip.Lines[0].Delta)
		assert.Equal(t, "Steps: —", tooltip.Lines[2].Text)
		assert.Nil(t, tooltip.Lines[2].Value)
	})

	t.Run("rising value", func(t *testing.T) {
		tooltip, ok := ComposeTooltip(points, start.Add(time.Hour), series, thresholds)
		require.True(t, ok)
		line := tooltip.Lines[0]
		assert.Equal(t, DirectionUp, line.Direction)
		assert.Equal(t, 8.0, *line.Delta)
		assert.Equal(t, "Heart Rate: 80 (BPM) ▲ +8", line.Text)
		assert.Equal(t, "Temperature: 37.1 (°C) ▲ +0.5", tooltip.Lines[1].Text)
		// 上一个点缺测时不显示变化
		assert.Equal(t, "Steps: 10", tooltip.Lines[2].Text)
	})

	t.Run("falling and flat values", func(t *testing.T) {
		tooltip, ok := ComposeTooltip(points, start.Add(2*time.Hour), series, thresholds)
		require.True(t, ok)
		assert.Equal(t, "Heart Rate: 72 (BPM) ▼ -8", tooltip.Lines[0].Text)
		assert.Equal(t, DirectionDown, tooltip.Lines[0].Direction)
		assert.Equal(t, "Temperature: 37.1 (°C) ▶ +0.0", tooltip.Lines[1].Text)
		assert.Equal(t, DirectionFlat, tooltip.Lines[1].Direction)
	})

	t.Run("threshold breaches", func(t *testing.T) {
		tooltip, ok := ComposeTooltip(points, start.Add(3*time.Hour), series, thresholds)
		require.True(t, ok)
		assert.Equal(t, "over", tooltip.Lines[0].Breach)
		assert.Equal(t, 100.0, *tooltip.Lines[0].Limit)
		assert.Equal(t, "Heart Rate: 105 (BPM) ▲ +33 ⚠ over 100 (BPM)", tooltip.Lines[0].Text)
		assert.Contains(t, tooltip.Lines[1].Text, "⚠ over 37.5 (°C)")

		tooltip, ok = ComposeTooltip(points, start.Add(4*time.Hour), series, thresholds)
		require.True(t, ok)
		assert.Equal(t, "under", tooltip.Lines[0].Breach)
		assert.Equal(t, "Temperature: —", tooltip.Lines[1].Text)
	})

	t.Run("timestamp not in the visible points", func(t *testing.T) {
		_, ok := ComposeTooltip(points, start.Add(90*time.Minute), series, thresholds)
		assert.False(t, ok)
		_, ok = ComposeTooltip(points, start.Add(10*time.Hour), series, thresholds)
		assert.False(t, ok)
		_, ok = ComposeTooltip(nil, start, series, thresholds)
		assert.False(t, ok)
	})

	t.Run("string", func(t *testing.T) {
		tooltip, _ := ComposeTooltip(points, start.Add(time.Hour), series[:1], thresholds)
		assert.Equal(t, "2024-01-01T09:00:00Z\nHeart Rate: 80 (BPM) ▲ +8", tooltip.String())
	})
}

func TestSignedDelta(t *testing.T) {
	tt := []struct {
		previous, current float64
		delta             float64
		formatted         string
	}{
		{72, 80, 8, "+8"},
		{80, 72, -8, "-8"},
		{0.1, 0.3, 0.2, "+0.2"},
		{98.25, 98.2, -0.05, "-0.05"},
		{5, 5, 0, "+0"},
	}

	for _, tc := range tt {
		delta, formatted := signedDelta(tc.previous, tc.current)
		assert.InDelta(t, tc.delta, delta, 1e-12)
		assert.Equal(t, tc.formatted, formatted)
	}
}
