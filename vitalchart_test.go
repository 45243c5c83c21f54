package vitalchart

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/plot"
	"github.com/vitalchart/vitalchart/source"
	"github.com/vitalchart/vitalchart/storage"
)

func testSettings() model.Settings {
	return model.Settings{
		Panels: []model.PanelSettings{{
			ID:    "heart",
			Title: "Heart",
			Kind:  model.PanelMonitor,
			Series: []model.SeriesInfo{
				{ID: "hr", Label: "Heart Rate", Unit: "BPM", Color: "#e53935"},
				{ID: "steps", Label: "Steps", Color: "#1e88e5", Axis: model.AxisRight},
			},
		}},
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{"panels":[{"id":"heart","title":"Heart","kind":"monitor","series":[{"id":"hr","label":"Heart Rate"}]}],
		"thresholds":{"hr":{"high":100}},"presets":["1D=1d","7D=7d"]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	require.Len(t, settings.Panels, 1)
	assert.Equal(t, "Heart Rate", settings.Panels[0].Primary().Label)
	assert.Equal(t, 100.0, *settings.Thresholds["hr"].High)
	assert.Equal(t, []string{"1D=1d", "7D=7d"}, settings.Presets)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestDashboard(t *testing.T) {
	store, err := storage.FromMemory()
	require.NoError(t, err)

	dir := t.TempDir()
	readings := filepath.Join(dir, "heart.csv")
	events := filepath.Join(dir, "events.csv")
	require.NoError(t, os.WriteFile(readings, []byte(
		"time,Heart Rate,steps\n2024-01-01T00:00:00Z,72,10\n2024-01-01T01:00:00Z,80,\n2024-01-01T02:00:00Z,,30\n"), 0o600))
	require.NoError(t, os.WriteFile(events, []byte("time,label\n2024-01-01T01:00:00Z,Medication\n"), 0o600))

	var changes []plot.RangeChange
	dashboard, err := NewDashboard(testSettings(),
		WithStorage(store),
		WithRetry(source.WithAttempts(1)),
		WithChartOptions(plot.WithRangeCallback(func(change plot.RangeChange) {
			changes = append(changes, change)
		})),
	)
	require.NoError(t, err)
	defer dashboard.Close()

	err = dashboard.Import([]source.PanelFeed{{Panel: "heart", File: readings, Series: testSettings().Panels[0].Series}}, events)
	require.NoError(t, err)

	window := model.LoadWindow{
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, dashboard.Chart().Load(context.Background(), window))
	require.Len(t, changes, 1)
	assert.Equal(t, "2024-01-01T00:00:00Z", changes[0].Start)

	frame, err := dashboard.Chart().Frame("heart")
	require.NoError(t, err)
	assert.False(t, frame.Empty)
	assert.Equal(t, 3, frame.Total)
	assert.Len(t, frame.Markers, 1)

	buffer := bytes.NewBuffer(nil)
	require.NoError(t, dashboard.Summary(context.Background(), buffer, window))
	assert.Contains(t, buffer.String(), "Heart Rate (BPM)")
	assert.Contains(t, buffer.String(), "76.00")
}

func TestDashboardInvalidSettings(t *testing.T) {
	store, err := storage.FromMemory()
	require.NoError(t, err)

	_, err = NewDashboard(model.Settings{Panels: []model.PanelSettings{{ID: "empty"}}}, WithStorage(store))
	require.ErrorIs(t, err, plot.ErrInvalidPanel)
}
