package plot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalchart/vitalchart/model"
)

func TestOverlay(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	events := []model.Annotation{
		{ID: "exercise", Time: start.Add(48 * time.Hour), Label: "Exercise"},
		{ID: "medication", Time: start.Add(24 * time.Hour), Label: "Medication", Selected: true},
		{Time: start.Add(72 * time.Hour), Label: "Lab test"},
	}
	overlay := NewOverlay(events)

	t.Run("sorted copy with ids", func(t *testing.T) {
		all := overlay.Events()
		require.Len(t, all, 3)
		assert.Equal(t, "medication", all[0].ID)
		assert.False(t, all[0].Selected, "selection is never taken from the input")
		assert.NotEmpty(t, all[2].ID)
		assert.Empty(t, events[2].ID, "input is not modified")
	})

	t.Run("visible uses the closed rendered range", func(t *testing.T) {
		markers := overlay.Visible(start.Add(24*time.Hour), start.Add(48*time.Hour))
		require.Len(t, markers, 2)
		assert.Equal(t, "medication", markers[0].Annotation.ID)
		assert.Equal(t, MarkerUnselected, markers[0].Style)

		assert.Empty(t, overlay.Visible(start, start.Add(23*time.Hour)))
	})

	t.Run("selection is exclusive", func(t *testing.T) {
		selected, err := overlay.Toggle("medication")
		require.NoError(t, err)
		assert.True(t, selected)

		selected, err = overlay.Toggle("exercise")
		require.NoError(t, err)
		assert.True(t, selected)

		current, ok := overlay.Selected()
		require.True(t, ok)
		assert.Equal(t, "exercise", current.ID)

		markers := overlay.Visible(start, start.Add(100*time.Hour))
		selectedCount := 0
		for _, marker := range markers {
			if marker.Annotation.Selected {
				selectedCount++
				assert.Equal(t, MarkerSelected, marker.Style)
			}
		}
		assert.Equal(t, 1, selectedCount)

		selected, err = overlay.Toggle("exercise")
		require.NoError(t, err)
		assert.False(t, selected)
		_, ok = overlay.Selected()
		assert.False(t, ok)
	})

	t.Run("unknown annotation", func(t *testing.T) {
		_, err := overlay.Toggle("missing")
		require.ErrorIs(t, err, ErrUnknownAnnotation)
	})

	t.Run("reset", func(t *testing.T) {
		_, err := overlay.Toggle("medication")
		require.NoError(t, err)
		overlay.Reset()
		_, ok := overlay.Selected()
		assert.False(t, ok)
	})
}
