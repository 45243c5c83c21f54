package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/testdata/mocks"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

var heart = model.PanelSettings{
	ID: "heart",
	Series: []model.SeriesInfo{
		{ID: "hr", Label: "Heart Rate", Unit: "BPM"},
		{ID: "steps"},
	},
}

func reading(d int, hr float64) model.Point {
	return model.Point{Time: day(d), Values: map[string]*float64{"hr": model.Float(hr)}}
}

func TestWriteCSV(t *testing.T) {
	var buffer bytes.Buffer
	points := []model.Point{
		{Time: day(1), Values: map[string]*float64{"hr": model.Float(72.5), "steps": model.Float(1200)}},
		{Time: day(2).In(time.FixedZone("CST", 8*3600)), Values: map[string]*float64{"hr": nil}},
	}

	require.NoError(t, WriteCSV(&buffer, heart.Series, points))
	assert.Equal(t, "timestamp,Heart Rate,steps\n"+
		"2024-01-01T00:00:00Z,72.5,1200\n"+
		"2024-01-02T00:00:00Z,,\n", buffer.String())
}

func TestRecordSubSecond(t *testing.T) {
	first := day(1).Add(250 * time.Millisecond)
	second := day(1).Add(750*time.Millisecond + 125*time.Microsecond)

	a := Record(model.Point{Time: first, Values: map[string]*float64{"hr": model.Float(70)}}, heart.Series)
	b := Record(model.Point{Time: second, Values: map[string]*float64{"hr": model.Float(71)}}, heart.Series)

	assert.Equal(t, []string{"2024-01-01T00:00:00.25Z", "70", ""}, a)
	assert.Equal(t, []string{"2024-01-01T00:00:00.750125Z", "71", ""}, b)
	assert.NotEqual(t, a[0], b[0])

	parsed, err := time.Parse(time.RFC3339Nano, b[0])
	require.NoError(t, err)
	assert.True(t, parsed.Equal(second))
}

func TestExporter(t *testing.T) {
	ctx := context.Background()

	t.Run("batches are written once", func(t *testing.T) {
		loader := mocks.NewLoader(t)
		loader.EXPECT().LoadReadings(mock.Anything, "heart", model.LoadWindow{Start: day(1), End: day(2)}).
			Return([]model.Point{reading(1, 70), reading(2, 71)}, nil).Once()
		loader.EXPECT().LoadReadings(mock.Anything, "heart", model.LoadWindow{Start: day(2), End: day(3)}).
			Return([]model.Point{reading(2, 71), reading(3, 72)}, nil).Once()

		var buffer bytes.Buffer
		err := NewExporter(loader).Silent().Write(ctx, heart, &buffer, WithInterval(day(1), day(3)), WithBatch("1d"))
		require.NoError(t, err)
		assert.Equal(t, "timestamp,Heart Rate,steps\n"+
			"2024-01-01T00:00:00Z,70,\n"+
			"2024-01-02T00:00:00Z,71,\n"+
			"2024-01-03T00:00:00Z,72,\n", buffer.String())
	})

	t.Run("invalid batch keeps the default", func(t *testing.T) {
		loader := mocks.NewLoader(t)
		loader.EXPECT().LoadReadings(mock.Anything, "heart", model.LoadWindow{Start: day(1), End: day(1).Add(12 * time.Hour)}).
			Return([]model.Point{reading(1, 70)}, nil).Once()

		var buffer bytes.Buffer
		err := NewExporter(loader).Silent().Write(ctx, heart, &buffer,
			WithInterval(day(1), day(1).Add(12*time.Hour)), WithBatch("soon"))
		require.NoError(t, err)
		assert.Contains(t, buffer.String(), "2024-01-01T00:00:00Z,70,")
	})

	t.Run("loader error", func(t *testing.T) {
		outage := errors.New("backend unavailable")
		loader := mocks.NewLoader(t)
		loader.EXPECT().LoadReadings(mock.Anything, "heart", mock.Anything).Return(nil, outage).Once()

		err := NewExporter(loader).Silent().Write(ctx, heart, &bytes.Buffer{}, WithInterval(day(1), day(3)))
		require.ErrorIs(t, err, outage)
	})
}
