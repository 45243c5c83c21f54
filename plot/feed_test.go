package plot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeFeed(t *testing.T) {
	feed := NewRangeFeed()
	feed.Publish(NewRangeChange("heart", january))

	var order []string
	var received []RangeChange
	feed.Subscribe(func(change RangeChange) {
		order = append(order, "first")
		received = append(received, change)
	})
	feed.Subscribe(func(change RangeChange) {
		order = append(order, "second")
	})

	feed.Publish(NewRangeChange("heart", january))
	require.Len(t, received, 1)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, RangeChange{Panel: "heart", Start: "2024-01-01T00:00:00Z", End: "2024-01-31T00:00:00Z"}, received[0])
}
