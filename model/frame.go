package model

import "time"

// Frame holds panel data by column for indicator calculations
// Frame 按列组织的面板数据，供叠加指标计算使用
type Frame struct {
	Panel   string
	Time    []time.Time
	Columns map[string]NullSeries
}

// NewFrame converts time-sorted readings into columns
// NewFrame 将按时间排序的读数转换为列式数据
func NewFrame(panel string, points []Point, seriesIDs ...string) *Frame {
	frame := &Frame{
		Panel:   panel,
		Time:    make([]time.Time, len(points)),
		Columns: make(map[string]NullSeries, len(seriesIDs)),
	}

	for _, id := range seriesIDs {
		frame.Columns[id] = make(NullSeries, len(points))
	}

	for i, point := range points {
		frame.Time[i] = point.Time
		for _, id := range seriesIDs {
			frame.Columns[id][i] = point.Values[id]
		}
	}

	return frame
}

// Column returns the column of a series, or nil when it does not exist
// Column 返回某个序列的数据列，不存在时返回 nil
func (f Frame) Column(seriesID string) NullSeries {
	return f.Columns[seriesID]
}

// Len returns the number of rows
// Len 返回行数
func (f Frame) Len() int {
	return len(f.Time)
}
