package model

import (
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Series 类型，用于表示一列按时间排列的数值。该类型使用了泛型，可以存储任何有序类型的数据。
// Series is a time series of values
type Series[T constraints.Ordered] []T

// Bounds returns the minimum and maximum of the series
// Bounds 返回序列中的最小值与最大值，空序列返回 ok=false
func (s Series[T]) Bounds() (low, high T, ok bool) {
	if len(s) == 0 {
		return low, high, false
	}
	low, high = s[0], s[0]
	for _, v := range s[1:] {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high, true
}

// NullSeries is a nullable column where nil marks a gap
// NullSeries 可空的数值列，nil 表示该时刻没有测量值（缺口，不能插值）
type NullSeries []*float64

// Compact returns the non-null values in order
// Compact 返回所有非空值，顺序不变
func (s NullSeries) Compact() Series[float64] {
	values := make(Series[float64], 0, len(s))
	for _, v := range s {
		if v != nil {
			values = append(values, *v)
		}
	}
	return values
}

// Runs 返回连续非空值所在的区间 [start, end)
// Runs returns the half-open index ranges of consecutive non-null values.
func (s NullSeries) Runs() [][2]int {
	var runs [][2]int
	start := -1
	for i, v := range s {
		switch {
		case v != nil && start < 0:
			start = i
		case v == nil && start >= 0:
			runs = append(runs, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, len(s)})
	}
	return runs
}

// NumDecPlaces returns the number of decimal places of a float64
// NumDecPlaces 用于计算一个浮点数的小数位数。
// 这个函数会将浮点数转换为字符串，并找到小数点的位置，从而确定小数位数。
func NumDecPlaces(v float64) int64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i > -1 {
		return int64(len(s) - i - 1)
	}
	return 0
}
