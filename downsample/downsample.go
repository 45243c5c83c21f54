// Package downsample reduces ordered time/value sequences to smaller, visually
// equivalent subsequences.
//
// Two independent stages are provided: LTTB for the one-time reduction of a full
// data set (ForChart applies it only above a size threshold) and Stride for the
// cheap per-interaction reduction of an already visible slice.
package downsample

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultThreshold 超过该点数才对完整数据集执行 LTTB
	DefaultThreshold = 20000
	// DefaultTarget LTTB 的目标点数
	DefaultTarget = 8000
	// DefaultVisibleCap 每个面板可见切片的点数上限
	DefaultVisibleCap = 300
)

// LTTB downsamples points with the Largest-Triangle-Three-Buckets algorithm and
// returns a subsequence of the input of length target.
//
// points must be sorted ascending by getX. If len(points) <= target or target < 3
// the input is returned unchanged. The first and last points are always kept.
// getY must map missing values to 0; the returned points are the original ones,
// so their missing values stay missing.
func LTTB[P any](points []P, target int, getX, getY func(P) float64) []P {
	n := len(points)
	if n <= target || target < 3 {
		return points
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i], ys[i] = getX(p), getY(p)
	}

	// 首尾两点固定保留，其余 n-2 个点分成 target-2 个桶
	every := float64(n-2) / float64(target-2)

	sampled := make([]P, 0, target)
	sampled = append(sampled, points[0])

	a := 0
	for i := 0; i < target-2; i++ {
		// 下一个桶的平均点（最后一个桶的“下一个桶”就是末尾点）
		avgStart := int(math.Floor(float64(i+1)*every)) + 1
		avgEnd := int(math.Floor(float64(i+2)*every)) + 1
		if avgEnd > n {
			avgEnd = n
		}
		if avgStart >= avgEnd {
			avgStart = avgEnd - 1
		}
		avgX := stat.Mean(xs[avgStart:avgEnd], nil)
		avgY := stat.Mean(ys[avgStart:avgEnd], nil)

		// 当前桶
		rangeStart := int(math.Floor(float64(i)*every)) + 1
		rangeEnd := int(math.Floor(float64(i+1)*every)) + 1

		maxArea := -1.0
		next := rangeStart
		for j := rangeStart; j < rangeEnd; j++ {
			area := math.Abs((xs[a]-avgX)*(ys[j]-ys[a])-(xs[a]-xs[j])*(avgY-ys[a])) * 0.5
			// 面积相同时保留第一个
			if area > maxArea {
				maxArea = area
				next = j
			}
		}

		sampled = append(sampled, points[next])
		a = next
	}

	sampled = append(sampled, points[n-1])
	return sampled
}

// ForChart applies LTTB only when the data set is larger than threshold.
// Smaller data sets pass through untouched.
func ForChart[P any](points []P, threshold, target int, getX, getY func(P) float64) []P {
	if len(points) <= threshold {
		return points
	}
	return LTTB(points, target, getX, getY)
}

// Stride picks every ceil(len(points)/limit)-th point. It runs in O(limit) and is
// meant for the hot pan/zoom path.
func Stride[P any](points []P, limit int) []P {
	if limit <= 0 || len(points) <= limit {
		return points
	}

	step := (len(points) + limit - 1) / limit
	sampled := make([]P, 0, limit)
	for i := 0; i < len(points); i += step {
		sampled = append(sampled, points[i])
	}
	return sampled
}
