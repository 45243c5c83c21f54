package indicator

import (
	"github.com/markcheno/go-talib"

	"github.com/vitalchart/vitalchart/model"
)

// MovingAverage computes a simple moving average of a nullable series, segment by segment
// MovingAverage 计算可空序列的简单移动平均。
// talib 不接受缺测值，因此按连续非空区间分别计算；缺口处以及每段的预热期内结果为 nil，
// 不会跨越缺口插值。
func MovingAverage(values model.NullSeries, period int) model.NullSeries {
	result := make(model.NullSeries, len(values))
	if period < 1 {
		return result
	}

	for _, run := range values.Runs() {
		start, end := run[0], run[1]
		if end-start < period {
			continue
		}

		sma := talib.Sma(values[start:end].Compact(), period)
		for i := period - 1; i < len(sma); i++ {
			result[start+i] = model.Float(sma[i])
		}
	}

	return result
}

// Band computes a mean ± deviation × stddev band over each non-null segment
// Band 计算布林带（均值 ± deviation 倍标准差），同样按连续非空区间分段计算
// 返回值:
//   - upper: 上轨
//   - mid: 中轨（简单移动平均）
//   - lower: 下轨
func Band(values model.NullSeries, period int, deviation float64) (upper, mid, lower model.NullSeries) {
	upper = make(model.NullSeries, len(values))
	mid = make(model.NullSeries, len(values))
	lower = make(model.NullSeries, len(values))
	if period < 2 {
		return upper, mid, lower
	}

	for _, run := range values.Runs() {
		start, end := run[0], run[1]
		if end-start < period {
			continue
		}

		up, md, lo := talib.BBands(values[start:end].Compact(), period, deviation, deviation, talib.SMA)
		for i := period - 1; i < len(md); i++ {
			upper[start+i] = model.Float(up[i])
			mid[start+i] = model.Float(md[i])
			lower[start+i] = model.Float(lo[i])
		}
	}

	return upper, mid, lower
}
