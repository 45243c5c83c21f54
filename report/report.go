package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"

	"github.com/vitalchart/vitalchart/model"
)

// Summary holds statistics of one series over a period
// Summary 单个序列在一段时间内的统计
type Summary struct {
	Series model.SeriesInfo
	Count  int // 有测量值的点数
	Nulls  int // 缺测点数
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Values model.Series[float64]
}

// Summarize computes statistics over the non-null values of each series
// Summarize 统计每个序列的非空值
func Summarize(series []model.SeriesInfo, points []model.Point) []Summary {
	summaries := make([]Summary, 0, len(series))
	for _, info := range series {
		values := make(model.Series[float64], 0, len(points))
		nulls := 0
		for _, point := range points {
			if v, ok := point.Value(info.ID); ok {
				values = append(values, v)
			} else {
				nulls++
			}
		}

		summary := Summary{Series: info, Count: len(values), Nulls: nulls, Values: values}
		if low, high, ok := values.Bounds(); ok {
			summary.Min, summary.Max = low, high
			summary.Mean, summary.StdDev = stat.MeanStdDev(values, nil)
			if len(values) < 2 || math.IsNaN(summary.StdDev) {
				summary.StdDev = 0
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func (s Summary) name() string {
	name := s.Series.Label
	if name == "" {
		name = s.Series.ID
	}
	if s.Series.Unit != "" {
		name = fmt.Sprintf("%s (%s)", name, s.Series.Unit)
	}
	return name
}

func (s Summary) row() []string {
	if s.Count == 0 {
		return []string{s.name(), "0", strconv.Itoa(s.Nulls), "-", "-", "-", "-"}
	}
	return []string{
		s.name(),
		strconv.Itoa(s.Count),
		strconv.Itoa(s.Nulls),
		fmt.Sprintf("%.2f", s.Min),
		fmt.Sprintf("%.2f", s.Max),
		fmt.Sprintf("%.2f", s.Mean),
		fmt.Sprintf("%.2f", s.StdDev),
	}
}

// String returns the summary for printing
// String 返回 summary 的字符串表示，用于打印输出
func (s Summary) String() string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	row := s.row()
	data := [][]string{
		{"Series", row[0]},
		{"Count", row[1]},
		{"Missing", row[2]},
		{"Min", row[3]},
		{"Max", row[4]},
		{"Mean", row[5]},
		{"Std.Dev", row[6]},
	}
	table.AppendBulk(data)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()
	return tableString.String()
}

// Table writes the statistics of a panel as a table
// Table 把一个面板的所有序列统计写成一张表
func Table(w io.Writer, title string, summaries []Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Series", "Count", "Missing", "Min", "Max", "Mean", "Std.Dev"})
	if title != "" {
		table.SetCaption(true, title)
	}
	for _, summary := range summaries {
		table.Append(summary.row())
	}
	table.Render()
}

// Histogram prints the distribution of values
// Histogram 打印数值分布
func Histogram(w io.Writer, values []float64, bins int) {
	if len(values) == 0 {
		fmt.Fprintln(w, "no values")
		return
	}
	if bins <= 0 {
		bins = 15
	}
	hist := histogram.Hist(bins, values)
	histogram.Fprint(w, hist, histogram.Linear(10))
}
