package export

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/xhit/go-str2duration/v2"

	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/service"
	"github.com/vitalchart/vitalchart/tools/log"
)

// 把读数导出为 CSV：第一列为 ISO-8601 时间，其余列按序列顺序排列，缺测写成空字段。

const defaultBatch = "1d"

// Header returns the CSV header: timestamp followed by one column per series
// Header 返回 CSV 表头：timestamp, <序列名 1>, <序列名 2>, ...
func Header(series []model.SeriesInfo) []string {
	header := make([]string, 0, len(series)+1)
	header = append(header, "timestamp")
	for _, info := range series {
		label := info.Label
		if label == "" {
			label = info.ID
		}
		header = append(header, label)
	}
	return header
}

// Record converts one point into a CSV row; sub-second timestamps keep their precision
// Record 把一个点转换为一行 CSV，时间戳保留亚秒精度，同一秒内的多次测量不会重复
func Record(point model.Point, series []model.SeriesInfo) []string {
	record := make([]string, 0, len(series)+1)
	record = append(record, point.Time.UTC().Format(time.RFC3339Nano))
	for _, info := range series {
		value, ok := point.Value(info.ID)
		if !ok {
			record = append(record, "")
			continue
		}
		record = append(record, strconv.FormatFloat(value, 'f', -1, 64))
	}
	return record
}

// WriteCSV writes the header and every raw point without downsampling
// WriteCSV 写出表头以及每一个原始点（不做任何降采样）
func WriteCSV(w io.Writer, series []model.SeriesInfo, points []model.Point) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header(series)); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write(Record(point, series)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Exporter reads a window from a loader in batches and writes it as CSV
// Exporter 分批从 Loader 读取一个时间窗口的数据并写入 CSV 文件
type Exporter struct {
	loader service.ReadingLoader
	silent bool
}

// NewExporter creates an exporter
// NewExporter 创建导出器
func NewExporter(loader service.ReadingLoader) Exporter {
	return Exporter{loader: loader}
}

// Parameters of an export
// Parameters 导出参数
type Parameters struct {
	Start time.Time
	End   time.Time
	Batch time.Duration
}

// Option configures an export
// Option 设置导出参数
type Option func(*Parameters)

// WithInterval sets the exported time range
// WithInterval 设置导出的时间范围
func WithInterval(start, end time.Time) Option {
	return func(parameters *Parameters) {
		parameters.Start = start
		parameters.End = end
	}
}

// WithDays exports the last days
// WithDays 导出最近几天的数据
func WithDays(days int) Option {
	return func(parameters *Parameters) {
		parameters.Start = time.Now().AddDate(0, 0, -days)
		parameters.End = time.Now()
	}
}

// WithBatch sets the span requested per batch, e.g. "6h" or "1d"
// WithBatch 每次请求的时间跨度，例如 "6h"、"1d"
func WithBatch(batch string) Option {
	return func(parameters *Parameters) {
		duration, err := str2duration.ParseDuration(batch)
		if err != nil || duration <= 0 {
			log.Warnf("invalid export batch %q, using %s", batch, defaultBatch)
			return
		}
		parameters.Batch = duration
	}
}

// Silent disables the progress bar
// Silent 不显示进度条
func (e Exporter) Silent() Exporter {
	e.silent = true
	return e
}

// Export writes the panel data in the window to the output file
// Export 把面板在时间窗口内的数据写入 output 文件
func (e Exporter) Export(ctx context.Context, panel model.PanelSettings, output string, options ...Option) error {
	recordFile, err := os.Create(output)
	if err != nil {
		return err
	}
	defer recordFile.Close()

	return e.Write(ctx, panel, recordFile, options...)
}

// Write streams batches in time order, writing points on batch boundaries once
// Write 分批读取并写出，批次之间的点按时间顺序排列，批次边界上的点只写一次
func (e Exporter) Write(ctx context.Context, panel model.PanelSettings, w io.Writer, options ...Option) error {
	now := time.Now().UTC()
	batch, _ := str2duration.ParseDuration(defaultBatch)
	parameters := &Parameters{
		Start: now.AddDate(0, -1, 0),
		End:   now,
		Batch: batch,
	}
	for _, option := range options {
		option(parameters)
	}

	batches := int64(parameters.End.Sub(parameters.Start)/parameters.Batch) + 1
	log.Infof("Exporting %s (%s ~ %s) in %d batches", panel.ID,
		parameters.Start.Format(time.RFC3339), parameters.End.Format(time.RFC3339), batches)

	progressBar := progressbar.Default(batches)
	if e.silent {
		progressBar = progressbar.DefaultSilent(batches)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Header(panel.Series)); err != nil {
		return err
	}

	total := 0
	for begin := parameters.Start; !begin.After(parameters.End); begin = begin.Add(parameters.Batch) {
		end := begin.Add(parameters.Batch)
		last := !end.Before(parameters.End)
		if last {
			end = parameters.End
		}

		points, err := e.loader.LoadReadings(ctx, panel.ID, model.LoadWindow{Start: begin, End: end})
		if err != nil {
			return err
		}

		for _, point := range points {
			// 窗口是闭区间，下一批的起点已经在这一批写过
			if !last && !point.Time.Before(end) {
				continue
			}
			if err := writer.Write(Record(point, panel.Series)); err != nil {
				return err
			}
			total++
		}

		if err := progressBar.Add(1); err != nil {
			log.Warnf("update progressbar fail: %v", err)
		}
		if last {
			break
		}
	}

	if err := progressBar.Close(); err != nil {
		log.Warnf("close progressbar fail: %v", err)
	}

	writer.Flush()
	log.Infof("Exported %d points", total)
	return writer.Error()
}
