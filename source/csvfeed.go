package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/tools/log"
)

var ErrInvalidHeader = errors.New("invalid csv header")

var timeHeaders = []string{"time", "timestamp"}

// PanelFeed is the CSV file of one panel
// PanelFeed 一个面板的 CSV 文件
type PanelFeed struct {
	Panel  string             // 面板 ID
	File   string             // CSV 文件路径
	Series []model.SeriesInfo // 可选：把表头中的序列名映射回序列 ID
}

// CSVFeed loads readings and events from CSV files
// CSVFeed 从 CSV 文件读取读数和事件，实现 service.Loader
type CSVFeed struct {
	Feeds           map[string]PanelFeed
	ReadingsByPanel map[string][]model.Point
	Annotations     []model.Annotation
}

// parseHeaders 解析表头：第一列是时间，其余列是序列。
// 如果提供了 series，表头可以是序列 ID 也可以是序列名（导出的 CSV 使用序列名）。
func parseHeaders(headers []string, series []model.SeriesInfo) ([]string, error) {
	if len(headers) < 2 || !lo.Contains(timeHeaders, strings.ToLower(strings.TrimSpace(headers[0]))) {
		return nil, fmt.Errorf("%w: expected %q followed by series, got %v", ErrInvalidHeader, timeHeaders, headers)
	}

	columns := make([]string, 0, len(headers)-1)
	for _, header := range headers[1:] {
		header = strings.TrimSpace(header)
		if info, ok := lo.Find(series, func(info model.SeriesInfo) bool {
			return info.ID == header || info.Label == header
		}); ok {
			header = info.ID
		}
		if header == "" || lo.Contains(columns, header) {
			return nil, fmt.Errorf("%w: empty or duplicated column %q", ErrInvalidHeader, header)
		}
		columns = append(columns, header)
	}
	return columns, nil
}

// parseValue 解析一个测量值。空字段、"null"、"NaN" 都表示缺测。
func parseValue(field string) (*float64, error) {
	field = strings.TrimSpace(field)
	switch strings.ToLower(field) {
	case "", "null", "nan", "-":
		return nil, nil
	}

	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, nil
	}
	return model.Float(value), nil
}

// ReadCSV reads time-sorted readings, dropping rows without a valid time
// ReadCSV 读取读数，结果按时间排序。时间无法解析的行被丢弃，数值无法解析的字段按缺测处理。
func ReadCSV(r io.Reader, series ...model.SeriesInfo) ([]model.Point, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidHeader)
	}
	if err != nil {
		return nil, err
	}

	columns, err := parseHeaders(headers, series)
	if err != nil {
		return nil, err
	}

	queue := NewQueue()
	droppedRows, invalidValues := 0, 0
	for {
		line, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		timestamp, err := model.ParseTimestamp(line[0])
		if err != nil {
			droppedRows++
			continue
		}

		point := model.Point{Time: timestamp, Values: make(map[string]*float64, len(columns))}
		for i, column := range columns {
			if i+1 >= len(line) {
				point.Values[column] = nil
				continue
			}
			value, err := parseValue(line[i+1])
			if err != nil {
				invalidValues++
			}
			point.Values[column] = value
		}
		queue.Push(point)
	}

	if droppedRows > 0 {
		log.Warnf("csv: dropped %d rows with invalid timestamps", droppedRows)
	}
	if invalidValues > 0 {
		log.Warnf("csv: %d invalid values read as missing", invalidValues)
	}

	return queue.Drain(), nil
}

// ReadAnnotationsCSV reads events with a time,label[,id] header
// ReadAnnotationsCSV 读取事件，表头为 time,label[,id][,其他列作为 metadata]
func ReadAnnotationsCSV(r io.Reader) ([]model.Annotation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file", ErrInvalidHeader)
		}
		return nil, err
	}

	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}
	timeIndex, ok := index["time"]
	if !ok {
		timeIndex, ok = index["timestamp"]
	}
	labelIndex, hasLabel := index["label"]
	if !ok || !hasLabel {
		return nil, fmt.Errorf("%w: annotations need time and label columns, got %v", ErrInvalidHeader, headers)
	}
	idIndex, hasID := index["id"]

	events := make([]model.Annotation, 0)
	for {
		line, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		timestamp, err := model.ParseTimestamp(line[timeIndex])
		if err != nil {
			log.Warnf("csv: dropped annotation with invalid timestamp %q", line[timeIndex])
			continue
		}

		event := model.Annotation{Time: timestamp, Label: field(line, labelIndex)}
		if hasID {
			event.ID = field(line, idIndex)
		}
		for i, header := range headers {
			if i == timeIndex || i == labelIndex || (hasID && i == idIndex) || field(line, i) == "" {
				continue
			}
			if event.Metadata == nil {
				event.Metadata = make(map[string]string)
			}
			event.Metadata[strings.TrimSpace(header)] = field(line, i)
		}
		events = append(events, event)
	}

	return events, nil
}

func field(line []string, index int) string {
	if index < len(line) {
		return strings.TrimSpace(line[index])
	}
	return ""
}

// NewCSVFeed reads the CSV file of each panel
// NewCSVFeed 读取每个面板的 CSV 文件
func NewCSVFeed(feeds ...PanelFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		Feeds:           make(map[string]PanelFeed),
		ReadingsByPanel: make(map[string][]model.Point),
	}

	for _, feed := range feeds {
		csvFeed.Feeds[feed.Panel] = feed

		points, err := readFile(feed.File, func(r io.Reader) ([]model.Point, error) {
			return ReadCSV(r, feed.Series...)
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", feed.File, err)
		}

		log.Infof("[SETUP] loaded %d readings for %s", len(points), feed.Panel)
		csvFeed.ReadingsByPanel[feed.Panel] = points
	}

	return csvFeed, nil
}

// WithAnnotations reads events from a CSV file
// WithAnnotations 从 CSV 文件读取事件
func (c *CSVFeed) WithAnnotations(file string) (*CSVFeed, error) {
	events, err := readFile(file, ReadAnnotationsCSV)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	c.Annotations = events
	return c, nil
}

func readFile[T any](file string, read func(io.Reader) ([]T, error)) ([]T, error) {
	csvFile, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()

	return read(csvFile)
}

// Limit keeps only the last duration of each panel
// Limit 只保留每个面板最后 duration 时长内的数据
func (c *CSVFeed) Limit(duration time.Duration) *CSVFeed {
	for panel, points := range c.ReadingsByPanel {
		if len(points) == 0 {
			continue
		}
		start := points[len(points)-1].Time.Add(-duration)
		c.ReadingsByPanel[panel] = lo.Filter(points, func(point model.Point, _ int) bool {
			return !point.Time.Before(start)
		})
	}
	return c
}

// Window returns the range covering all readings and events
// Window 返回覆盖所有读数和事件的时间窗口
func (c CSVFeed) Window() model.LoadWindow {
	var window model.LoadWindow
	extend := func(t time.Time) {
		if window.Start.IsZero() || t.Before(window.Start) {
			window.Start = t
		}
		if window.End.IsZero() || t.After(window.End) {
			window.End = t
		}
	}

	for _, points := range c.ReadingsByPanel {
		if len(points) > 0 {
			extend(points[0].Time)
			extend(points[len(points)-1].Time)
		}
	}
	for _, event := range c.Annotations {
		extend(event.Time)
	}
	return window
}

// LoadReadings returns the readings of a panel in [start, end]
// LoadReadings 返回面板在 [start, end] 内的读数
func (c CSVFeed) LoadReadings(ctx context.Context, panelID string, window model.LoadWindow) ([]model.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return lo.Filter(c.ReadingsByPanel[panelID], func(point model.Point, _ int) bool {
		return window.Contains(point.Time)
	}), nil
}

// LoadAnnotations returns the events in [start, end]
// LoadAnnotations 返回 [start, end] 内的事件
func (c CSVFeed) LoadAnnotations(ctx context.Context, window model.LoadWindow) ([]model.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return lo.Filter(c.Annotations, func(event model.Annotation, _ int) bool {
		return window.Contains(event.Time)
	}), nil
}
