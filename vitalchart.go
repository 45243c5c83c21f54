package vitalchart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"

	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/plot"
	"github.com/vitalchart/vitalchart/report"
	"github.com/vitalchart/vitalchart/source"
	"github.com/vitalchart/vitalchart/storage"
	"github.com/vitalchart/vitalchart/tools/log"
)

const defaultDatabase = "vitalchart.db"

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04",
	})
}

// Dashboard combines storage, retrying loaders and the chart
// Dashboard 把存储、加载重试和图表组合在一起
type Dashboard struct {
	storage  storage.Storage // 持久化存储，同时作为图表的数据来源
	settings model.Settings  // 面板、阈值与预设配置
	chart    *plot.Chart

	chartOptions []plot.Option
	retryOptions []source.RetryOption
}

type Option func(*Dashboard)

// NewDashboard creates a dashboard, backed by vitalchart.db when no storage is given
// NewDashboard 创建仪表盘。没有指定存储时使用本地文件 vitalchart.db。
func NewDashboard(settings model.Settings, options ...Option) (*Dashboard, error) {
	dashboard := &Dashboard{settings: settings}

	for _, option := range options {
		option(dashboard)
	}

	var err error
	if dashboard.storage == nil {
		dashboard.storage, err = storage.FromFile(defaultDatabase)
		if err != nil {
			return nil, err
		}
	}

	loader := source.NewRetry(dashboard.storage, dashboard.retryOptions...)
	dashboard.chart, err = plot.New(loader, settings, dashboard.chartOptions...)
	if err != nil {
		return nil, err
	}

	return dashboard, nil
}

// WithStorage 设置存储，默认使用一个名为 vitalchart.db 的本地文件
// WithStorage sets the storage, by default it uses a local file called vitalchart.db
func WithStorage(storage storage.Storage) Option {
	return func(dashboard *Dashboard) {
		dashboard.storage = storage
	}
}

// WithLogLevel sets the log level
// WithLogLevel 设置日志级别。例如: log.DebugLevel、log.InfoLevel、log.WarnLevel
func WithLogLevel(level log.Level) Option {
	return func(_ *Dashboard) {
		log.SetLevel(level)
	}
}

// WithChartOptions forwards options to the chart
// WithChartOptions 传递图表配置，例如 plot.WithPolicy、plot.WithRangeCallback
func WithChartOptions(options ...plot.Option) Option {
	return func(dashboard *Dashboard) {
		dashboard.chartOptions = append(dashboard.chartOptions, options...)
	}
}

// WithRetry configures retries of failed loads
// WithRetry 设置加载失败时的重试策略
func WithRetry(options ...source.RetryOption) Option {
	return func(dashboard *Dashboard) {
		dashboard.retryOptions = append(dashboard.retryOptions, options...)
	}
}

// LoadSettings reads a JSON settings file
// LoadSettings 读取 JSON 格式的配置文件
func LoadSettings(path string) (model.Settings, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.Settings{}, err
	}

	var settings model.Settings
	if err := json.Unmarshal(content, &settings); err != nil {
		return model.Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

func (d *Dashboard) Chart() *plot.Chart {
	return d.chart
}

func (d *Dashboard) Storage() storage.Storage {
	return d.storage
}

func (d *Dashboard) Settings() model.Settings {
	return d.settings
}

// Close closes the storage
// Close 关闭存储
func (d *Dashboard) Close() error {
	if closer, ok := d.storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Import writes readings and annotations from CSV files into the storage
// Import 把 CSV 文件中的读数和事件写入存储
func (d *Dashboard) Import(feeds []source.PanelFeed, annotations string) error {
	feed, err := source.NewCSVFeed(feeds...)
	if err != nil {
		return err
	}

	for panelID, points := range feed.ReadingsByPanel {
		if err := d.storage.SaveReadings(panelID, points...); err != nil {
			return fmt.Errorf("save %s: %w", panelID, err)
		}
		log.WithField("panel", panelID).Infof("[IMPORT] %d readings", len(points))
	}

	if annotations == "" {
		return nil
	}

	if _, err := feed.WithAnnotations(annotations); err != nil {
		return err
	}
	if err := d.storage.SaveAnnotations(feed.Annotations...); err != nil {
		return fmt.Errorf("save annotations: %w", err)
	}
	log.Infof("[IMPORT] %d annotations", len(feed.Annotations))
	return nil
}

// Summary prints per-panel statistics for a window and the distribution of each primary series
// Summary 输出每个面板在时间窗口内的统计表，以及主序列的分布
func (d *Dashboard) Summary(ctx context.Context, w io.Writer, window model.LoadWindow) error {
	for _, panel := range d.settings.Panels {
		points, err := d.storage.LoadReadings(ctx, panel.ID, window)
		if err != nil {
			return fmt.Errorf("%s: %w", panel.ID, err)
		}

		summaries := report.Summarize(panel.Series, points)
		report.Table(w, panel.Title, summaries)

		if len(summaries) > 0 {
			fmt.Fprintf(w, "------ %s -------\n", summaries[0].Series.Label)
			report.Histogram(w, summaries[0].Values, 15)
			fmt.Fprintln(w)
		}
	}
	return nil
}

// Serve exposes the chart over HTTP on addr and shuts down gracefully when ctx is done
// Serve 在 addr 上提供图表的 HTTP 接口，ctx 结束时优雅关闭
func (d *Dashboard) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(os.Stdout, plot.NewRouter(d.chart)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Infof("[SETUP] listening on %s", addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
