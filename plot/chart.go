package plot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/StudioSol/set"
	"golang.org/x/sync/errgroup"

	"github.com/vitalchart/vitalchart/export"
	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/service"
	"github.com/vitalchart/vitalchart/tools/log"
)

var (
	ErrUnknownPanel   = errors.New("unknown panel")
	ErrUnknownPreset  = errors.New("unknown range preset")
	ErrNoData         = errors.New("no data in range")
	ErrSuperseded     = errors.New("load superseded by a newer request")
	ErrInvalidWindow  = errors.New("invalid load window")
	ErrGestureActive  = errors.New("another panel is being dragged")
	ErrNoGesture      = errors.New("no drag gesture on panel")
	ErrPointNotFound  = errors.New("no visible point at timestamp")
	ErrInvalidPanel   = errors.New("invalid panel settings")
	ErrReservedColor  = errors.New("series color is reserved for annotation markers")
	ErrNothingToRetry = errors.New("nothing to retry")
)

// DefaultPresets are the default range shortcuts
// DefaultPresets 默认的时间范围快捷方式
var DefaultPresets = []model.RangePreset{
	{ID: "1D", Duration: 24 * time.Hour},
	{ID: "7D", Duration: 7 * 24 * time.Hour},
	{ID: "30D", Duration: 30 * 24 * time.Hour},
	{ID: "90D", Duration: 90 * 24 * time.Hour},
	{ID: "1Y", Duration: 365 * 24 * time.Hour},
}

// Chart combines panels with independent viewports over one shared load window.
// Chart 组合多个参数面板：每个面板有独立的可见窗口，所有面板共享一个加载窗口。
// 所有方法都可以被并发调用。
type Chart struct {
	mu sync.Mutex

	loader     service.Loader
	policy     Policy
	presets    []model.RangePreset
	thresholds map[string]model.Threshold
	factory    IndicatorFactory
	clock      func() time.Time

	order   *set.LinkedHashSetString
	panels  map[string]*panel
	gesture Gesture
	feed    *Feed

	window      model.LoadWindow // 最近一次成功加载的窗口
	requested   model.LoadWindow // 最近一次请求的窗口，用于重试
	annotations []model.Annotation
	loadErr     error
	generation  uint64
	cancel      context.CancelFunc
}

// Option configures a chart
// Option 图表的配置项
type Option func(*Chart)

// WithPolicy replaces the downsampling and zoom policy
// WithPolicy 替换降采样与缩放策略
func WithPolicy(policy Policy) Option {
	return func(c *Chart) {
		c.policy = policy
	}
}

// WithPresets replaces the default range shortcuts
// WithPresets 替换默认的时间范围快捷方式
func WithPresets(presets ...model.RangePreset) Option {
	return func(c *Chart) {
		c.presets = presets
	}
}

// WithThresholds sets the limits of each series
// WithThresholds 设置序列的上下限
func WithThresholds(thresholds map[string]model.Threshold) Option {
	return func(c *Chart) {
		for id, threshold := range thresholds {
			c.thresholds[id] = threshold
		}
	}
}

// WithRangeCallback subscribes to changes of the effective visible range
// WithRangeCallback 订阅有效可见范围的变化
func WithRangeCallback(consumer RangeConsumer) Option {
	return func(c *Chart) {
		c.feed.Subscribe(consumer)
	}
}

// WithIndicators creates overlay indicators for each panel
// WithIndicators 为每个面板创建叠加指标
func WithIndicators(factory IndicatorFactory) Option {
	return func(c *Chart) {
		c.factory = factory
	}
}

// WithClock replaces the clock used by LoadPreset
// WithClock 替换当前时间，LoadPreset 以它为窗口终点
func WithClock(clock func() time.Time) Option {
	return func(c *Chart) {
		c.clock = clock
	}
}

// New creates a chart; options override presets and thresholds from settings
// New 创建图表。settings 中的预设与阈值会被 options 覆盖。
func New(loader service.Loader, settings model.Settings, options ...Option) (*Chart, error) {
	if loader == nil {
		return nil, errors.New("plot: nil loader")
	}

	chart := &Chart{
		loader:     loader,
		policy:     DefaultPolicy(),
		presets:    DefaultPresets,
		thresholds: make(map[string]model.Threshold),
		clock:      time.Now,
		order:      set.NewLinkedHashSetString(),
		panels:     make(map[string]*panel),
		feed:       NewRangeFeed(),
	}

	if len(settings.Presets) > 0 {
		presets := make([]model.RangePreset, 0, len(settings.Presets))
		for _, definition := range settings.Presets {
			preset, err := model.ParsePreset(definition)
			if err != nil {
				return nil, err
			}
			presets = append(presets, preset)
		}
		chart.presets = presets
	}
	for id, threshold := range settings.Thresholds {
		chart.thresholds[id] = threshold
	}

	for _, option := range options {
		option(chart)
	}

	if chart.policy.ZoomStep <= 0 || chart.policy.MinSpan <= 0 || chart.policy.MinSpan > 100 {
		return nil, fmt.Errorf("plot: invalid policy: zoom step %.2f, min span %.2f",
			chart.policy.ZoomStep, chart.policy.MinSpan)
	}

	for _, panelSettings := range settings.Panels {
		if err := validatePanel(panelSettings); err != nil {
			return nil, err
		}
		if _, ok := chart.panels[panelSettings.ID]; ok {
			return nil, fmt.Errorf("%w: duplicated panel %s", ErrInvalidPanel, panelSettings.ID)
		}

		var indicators []Indicator
		if chart.factory != nil {
			indicators = chart.factory(panelSettings)
		}
		chart.order.Add(panelSettings.ID)
		chart.panels[panelSettings.ID] = newPanel(panelSettings, indicators)
	}

	return chart, nil
}

func validatePanel(settings model.PanelSettings) error {
	if settings.ID == "" {
		return fmt.Errorf("%w: empty panel id", ErrInvalidPanel)
	}
	if len(settings.Series) == 0 {
		return fmt.Errorf("%w: panel %s has no series", ErrInvalidPanel, settings.ID)
	}
	for _, series := range settings.Series {
		for _, style := range []MarkerStyle{MarkerUnselected, MarkerSelected} {
			if strings.EqualFold(series.Color, style.Color) {
				return fmt.Errorf("%w: %s uses %s", ErrReservedColor, series.ID, series.Color)
			}
		}
	}
	return nil
}

// PanelIDs returns the panels in configured order
// PanelIDs 按配置顺序返回面板
func (c *Chart) PanelIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panelIDs()
}

func (c *Chart) panelIDs() []string {
	ids := make([]string, 0, len(c.panels))
	for id := range c.order.Iter() {
		ids = append(ids, id)
	}
	return ids
}

func (c *Chart) panel(panelID string) (*panel, error) {
	p, ok := c.panels[panelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPanel, panelID)
	}
	return p, nil
}

// Presets returns the available range shortcuts
// Presets 返回可用的时间范围快捷方式
func (c *Chart) Presets() []model.RangePreset {
	return c.presets
}

func (c *Chart) preset(presetID string) (model.RangePreset, error) {
	for _, preset := range c.presets {
		if strings.EqualFold(preset.ID, presetID) {
			return preset, nil
		}
	}
	return model.RangePreset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, presetID)
}

// BroadestPreset returns the preset covering the longest time
// BroadestPreset 返回覆盖时间最长的预设，空状态下的一键回退使用它
func (c *Chart) BroadestPreset() model.RangePreset {
	presets := make([]model.RangePreset, len(c.presets))
	copy(presets, c.presets)
	sort.SliceStable(presets, func(i, j int) bool {
		return presets[i].Duration > presets[j].Duration
	})
	if len(presets) == 0 {
		return model.RangePreset{}
	}
	return presets[0]
}

// Window returns the last successfully loaded window
// Window 返回最近一次成功加载的窗口
func (c *Chart) Window() model.LoadWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

// LoadError returns the error of the last load, cleared on success
// LoadError 返回最近一次加载的错误，成功加载后清空
func (c *Chart) LoadError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// Load fetches every panel for the window and replaces the data atomically.
// Load 按加载窗口并行获取所有面板的读数和事件，成功后整体替换数据。
// 新的 Load 会取消仍在进行中的 Load，被取代的请求返回 ErrSuperseded 且不修改任何状态。
// 加载失败时保留上一次的数据、窗口和选中状态，错误可以通过 LoadError 查看并通过 Retry 重试。
func (c *Chart) Load(ctx context.Context, window model.LoadWindow) error {
	if !window.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.generation++
	generation := c.generation
	c.cancel = cancel
	c.requested = window
	ids := c.panelIDs()
	c.mu.Unlock()

	logger := log.WithField("window", window.String())
	logger.Debugf("loading %d panels", len(ids))

	readings := make([][]model.Point, len(ids))
	var annotations []model.Annotation

	group, groupCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		group.Go(func() error {
			points, err := c.loader.LoadReadings(groupCtx, id, window)
			if err != nil {
				return fmt.Errorf("load readings of %s: %w", id, err)
			}
			readings[i] = points
			return nil
		})
	}
	group.Go(func() error {
		events, err := c.loader.LoadAnnotations(groupCtx, window)
		if err != nil {
			return fmt.Errorf("load annotations: %w", err)
		}
		annotations = events
		return nil
	})
	err := group.Wait()

	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		logger.Debug("load superseded")
		return ErrSuperseded
	}
	c.cancel = nil

	if err != nil {
		c.loadErr = err
		c.mu.Unlock()
		logger.Warnf("load failed, keeping previous data: %v", err)
		return err
	}

	for i, id := range ids {
		c.panels[id].setData(readings[i], annotations, c.policy)
	}
	c.annotations = annotations
	c.gesture.Cancel()
	c.loadErr = nil
	c.window = window
	c.mu.Unlock()

	logger.Infof("loaded %d panels and %d annotations", len(ids), len(annotations))
	c.feed.Publish(NewRangeChange("", window))
	return nil
}

// LoadPreset loads the preset window ending now
// LoadPreset 加载以当前时间结尾的预设窗口
func (c *Chart) LoadPreset(ctx context.Context, presetID string) error {
	preset, err := c.preset(presetID)
	if err != nil {
		return err
	}
	return c.Load(ctx, preset.WindowEndingAt(c.clock().UTC()))
}

// Retry requests the last requested window again
// Retry 重新请求最近一次请求的窗口
func (c *Chart) Retry(ctx context.Context) error {
	c.mu.Lock()
	window := c.requested
	c.mu.Unlock()

	if !window.Valid() {
		return ErrNothingToRetry
	}
	return c.Load(ctx, window)
}

// Viewport returns the visible window of a panel
// Viewport 返回面板的可见窗口
func (c *Chart) Viewport(panelID string) (model.Viewport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return model.Viewport{}, err
	}
	return p.viewport, nil
}

// Zoom handles a wheel event on one panel without reloading
// Zoom 处理滚轮事件，只影响该面板，不会触发加载
func (c *Chart) Zoom(panelID string, deltaY float64) (model.Viewport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return model.Viewport{}, err
	}
	p.setViewport(Zoom(p.viewport, WheelDirection(deltaY), c.policy.ZoomStep, c.policy.MinSpan))
	return p.viewport, nil
}

// PointerDown starts a drag; only one panel can be dragged at a time
// PointerDown 开始拖拽。同一时间只允许一个面板上的手势。
func (c *Chart) PointerDown(panelID string, x float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return err
	}
	if !c.gesture.Down(panelID, x, p.viewport) {
		return ErrGestureActive
	}
	return nil
}

// PointerMove returns the preview viewport of the drag
// PointerMove 拖动中，返回预览窗口；预览窗口在 Tick 或 PointerUp 时才会提交到面板
func (c *Chart) PointerMove(panelID string, x float64) (model.Viewport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return model.Viewport{}, err
	}
	viewport, ok := c.gesture.Move(panelID, x, float64(p.width))
	if !ok {
		return model.Viewport{}, ErrNoGesture
	}
	return viewport, nil
}

// PointerUp commits the final viewport of the drag
// PointerUp 松开或离开指针，提交最终窗口
func (c *Chart) PointerUp(panelID string) (model.Viewport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return model.Viewport{}, err
	}
	viewport, ok := c.gesture.Release(panelID)
	if !ok {
		return p.viewport, ErrNoGesture
	}
	p.setViewport(viewport)
	return viewport, nil
}

// Tick merges the pending drag preview once per frame
// Tick 每一帧调用一次，把拖拽中的预览窗口合并到面板
func (c *Chart) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if panelID, viewport, ok := c.gesture.Flush(); ok {
		c.panels[panelID].setViewport(viewport)
	}
}

// Reset restores the full view of a panel
// Reset 恢复面板的完整视图
func (c *Chart) Reset(panelID string) (model.Viewport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return model.Viewport{}, err
	}
	if dragging, ok := c.gesture.Dragging(); ok && dragging == panelID {
		c.gesture.Cancel()
	}
	p.viewport = model.FullViewport
	p.outside = false
	return p.viewport, nil
}

// Resize changes the pixel width of a panel
// Resize 改变面板的像素宽度，窗口和加载窗口保持不变
func (c *Chart) Resize(panelID string, widthPx int) error {
	if widthPx <= 0 {
		return fmt.Errorf("plot: invalid width %d", widthPx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return err
	}
	p.width = widthPx
	return nil
}

// ApplyPreset applies a preset to one panel, ending at its latest reading
// ApplyPreset 按面板自身的数据范围应用预设：窗口以该面板数据的最大时间结尾，不影响其他面板
func (c *Chart) ApplyPreset(panelID, presetID string) (model.Viewport, error) {
	preset, err := c.preset(presetID)
	if err != nil {
		return model.Viewport{}, err
	}

	c.mu.Lock()
	p, err := c.panel(panelID)
	if err != nil {
		c.mu.Unlock()
		return model.Viewport{}, err
	}
	first, last, ok := p.extent()
	if !ok {
		c.mu.Unlock()
		return p.viewport, fmt.Errorf("%w: %s", ErrNoData, panelID)
	}

	window := preset.WindowEndingAt(last)
	viewport := ViewportForWindow(first, last, window)
	p.viewport = viewport
	p.outside = false
	c.mu.Unlock()

	c.feed.Publish(NewRangeChange(panelID, clampWindow(window, first, last)))
	return viewport, nil
}

// ApplyPresetAll shows the same absolute range on every panel.
// ApplyPresetAll 从一个共享的窗口重新计算所有面板的可见窗口，使它们显示相同的绝对时间范围。
// 窗口以所有面板中最大的时间结尾。之后每个面板仍可以独立缩放和平移。
func (c *Chart) ApplyPresetAll(presetID string) (model.LoadWindow, error) {
	preset, err := c.preset(presetID)
	if err != nil {
		return model.LoadWindow{}, err
	}

	c.mu.Lock()
	var anchor time.Time
	for _, p := range c.panels {
		if _, last, ok := p.extent(); ok && last.After(anchor) {
			anchor = last
		}
	}
	if anchor.IsZero() {
		c.mu.Unlock()
		return model.LoadWindow{}, ErrNoData
	}

	window := preset.WindowEndingAt(anchor)
	for _, p := range c.panels {
		first, last, ok := p.extent()
		if !ok {
			continue
		}
		p.viewport = ViewportForWindow(first, last, window)
		// 没有交集时显示“范围内无数据”，而不是贴在边缘的一个点
		p.outside = window.End.Before(first) || window.Start.After(last)
	}
	c.gesture.Cancel()
	c.mu.Unlock()

	c.feed.Publish(NewRangeChange("", window))
	return window, nil
}

// clampWindow 把窗口限制在数据范围内
func clampWindow(window model.LoadWindow, first, last time.Time) model.LoadWindow {
	if window.Start.Before(first) {
		window.Start = first
	}
	if window.End.After(last) {
		window.End = last
	}
	return window
}

// Frame renders one panel; a render failure sticks to that panel until retried
// Frame 渲染一个面板。渲染失败只影响该面板：失败状态会一直保留到 RetryPanel 或重新加载。
func (c *Chart) Frame(panelID string) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return Frame{}, err
	}
	return c.renderPanel(p)
}

// Frames renders every panel, failed ones carry an inline error
// Frames 渲染所有面板，失败的面板以内联错误的形式返回
func (c *Chart) Frames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.panelIDs()
	frames := make([]Frame, 0, len(ids))
	for _, id := range ids {
		frame, _ := c.renderPanel(c.panels[id])
		frames = append(frames, frame)
	}
	return frames
}

// RetryPanel clears the render error of a panel and renders it again
// RetryPanel 清除面板的渲染错误并重新渲染
func (c *Chart) RetryPanel(panelID string) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return Frame{}, err
	}
	p.renderErr = nil
	return c.renderPanel(p)
}

func (c *Chart) renderPanel(p *panel) (Frame, error) {
	if p.renderErr == nil {
		result := Guard(p.settings.ID, func() (Frame, error) {
			return p.render(c.policy, c.thresholds, c.BroadestPreset().ID)
		})
		if result.OK() {
			frame := result.Value
			if c.loadErr != nil {
				frame.LoadError = c.loadErr.Error()
			}
			return frame, nil
		}
		p.renderErr = result.Err
	}

	frame := Frame{
		PanelID:  p.settings.ID,
		Title:    p.settings.Title,
		Kind:     p.settings.Kind,
		Width:    p.width,
		Viewport: p.viewport,
		Series:   p.settings.Series,
		Error:    p.renderErr.Error(),
	}
	return frame, p.renderErr
}

// Tooltip composes the hover tooltip from the visible slice
// Tooltip 组合悬停提示，只在当前可见切片中查找
func (c *Chart) Tooltip(panelID string, t time.Time) (Tooltip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return Tooltip{}, err
	}

	visible, _, _ := p.visible(c.policy)
	tooltip, ok := ComposeTooltip(visible, t, p.settings.Series, c.thresholds)
	if !ok {
		return Tooltip{}, fmt.Errorf("%w: %s", ErrPointNotFound, t.Format(time.RFC3339))
	}
	return tooltip, nil
}

// ToggleAnnotation flips the exclusive selection of an event
// ToggleAnnotation 切换面板上事件的选中状态（互斥）
func (c *Chart) ToggleAnnotation(panelID, annotationID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return false, err
	}
	return p.overlay.Toggle(annotationID)
}

// Annotations returns the events of a panel
// Annotations 返回面板上的全部事件及其选中状态
func (c *Chart) Annotations(panelID string) ([]model.Annotation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.panel(panelID)
	if err != nil {
		return nil, err
	}
	return p.overlay.Events(), nil
}

// ExportCSV exports the full-resolution data of a panel
// ExportCSV 以完整分辨率导出面板数据，不受缩放与降采样影响
func (c *Chart) ExportCSV(panelID string, w io.Writer) error {
	c.mu.Lock()
	p, err := c.panel(panelID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	series, points := p.settings.Series, p.points
	c.mu.Unlock()

	// points 只会被整体替换，不会被原地修改，可以在锁外写出
	return export.WriteCSV(w, series, points)
}

// ExportPNG exports what the panel currently shows at PixelRatio
// ExportPNG 把面板当前显示的内容以 2 倍像素比导出为 PNG
func (c *Chart) ExportPNG(panelID string, w io.Writer) error {
	c.mu.Lock()
	p, err := c.panel(panelID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	frame, err := c.renderPanel(p)
	thresholds := c.thresholds
	height := c.policy.PanelHeight
	c.mu.Unlock()

	if err != nil {
		return err
	}
	if frame.Empty {
		return fmt.Errorf("%w: %s", ErrNoData, panelID)
	}
	return RenderPNG(w, frame, thresholds, height)
}
