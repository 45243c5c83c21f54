package plot

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/vitalchart/vitalchart/model"
)

var ErrUnknownAnnotation = errors.New("unknown annotation")

// MarkerStyle is the look of an event line
// MarkerStyle 事件竖线的样式。两种样式使用的颜色都不允许出现在数据序列中。
type MarkerStyle struct {
	Class       string    `json:"class"`
	Color       string    `json:"color"`
	StrokeWidth float64   `json:"stroke_width"`
	Dash        []float64 `json:"dash,omitempty"`
}

var (
	MarkerUnselected = MarkerStyle{Class: "annotation-marker", Color: "#8d6e63", StrokeWidth: 1, Dash: []float64{4, 4}}
	MarkerSelected   = MarkerStyle{Class: "annotation-marker-selected", Color: "#d500f9", StrokeWidth: 2}
)

// Marker is a visible event marker
// Marker 一个可见的事件标记
type Marker struct {
	Annotation model.Annotation `json:"annotation"`
	Style      MarkerStyle      `json:"style"`
}

// Overlay holds the event markers of a panel and their exclusive selection
// Overlay 管理一个面板上的事件标记以及互斥的选中状态。
// 选中状态只存在于内存中，数据重新加载时清空。
type Overlay struct {
	events   []model.Annotation
	selected string
}

// NewOverlay copies and sorts the events, assigning a UUID to events without an ID
// NewOverlay 复制并按时间排序事件，缺少 ID 的事件会被分配一个 UUID
func NewOverlay(events []model.Annotation) *Overlay {
	sorted := make([]model.Annotation, len(events))
	copy(sorted, events)
	for i := range sorted {
		if sorted[i].ID == "" {
			sorted[i].ID = uuid.NewString()
		}
		sorted[i].Selected = false
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	return &Overlay{events: sorted}
}

// Events returns all events with their selection state
// Events 返回全部事件（包含当前选中状态）
func (o *Overlay) Events() []model.Annotation {
	return lo.Map(o.events, func(event model.Annotation, _ int) model.Annotation {
		event.Selected = event.ID == o.selected
		return event
	})
}

// Visible returns the markers of events within [minT, maxT]
// Visible 返回时间落在闭区间 [minT, maxT] 内的事件标记。
// minT/maxT 应取自实际渲染的点，而不是完整数据集。
func (o *Overlay) Visible(minT, maxT time.Time) []Marker {
	visible := lo.Filter(o.events, func(event model.Annotation, _ int) bool {
		return !event.Time.Before(minT) && !event.Time.After(maxT)
	})

	return lo.Map(visible, func(event model.Annotation, _ int) Marker {
		marker := Marker{Annotation: event, Style: MarkerUnselected}
		if event.ID == o.selected {
			marker.Annotation.Selected = true
			marker.Style = MarkerSelected
		}
		return marker
	})
}

// Toggle flips the selection of an event and deselects any other one
// Toggle 切换事件的选中状态。选中一个事件会取消之前选中的事件。返回切换后的状态。
func (o *Overlay) Toggle(id string) (bool, error) {
	if !lo.ContainsBy(o.events, func(event model.Annotation) bool { return event.ID == id }) {
		return false, ErrUnknownAnnotation
	}

	if o.selected == id {
		o.selected = ""
		return false, nil
	}
	o.selected = id
	return true, nil
}

// Selected returns the selected event
// Selected 返回当前选中的事件
func (o *Overlay) Selected() (model.Annotation, bool) {
	event, ok := lo.Find(o.events, func(event model.Annotation) bool {
		return o.selected != "" && event.ID == o.selected
	})
	if ok {
		event.Selected = true
	}
	return event, ok
}

// Reset clears the selection
// Reset 清空选中状态
func (o *Overlay) Reset() {
	o.selected = ""
}
