package plot

import (
	"sync"
	"time"

	"github.com/vitalchart/vitalchart/model"
)

// RangeChange notifies the host application of a new visible range
// RangeChange 有效可见时间范围发生变化时发给外部应用的通知，时间为 ISO-8601 字符串。
// Panel 为空表示所有面板（全局预设或重新加载）。
type RangeChange struct {
	Panel string `json:"panel,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewRangeChange creates a notification for an absolute window
// NewRangeChange 根据绝对时间窗口创建通知
func NewRangeChange(panel string, window model.LoadWindow) RangeChange {
	return RangeChange{
		Panel: panel,
		Start: window.Start.UTC().Format(time.RFC3339),
		End:   window.End.UTC().Format(time.RFC3339),
	}
}

// RangeConsumer receives range changes
// RangeConsumer 范围变化的消费者
type RangeConsumer func(change RangeChange)

// Feed delivers range changes to subscribers synchronously
// Feed 按注册顺序同步地把范围变化分发给订阅者
type Feed struct {
	mu            sync.Mutex
	subscriptions []RangeConsumer
}

// NewRangeFeed creates a feed without subscribers
// NewRangeFeed 创建一个空的订阅列表
func NewRangeFeed() *Feed {
	return &Feed{}
}

// Subscribe adds a subscriber
// Subscribe 添加一个订阅者
func (f *Feed) Subscribe(consumer RangeConsumer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions = append(f.subscriptions, consumer)
}

// Publish notifies every subscriber; the chart lock must not be held
// Publish 通知所有订阅者。调用方不能持有图表的锁，订阅者可能会回调图表。
func (f *Feed) Publish(change RangeChange) {
	f.mu.Lock()
	subscriptions := make([]RangeConsumer, len(f.subscriptions))
	copy(subscriptions, f.subscriptions)
	f.mu.Unlock()

	for _, consumer := range subscriptions {
		consumer(change)
	}
}
