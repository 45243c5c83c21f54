package source

import (
	"sync/atomic"

	"github.com/vitalchart/vitalchart/model"
)

// queued 带有入队序号的读数，时间相同时先入队的先出队
type queued struct {
	point    model.Point
	sequence uint64
}

func (q queued) Less(other model.Item) bool {
	o := other.(queued)
	if q.point.Time.Equal(o.point.Time) {
		return q.sequence < o.sequence
	}
	return q.point.Time.Before(o.point.Time)
}

// Queue orders readings that arrive out of order
// Queue 接收乱序到达的读数，按时间顺序输出
type Queue struct {
	items    *model.PriorityQueue
	sequence atomic.Uint64
}

// NewQueue creates an empty queue
// NewQueue 创建空队列
func NewQueue() *Queue {
	return &Queue{items: model.NewPriorityQueue(nil)}
}

// Push adds readings
// Push 加入读数
func (q *Queue) Push(points ...model.Point) {
	for _, point := range points {
		q.items.Push(queued{point: point, sequence: q.sequence.Add(1)})
	}
}

// Pop removes the earliest reading
// Pop 弹出最早的读数
func (q *Queue) Pop() (model.Point, bool) {
	item := q.items.Pop()
	if item == nil {
		return model.Point{}, false
	}
	return item.(queued).point, true
}

// Drain pops every reading in time order
// Drain 按时间顺序弹出全部读数
func (q *Queue) Drain() []model.Point {
	items := q.items.Drain()
	points := make([]model.Point, 0, len(items))
	for _, item := range items {
		points = append(points, item.(queued).point)
	}
	return points
}

// Len returns the number of queued readings
// Len 返回队列中的读数个数
func (q *Queue) Len() int {
	return q.items.Len()
}
