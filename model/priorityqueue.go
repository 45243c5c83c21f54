package model

import "sync"

// PriorityQueue is a min-heap
// PriorityQueue 小顶堆，Less 最小的元素最先弹出
type PriorityQueue struct {
	sync.Mutex
	length int
	data   []Item
}

type Item interface {
	Less(Item) bool
}

// NewPriorityQueue creates a priority queue from the given items
// NewPriorityQueue 用给定的切片数据创建一个新的优先队列，
// 并根据数据调整队列，以满足优先级队列的性质。
func NewPriorityQueue(data []Item) *PriorityQueue {
	q := &PriorityQueue{}
	q.data = data
	q.length = len(data)
	if q.length > 0 {
		i := q.length >> 1
		for ; i >= 0; i-- {
			q.down(i)
		}
	}
	return q
}

// Push adds an item to the queue
// Push 向优先队列中添加一个元素，并根据元素的优先级调整队列。
func (q *PriorityQueue) Push(item Item) {
	q.Lock()
	defer q.Unlock()

	q.data = append(q.data, item)
	q.length++
	q.up(q.length - 1)
}

// Pop removes and returns the smallest item
// Pop 从优先队列中弹出优先级最高的元素，并返回该元素。
func (q *PriorityQueue) Pop() Item {
	q.Lock()
	defer q.Unlock()

	return q.pop()
}

// Drain pops every item in priority order
// Drain 按优先级顺序弹出全部元素
func (q *PriorityQueue) Drain() []Item {
	q.Lock()
	defer q.Unlock()

	items := make([]Item, 0, q.length)
	for q.length > 0 {
		items = append(items, q.pop())
	}
	return items
}

// Len returns the number of items in the queue
// Len 返回优先队列中元素的数量。
func (q *PriorityQueue) Len() int {
	q.Lock()
	defer q.Unlock()

	return q.length
}

func (q *PriorityQueue) pop() Item {
	if q.length == 0 {
		return nil
	}
	top := q.data[0]
	q.length--
	if q.length > 0 {
		q.data[0] = q.data[q.length]
		q.down(0)
	}
	q.data = q.data[:len(q.data)-1]
	return top
}

// down 将位于 pos 位置的元素下沉到合适的位置
func (q *PriorityQueue) down(pos int) {
	data := q.data
	halfLength := q.length >> 1
	item := data[pos]
	for pos < halfLength {
		left := (pos << 1) + 1
		right := left + 1
		best := data[left]
		if right < q.length && data[right].Less(best) {
			left = right
			best = data[right]
		}
		if !best.Less(item) {
			break
		}
		data[pos] = best
		pos = left
	}
	data[pos] = item
}

// up 将新插入的元素上浮到合适的位置
func (q *PriorityQueue) up(pos int) {
	data := q.data
	item := data[pos]
	for pos > 0 {
		parent := (pos - 1) >> 1
		current := data[parent]
		if !item.Less(current) {
			break
		}
		data[pos] = current
		pos = parent
	}
	data[pos] = item
}
