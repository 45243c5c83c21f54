package storage

import (
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/service"
)

var ErrNotFound = errors.New("not found")

// ReadingFilter selects readings
// ReadingFilter 过滤读数的函数类型
type ReadingFilter func(model.Point) bool

// Storage keeps readings per panel and events globally; it is also a service.Loader
// Storage 存储接口：读数按面板保存，事件全局保存。实现同时满足 service.Loader。
type Storage interface {
	service.Loader
	service.Recorder
	Readings(panelID string, filters ...ReadingFilter) ([]model.Point, error)
	Annotation(id string) (model.Annotation, error)
	Panels() ([]string, error)
}

// WithTimeBetween keeps readings within [start, end]
// WithTimeBetween 时间落在闭区间 [start, end] 内
func WithTimeBetween(start, end time.Time) ReadingFilter {
	return func(point model.Point) bool {
		return !point.Time.Before(start) && !point.Time.After(end)
	}
}

// WithSeries keeps readings with a value for any of the series
// WithSeries 至少有一个给定序列的测量值
func WithSeries(seriesIDs ...string) ReadingFilter {
	return func(point model.Point) bool {
		return lo.SomeBy(seriesIDs, func(id string) bool {
			_, ok := point.Value(id)
			return ok
		})
	}
}

// WithTimeBeforeOrEqual keeps readings not after t
// WithTimeBeforeOrEqual 时间不晚于 t
func WithTimeBeforeOrEqual(t time.Time) ReadingFilter {
	return func(point model.Point) bool {
		return !point.Time.After(t)
	}
}

func matches(point model.Point, filters []ReadingFilter) bool {
	for _, filter := range filters {
		if !filter(point) {
			return false
		}
	}
	return true
}
