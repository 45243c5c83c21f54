//go:generate go run github.com/vektra/mockery/v2 --all --with-expecter --output=../testdata/mocks

package service

import (
	"context"

	"github.com/vitalchart/vitalchart/model"
)

// Loader combines ReadingLoader and AnnotationLoader
// Loader 合并了 ReadingLoader 和 AnnotationLoader 两个接口，由外部应用提供
type Loader interface {
	ReadingLoader
	AnnotationLoader
}

// ReadingLoader fetches the raw readings of a panel in ascending time order
// ReadingLoader 获取某个面板在时间窗口内的原始读数，结果按时间升序排列
type ReadingLoader interface {
	LoadReadings(ctx context.Context, panelID string, window model.LoadWindow) ([]model.Point, error)
}

// AnnotationLoader fetches the events of a window
// AnnotationLoader 获取时间窗口内的事件（例如治疗记录）
type AnnotationLoader interface {
	LoadAnnotations(ctx context.Context, window model.LoadWindow) ([]model.Annotation, error)
}

// Recorder writes readings and events
// Recorder 写入读数与事件，用于导入数据
type Recorder interface {
	SaveReadings(panelID string, points ...model.Point) error
	SaveAnnotations(events ...model.Annotation) error
}
