package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"

	"github.com/vitalchart/vitalchart/model"
)

const (
	readingPrefix    = "reading:"
	annotationPrefix = "annotation:"
	panelPrefix      = "panel:"
)

// Bunt 基于 buntdb 的存储。键按时间有序，时间窗口查询是一次范围扫描：
//
//	reading:<panel>:<unix nano>
//	annotation:<unix nano>:<id>
//	panel:<panel>
type Bunt struct {
	db *buntdb.DB
}

// FromMemory creates an in-memory storage
// FromMemory 创建内存存储
func FromMemory() (*Bunt, error) {
	return newBunt(":memory:")
}

// FromFile creates a storage backed by a local file
// FromFile 使用本地文件作为存储
func FromFile(file string) (*Bunt, error) {
	return newBunt(file)
}

func newBunt(sourceFile string) (*Bunt, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, err
	}

	return &Bunt{db: db}, nil
}

// Close closes the database
// Close 关闭数据库
func (b *Bunt) Close() error {
	return b.db.Close()
}

// sortableNano 把纳秒时间戳平移到无符号区间（翻转符号位），
// 定长十进制后字典序与时间顺序一致，1970 年以前的读数也不例外
func sortableNano(t time.Time) uint64 {
	return uint64(t.UnixNano()) ^ (1 << 63)
}

func readingKey(panelID string, t time.Time) string {
	return fmt.Sprintf("%s%s:%020d", readingPrefix, panelID, sortableNano(t))
}

func annotationKey(t time.Time, id string) string {
	return fmt.Sprintf("%s%020d:%s", annotationPrefix, sortableNano(t), id)
}

// SaveReadings stores readings, replacing readings at the same time
// SaveReadings 保存读数，同一面板同一时间的读数会被覆盖
func (b *Bunt) SaveReadings(panelID string, points ...model.Point) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set(panelPrefix+panelID, panelID, nil); err != nil {
			return err
		}

		for _, point := range points {
			if point.Time.IsZero() {
				continue
			}
			content, err := json.Marshal(point)
			if err != nil {
				return err
			}
			if _, _, err := tx.Set(readingKey(panelID, point.Time), string(content), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveAnnotations stores events, assigning a UUID to events without an ID
// SaveAnnotations 保存事件，没有 ID 的事件会分配一个 UUID。选中状态不会被保存。
func (b *Bunt) SaveAnnotations(events ...model.Annotation) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		for _, event := range events {
			if event.ID == "" {
				event.ID = uuid.NewString()
			}
			event.Selected = false

			content, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, _, err := tx.Set(annotationKey(event.Time, event.ID), string(content), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadReadings returns the readings of a panel in [start, end] in time order
// LoadReadings 按时间顺序返回面板在 [start, end] 内的读数
func (b *Bunt) LoadReadings(ctx context.Context, panelID string, window model.LoadWindow) ([]model.Point, error) {
	points := make([]model.Point, 0)
	var iterErr error
	err := b.db.View(func(tx *buntdb.Tx) error {
		lessThan := readingKey(panelID, window.End.Add(time.Nanosecond))
		return tx.AscendRange("", readingKey(panelID, window.Start), lessThan, func(key, value string) bool {
			if iterErr = ctx.Err(); iterErr != nil {
				return false
			}

			var point model.Point
			if iterErr = json.Unmarshal([]byte(value), &point); iterErr != nil {
				iterErr = fmt.Errorf("decode %s: %w", key, iterErr)
				return false
			}
			points = append(points, point)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}

	return points, nil
}

// LoadAnnotations returns the events in [start, end] in time order
// LoadAnnotations 按时间顺序返回 [start, end] 内的事件
func (b *Bunt) LoadAnnotations(ctx context.Context, window model.LoadWindow) ([]model.Annotation, error) {
	events := make([]model.Annotation, 0)
	var iterErr error
	err := b.db.View(func(tx *buntdb.Tx) error {
		lessThan := annotationKey(window.End.Add(time.Nanosecond), "")
		return tx.AscendRange("", annotationKey(window.Start, ""), lessThan, func(key, value string) bool {
			if iterErr = ctx.Err(); iterErr != nil {
				return false
			}

			var event model.Annotation
			if iterErr = json.Unmarshal([]byte(value), &event); iterErr != nil {
				iterErr = fmt.Errorf("decode %s: %w", key, iterErr)
				return false
			}
			events = append(events, event)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}

	return events, nil
}

// Readings returns the readings of a panel matching all filters
// Readings 返回面板的所有读数中满足所有过滤条件的部分
func (b *Bunt) Readings(panelID string, filters ...ReadingFilter) ([]model.Point, error) {
	points := make([]model.Point, 0)
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(readingPrefix+panelID+":*", func(key, value string) bool {
			var point model.Point
			if err := json.Unmarshal([]byte(value), &point); err != nil {
				return true
			}
			if matches(point, filters) {
				points = append(points, point)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	return points, nil
}

// Annotation finds an event by ID
// Annotation 按 ID 查找事件
func (b *Bunt) Annotation(id string) (model.Annotation, error) {
	var event model.Annotation
	found := false
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(annotationPrefix+"*", func(key, value string) bool {
			if !strings.HasSuffix(key, ":"+id) {
				return true
			}
			found = json.Unmarshal([]byte(value), &event) == nil
			return !found
		})
	})
	if err != nil {
		return model.Annotation{}, err
	}
	if !found {
		return model.Annotation{}, fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}

	return event, nil
}

// Panels returns the panels with stored readings
// Panels 返回保存过读数的面板
func (b *Bunt) Panels() ([]string, error) {
	panels := make([]string, 0)
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(panelPrefix+"*", func(_, value string) bool {
			panels = append(panels, value)
			return true
		})
	})
	if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
		return nil, err
	}

	return panels, nil
}
