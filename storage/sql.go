package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/vitalchart/vitalchart/model"
)

// reading 一行读数。时间以 unix 纳秒保存，范围查询按整数比较。
type reading struct {
	ID    uint                `gorm:"primaryKey"`
	Panel string              `gorm:"uniqueIndex:idx_panel_at;not null"`
	At    int64               `gorm:"uniqueIndex:idx_panel_at;not null"`
	Data  map[string]*float64 `gorm:"serializer:json"`
}

type annotation struct {
	ID       string            `gorm:"primaryKey"`
	At       int64             `gorm:"index;not null"`
	Label    string
	Metadata map[string]string `gorm:"serializer:json"`
}

func (r reading) point() model.Point {
	return model.Point{Time: time.Unix(0, r.At).UTC(), Values: r.Data}
}

func (a annotation) event() model.Annotation {
	return model.Annotation{ID: a.ID, Time: time.Unix(0, a.At).UTC(), Label: a.Label, Metadata: a.Metadata}
}

// SQL is a gorm backed storage
// SQL 基于 gorm 的存储
type SQL struct {
	db *gorm.DB
}

// FromSQL creates a storage on any gorm dialect and migrates the schema
// FromSQL 使用任意 gorm 方言创建存储，并自动迁移表结构
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQL, error) {
	if len(opts) == 0 {
		opts = append(opts, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	}

	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite 只允许一个写连接
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&reading{}, &annotation{}); err != nil {
		return nil, err
	}

	return &SQL{db: db}, nil
}

// FromSQLite creates a storage on a sqlite file or ":memory:"
// FromSQLite 使用 sqlite 文件（或 ":memory:"）创建存储
func FromSQLite(path string, opts ...gorm.Option) (*SQL, error) {
	return FromSQL(sqlite.Open(path), opts...)
}

// SaveReadings stores readings, replacing readings at the same time
// SaveReadings 保存读数，同一面板同一时间的读数会被覆盖
func (s *SQL) SaveReadings(panelID string, points ...model.Point) error {
	rows := make([]reading, 0, len(points))
	for _, point := range points {
		if point.Time.IsZero() {
			continue
		}
		rows = append(rows, reading{Panel: panelID, At: point.Time.UnixNano(), Data: point.Values})
	}
	if len(rows) == 0 {
		return nil
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "panel"}, {Name: "at"}},
		DoUpdates: clause.AssignmentColumns([]string{"data"}),
	}).CreateInBatches(rows, 500).Error
}

// SaveAnnotations stores events, assigning a UUID to events without an ID
// SaveAnnotations 保存事件，没有 ID 的事件会分配一个 UUID
func (s *SQL) SaveAnnotations(events ...model.Annotation) error {
	rows := make([]annotation, 0, len(events))
	for _, event := range events {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		rows = append(rows, annotation{ID: event.ID, At: event.Time.UnixNano(), Label: event.Label, Metadata: event.Metadata})
	}
	if len(rows) == 0 {
		return nil
	}

	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

// LoadReadings returns the readings of a panel in [start, end] in time order
// LoadReadings 按时间顺序返回面板在 [start, end] 内的读数
func (s *SQL) LoadReadings(ctx context.Context, panelID string, window model.LoadWindow) ([]model.Point, error) {
	var rows []reading
	result := s.db.WithContext(ctx).
		Where("panel = ? AND at >= ? AND at <= ?", panelID, window.Start.UnixNano(), window.End.UnixNano()).
		Order("at").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	points := make([]model.Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, row.point())
	}
	return points, nil
}

// LoadAnnotations returns the events in [start, end] in time order
// LoadAnnotations 按时间顺序返回 [start, end] 内的事件
func (s *SQL) LoadAnnotations(ctx context.Context, window model.LoadWindow) ([]model.Annotation, error) {
	var rows []annotation
	result := s.db.WithContext(ctx).
		Where("at >= ? AND at <= ?", window.Start.UnixNano(), window.End.UnixNano()).
		Order("at").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	events := make([]model.Annotation, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.event())
	}
	return events, nil
}

// Readings returns the readings of a panel matching all filters
// Readings 返回面板的所有读数中满足所有过滤条件的部分
func (s *SQL) Readings(panelID string, filters ...ReadingFilter) ([]model.Point, error) {
	var rows []reading
	if err := s.db.Where("panel = ?", panelID).Order("at").Find(&rows).Error; err != nil {
		return nil, err
	}

	points := make([]model.Point, 0, len(rows))
	for _, row := range rows {
		if point := row.point(); matches(point, filters) {
			points = append(points, point)
		}
	}
	return points, nil
}

// Annotation finds an event by ID
// Annotation 按 ID 查找事件
func (s *SQL) Annotation(id string) (model.Annotation, error) {
	var row annotation
	err := s.db.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Annotation{}, fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Annotation{}, err
	}
	return row.event(), nil
}

// Panels returns the panels with stored readings
// Panels 返回保存过读数的面板
func (s *SQL) Panels() ([]string, error) {
	var panels []string
	err := s.db.Model(&reading{}).Distinct("panel").Order("panel").Pluck("panel", &panels).Error
	return panels, err
}
