package models

import (
	"fmt"

	"gorm.io/gorm"
)

// CallRecordStore 调用记录存取。store为可选组件，
// 数据库未配置时网关以空store运行，所有写入为空操作。
type CallRecordStore struct {
	db *gorm.DB
}

// NewCallRecordStore 创建存取器并迁移表结构，db为nil时返回空store
func NewCallRecordStore(db *gorm.DB) (*CallRecordStore, error) {
	if db == nil {
		return &CallRecordStore{}, nil
	}
	if err := db.AutoMigrate(&CallRecord{}); err != nil {
		return nil, fmt.Errorf("迁移调用记录表失败: %w", err)
	}
	return &CallRecordStore{db: db}, nil
}

// Enabled 是否有底层数据库
func (s *CallRecordStore) Enabled() bool {
	return s != nil && s.db != nil
}

// Save 写入一条调用记录
func (s *CallRecordStore) Save(record *CallRecord) error {
	if !s.Enabled() {
		return nil
	}
	return s.db.Create(record).Error
}

// Recent 按时间倒序取最近的调用记录
func (s *CallRecordStore) Recent(limit int) ([]CallRecord, error) {
	if !s.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var records []CallRecord
	err := s.db.Order("created_at desc").Limit(limit).Find(&records).Error
	return records, err
}
