package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github-project-compare/internal/common"
	"github-project-compare/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ComparisonRecord 一条缓存记录；ID 自增，代表插入顺序
type ComparisonRecord struct {
	ID        uint   `gorm:"primaryKey"`
	CacheKey  string `gorm:"size:32;uniqueIndex"`
	Payload   string `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName 表名
func (ComparisonRecord) TableName() string {
	return "comparison_cache"
}

// PostgresCache 实现了 port.ComparisonCache 接口，结果以 JSON 文本保存。
// 与进程内缓存相同的 FIFO 语义：更新已有键不改变 ID，超出容量删除最小 ID
type PostgresCache struct {
	db       *gorm.DB
	capacity int
}

// NewPostgresCache 初始化数据库连接并自动迁移表结构
func NewPostgresCache(dsn string, capacity int) (*PostgresCache, error) {
	// 1. 连接数据库
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 2. 自动迁移，创建 comparison_cache 表
	if err := db.AutoMigrate(&ComparisonRecord{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return newPostgresCache(db, capacity), nil
}

// IsConfigError DSN 本身写错时重试没有意义
func IsConfigError(err error) bool {
	var parseErr *pgconn.ParseConfigError
	return errors.As(err, &parseErr)
}

func newPostgresCache(db *gorm.DB, capacity int) *PostgresCache {
	if capacity <= 0 {
		capacity = 50
	}
	return &PostgresCache{db: db, capacity: capacity}
}

// Get 按键查询
func (c *PostgresCache) Get(ctx context.Context, key string) (*domain.ComparisonResult, bool, error) {
	var rec ComparisonRecord
	err := c.db.WithContext(ctx).Where("cache_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, common.WrapError(common.ErrCodeDatabase, "查询缓存失败", err)
	}

	var result domain.ComparisonResult
	if err := json.Unmarshal([]byte(rec.Payload), &result); err != nil {
		return nil, false, common.WrapError(common.ErrCodeDatabase, "缓存内容损坏", err)
	}
	return &result, true, nil
}

// Put 写入或更新 (Upsert)，然后按插入顺序淘汰超出容量的记录
func (c *PostgresCache) Put(ctx context.Context, key string, result *domain.ComparisonResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return common.WrapError(common.ErrCodeInternal, "序列化对比结果失败", err)
	}

	db := c.db.WithContext(ctx)
	rec := ComparisonRecord{CacheKey: key, Payload: string(payload)}
	// INSERT ... ON CONFLICT (cache_key) DO UPDATE SET payload，ID 保持不变
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload"}),
	}).Create(&rec).Error
	if err != nil {
		return common.WrapError(common.ErrCodeDatabase, "写入缓存失败", err)
	}

	var count int64
	if err := db.Model(&ComparisonRecord{}).Count(&count).Error; err != nil {
		return common.WrapError(common.ErrCodeDatabase, "统计缓存条目失败", err)
	}
	overflow := int(count) - c.capacity
	if overflow <= 0 {
		return nil
	}

	var oldest []ComparisonRecord
	if err := db.Order("id ASC").Limit(overflow).Find(&oldest).Error; err != nil {
		return common.WrapError(common.ErrCodeDatabase, "查询最早的缓存条目失败", err)
	}
	if len(oldest) == 0 {
		return nil
	}
	if err := db.Delete(&oldest).Error; err != nil {
		return common.WrapError(common.ErrCodeDatabase, "淘汰缓存条目失败", err)
	}
	return nil
}

// Size 当前条目数
func (c *PostgresCache) Size(ctx context.Context) (int, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&ComparisonRecord{}).Count(&count).Error; err != nil {
		return 0, common.WrapError(common.ErrCodeDatabase, "统计缓存条目失败", err)
	}
	return int(count), nil
}
