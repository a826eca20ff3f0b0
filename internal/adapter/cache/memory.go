package cache

import (
	"context"
	"sync"

	"github-project-compare/internal/domain"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultCapacity 默认最多缓存的对比结果数
const DefaultCapacity = 50

// MemoryCache 进程内 FIFO 缓存，实现了 port.ComparisonCache 接口。
// 淘汰只看插入顺序，读取不会改变顺序
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  *orderedmap.OrderedMap[string, *domain.ComparisonResult]
}

// NewMemoryCache 创建缓存，capacity <= 0 时使用默认容量
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  orderedmap.New[string, *domain.ComparisonResult](),
	}
}

// Get 查询缓存
func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.ComparisonResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.entries.Get(key)
	return result, ok, nil
}

// Put 写入缓存；已存在的键只替换值，保留原来的位置。
// 写入后超出容量则淘汰最早插入的一条
func (c *MemoryCache) Put(ctx context.Context, key string, result *domain.ComparisonResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Set(key, result)
	if c.entries.Len() > c.capacity {
		if oldest := c.entries.Oldest(); oldest != nil {
			c.entries.Delete(oldest.Key)
		}
	}
	return nil
}

// Size 当前条目数
func (c *MemoryCache) Size(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Len(), nil
}

// Keys 按插入顺序返回所有键
func (c *MemoryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
