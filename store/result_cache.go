package store

import (
	"strconv"
	"sync"
	"time"

	"github.com/Sreddy08840/agri-connect/core"
)

// ResultCache 是推荐结果的进程内缓存，按 用户ID:TopK 维度缓存最终列表。
// 容量有界：超过 Capacity 时按写入时间淘汰最老的 1/5，避免逐条淘汰抖动。
// 过期采用惰性删除，读到过期条目时顺手清掉。
type ResultCache struct {
	// TTL 是条目存活时间，<=0 使用默认值 3600 秒
	TTL time.Duration
	// Capacity 是最大条目数，<=0 使用默认值 1000
	Capacity int

	mu      sync.Mutex
	entries map[string]*cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	items     []*core.Item
	createdAt time.Time
}

const (
	defaultResultTTL      = 3600 * time.Second
	defaultResultCapacity = 1000
)

func NewResultCache(ttl time.Duration, capacity int) *ResultCache {
	return &ResultCache{
		TTL:      ttl,
		Capacity: capacity,
		entries:  make(map[string]*cacheEntry),
		now:      time.Now,
	}
}

func cacheKey(userID string, topK int) string {
	return userID + ":" + strconv.Itoa(topK)
}

// Get 返回缓存的推荐列表副本，未命中或已过期返回 nil。
func (c *ResultCache) Get(userID string, topK int) []*core.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(userID, topK)
	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	// 只在存活时间严格小于 TTL 时命中，刚好到期视为过期
	if c.now().Sub(entry.createdAt) >= c.ttl() {
		delete(c.entries, key)
		return nil
	}
	return core.CloneItems(entry.items)
}

// Put 缓存一份推荐列表的深拷贝，写入后可能触发批量淘汰。
func (c *ResultCache) Put(userID string, topK int, items []*core.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(userID, topK)] = &cacheEntry{
		items:     core.CloneItems(items),
		createdAt: c.now(),
	}

	capacity := c.capacity()
	if len(c.entries) <= capacity {
		return
	}

	// 超容后淘汰最老的 1/5，留出余量
	evict := capacity / 5
	if evict < 1 {
		evict = 1
	}
	for i := 0; i < evict && len(c.entries) > 0; i++ {
		var oldestKey string
		var oldestAt time.Time
		first := true
		for key, entry := range c.entries {
			// 写入时间相同的按 key 的字典序淘汰，不依赖 map 遍历顺序
			if first || entry.createdAt.Before(oldestAt) ||
				(entry.createdAt.Equal(oldestAt) && key < oldestKey) {
				oldestKey, oldestAt = key, entry.createdAt
				first = false
			}
		}
		delete(c.entries, oldestKey)
	}
}

// Clear 清空全部缓存（模型刷新后调用，避免新旧模型结果混用）。
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Len 返回当前条目数（含未被惰性删除的过期条目）。
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTLSeconds 返回生效的 TTL 秒数（用于运维统计）。
func (c *ResultCache) TTLSeconds() int {
	return int(c.ttl() / time.Second)
}

func (c *ResultCache) ttl() time.Duration {
	if c.TTL <= 0 {
		return defaultResultTTL
	}
	return c.TTL
}

func (c *ResultCache) capacity() int {
	if c.Capacity <= 0 {
		return defaultResultCapacity
	}
	return c.Capacity
}
