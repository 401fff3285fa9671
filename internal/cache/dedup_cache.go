package cache

import (
	"sync"
)

// DedupCache 是写入进程内的有界去重缓存：记录最近 N 个事件标识，
// 容量满时淘汰最旧条目。它只是吞吐优化——进程重启或条目被淘汰后，
// 重复写入仍由存储层条件写兜底，因此无需持久化。
// 支持多个解码 / 写入任务并发读写。
type DedupCache struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string // FIFO 淘汰序
	head     int
}

func NewDedupCache(capacity int) *DedupCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &DedupCache{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Seen 检查标识是否已出现；未出现则记录并返回 false。
// 检查与记录是单个原子操作，避免并发任务同时放行同一标识。
func (c *DedupCache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[key]; ok {
		return true
	}

	// Forget 过的标识在 order 中残留，淘汰到容量回落为止
	for len(c.seen) >= c.capacity && c.head < len(c.order) {
		oldest := c.order[c.head]
		delete(c.seen, oldest)
		c.head++
		// 惰性压缩，避免每次淘汰都搬移切片
		if c.head > c.capacity {
			c.order = append(c.order[:0], c.order[c.head:]...)
			c.head = 0
		}
	}

	c.seen[key] = struct{}{}
	c.order = append(c.order, key)
	return false
}

// Forget 移除标识。写入失败的条目要重投，其标识必须先从缓存清除，
// 否则重投会被当作重复条目跳过。
func (c *DedupCache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, key)
}

// Len 返回当前缓存条目数（测试与诊断用）
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
