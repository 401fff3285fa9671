package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupCacheSeen(t *testing.T) {
	c := NewDedupCache(4)

	// 首次见到返回 false 并记录
	assert.False(t, c.Seen("a"))
	assert.True(t, c.Seen("a"))
	assert.Equal(t, 1, c.Len())
}

func TestDedupCacheEviction(t *testing.T) {
	c := NewDedupCache(3)
	for _, k := range []string{"a", "b", "c"} {
		assert.False(t, c.Seen(k))
	}
	assert.Equal(t, 3, c.Len())

	// 超出容量按 FIFO 淘汰最早的 key
	assert.False(t, c.Seen("d"))
	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Seen("a")) // a 已被淘汰，视为新 key
	assert.True(t, c.Seen("c"))  // c 仍未被淘汰
}

func TestDedupCacheForget(t *testing.T) {
	c := NewDedupCache(4)
	assert.False(t, c.Seen("a"))
	assert.True(t, c.Seen("a"))

	// Forget 后重投视为新 key（失败条目重投路径）
	c.Forget("a")
	assert.False(t, c.Seen("a"))
	assert.True(t, c.Seen("a"))

	// Forget 不影响容量语义：残留的淘汰序条目被跳过
	c2 := NewDedupCache(2)
	assert.False(t, c2.Seen("x"))
	assert.False(t, c2.Seen("y"))
	c2.Forget("x")
	assert.False(t, c2.Seen("z"))
	assert.True(t, c2.Len() <= 2)
	assert.True(t, c2.Seen("z"))
}

func TestDedupCacheSustainedChurn(t *testing.T) {
	// 持续写入远超容量的 key，容量与内部游标必须保持稳定
	c := NewDedupCache(16)
	for i := 0; i < 1000; i++ {
		c.Seen(fmt.Sprintf("key-%d", i))
	}
	assert.Equal(t, 16, c.Len())

	// 最近的 key 仍在缓存中
	assert.True(t, c.Seen("key-999"))
}

func TestDedupCacheConcurrent(t *testing.T) {
	c := NewDedupCache(128)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Seen(fmt.Sprintf("g%d-%d", g, i))
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 128)
}
