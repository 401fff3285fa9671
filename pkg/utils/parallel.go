package utils

import (
	"sync"
)

// ParallelMap 以最多 concurrency 个 goroutine 并发处理 items，
// 返回与输入同下标对应的结果切片（顺序保持）。
// 单元素输入直接在当前 goroutine 处理，不开并发。
func ParallelMap[T any, R any](items []T, concurrency int, fn func(T) R) []R {
	n := len(items)
	if n == 0 {
		return nil
	}
	results := make([]R, n)
	if n == 1 {
		results[0] = fn(items[0])
		return results
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > n {
		concurrency = n
	}

	var wg sync.WaitGroup
	idxCh := make(chan int, n)
	for i := 0; i < n; i++ {
		idxCh <- i
	}
	close(idxCh)

	wg.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for i := range idxCh {
				results[i] = fn(items[i])
			}
		}()
	}
	wg.Wait()
	return results
}
