package crawlers

import (
	"context"
	"sync"
)

// TaskFunc 处理单个键的任务函数
// 返回错误时该键不写入结果(例如任务被取消)
type TaskFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// WorkerPool 有界工作池: 任务队列 + 固定数量的worker + 汇合屏障
// 输入键先去重,每个唯一键只分派一次,结果按键写入map,完成顺序不影响结果
type WorkerPool[K comparable, V any] struct {
	workers int
	task    TaskFunc[K, V]

	// onDone 每个键处理完成后回调(用于进度条), 可为nil
	onDone func(key K)
}

// NewWorkerPool 创建工作池, workers < 1 时按1处理
func NewWorkerPool[K comparable, V any](workers int, task TaskFunc[K, V]) *WorkerPool[K, V] {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool[K, V]{
		workers: workers,
		task:    task,
	}
}

// OnDone 设置完成回调
func (p *WorkerPool[K, V]) OnDone(fn func(key K)) *WorkerPool[K, V] {
	p.onDone = fn
	return p
}

// Workers 返回worker数量
func (p *WorkerPool[K, V]) Workers() int {
	return p.workers
}

// Run 处理全部键并等待所有worker结束
// ctx取消后worker不再领取新任务,已领取的任务由TaskFunc自行响应取消;
// 返回已完成部分的结果和ctx.Err()
func (p *WorkerPool[K, V]) Run(ctx context.Context, keys []K) (map[K]V, error) {
	unique := dedupeKeys(keys)
	results := make(map[K]V, len(unique))
	if len(unique) == 0 {
		return results, ctx.Err()
	}

	workers := p.workers
	if workers > len(unique) {
		workers = len(unique)
	}

	queue := make(chan K)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range queue {
				value, err := p.task(ctx, key)
				if err == nil {
					mu.Lock()
					results[key] = value
					mu.Unlock()
				}
				if p.onDone != nil {
					p.onDone(key)
				}
			}
		}()
	}

	// 分派任务, ctx取消时停止分派
dispatch:
	for _, key := range unique {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- key:
		}
	}
	close(queue)
	wg.Wait()

	return results, ctx.Err()
}

// dedupeKeys 保序去重
func dedupeKeys[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
