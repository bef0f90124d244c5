package crawlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestWorkerPool_EachKeyOnce 测试重复键只处理一次
func TestWorkerPool_EachKeyOnce(t *testing.T) {
	var mu sync.Mutex
	calls := make(map[string]int)

	pool := NewWorkerPool(4, func(ctx context.Context, key string) (string, error) {
		mu.Lock()
		calls[key]++
		mu.Unlock()
		return "v-" + key, nil
	})

	keys := []string{"a", "b", "a", "c", "b", "a"}
	results, err := pool.Run(context.Background(), keys)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("结果数 = %d, 期望 3", len(results))
	}
	for _, k := range []string{"a", "b", "c"} {
		if calls[k] != 1 {
			t.Errorf("键 %s 被处理 %d 次, 期望 1 次", k, calls[k])
		}
		if results[k] != "v-"+k {
			t.Errorf("results[%s] = %q", k, results[k])
		}
	}
}

// TestWorkerPool_BoundedConcurrency 测试并发数不超过worker数
func TestWorkerPool_BoundedConcurrency(t *testing.T) {
	const workers = 3
	var running, peak int32

	pool := NewWorkerPool(workers, func(ctx context.Context, key int) (int, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return key * 2, nil
	})

	keys := make([]int, 30)
	for i := range keys {
		keys[i] = i
	}
	results, err := pool.Run(context.Background(), keys)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != len(keys) {
		t.Errorf("结果数 = %d, 期望 %d", len(results), len(keys))
	}
	if peak > workers {
		t.Errorf("最大并发 = %d, 超过worker数 %d", peak, workers)
	}
}

// TestWorkerPool_ErrorNotStored 测试任务返回错误时不写入结果
func TestWorkerPool_ErrorNotStored(t *testing.T) {
	pool := NewWorkerPool(2, func(ctx context.Context, key string) (int, error) {
		if key == "bad" {
			return 0, errors.New("失败")
		}
		return len(key), nil
	})

	done := 0
	var mu sync.Mutex
	pool.OnDone(func(string) {
		mu.Lock()
		done++
		mu.Unlock()
	})

	results, err := pool.Run(context.Background(), []string{"ok", "bad"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, exists := results["bad"]; exists {
		t.Error("失败的键不应写入结果")
	}
	if results["ok"] != 2 {
		t.Errorf("results[ok] = %d", results["ok"])
	}
	if done != 2 {
		t.Errorf("完成回调次数 = %d, 期望 2", done)
	}
}

// TestWorkerPool_Cancel 测试取消后返回部分结果
func TestWorkerPool_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var processed int32

	pool := NewWorkerPool(1, func(ctx context.Context, key string) (string, error) {
		if atomic.AddInt32(&processed, 1) == 2 {
			cancel()
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return key, nil
	})

	keys := make([]string, 20)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%d", i)
	}
	results, err := pool.Run(ctx, keys)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, 期望 context.Canceled", err)
	}
	if len(results) != 1 || results["k0"] != "k0" {
		t.Errorf("取消后结果 = %v, 期望只有 k0", results)
	}
	if atomic.LoadInt32(&processed) >= int32(len(keys)) {
		t.Error("取消后不应继续处理全部键")
	}
}

func TestWorkerPool_Empty(t *testing.T) {
	pool := NewWorkerPool(0, func(ctx context.Context, key string) (string, error) {
		t.Error("空输入不应调用任务函数")
		return "", nil
	})
	if pool.Workers() != 1 {
		t.Errorf("Workers() = %d, 期望 1", pool.Workers())
	}
	results, err := pool.Run(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Errorf("Run(nil) = (%v, %v)", results, err)
	}
}
