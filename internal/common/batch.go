package common

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchLimit 批量抓取的默认并发上限
const DefaultBatchLimit = 4

// RunBounded 以最多 limit 个并发执行 tasks，等待全部完成。
// 任务自身负责吞掉错误；ctx 取消后尚未开始的任务不再执行。
// 任务中的 panic 会在全部任务结束后于调用方 goroutine 中重新抛出。
func RunBounded(ctx context.Context, limit int, tasks []func(ctx context.Context)) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	var (
		once      sync.Once
		recovered interface{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { recovered = r })
				}
			}()
			if gctx.Err() != nil {
				return nil
			}
			task(gctx)
			return nil
		})
	}
	_ = g.Wait()

	if recovered != nil {
		panic(recovered)
	}
}
