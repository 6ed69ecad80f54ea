package scheduler

import (
	"context"
	"sync"
)

// Request 批量排班中的一个请求，例如一个科室
type Request struct {
	ID      string  `json:"id"`
	Input   Input   `json:"input"`
	Options Options `json:"options"`
}

// BatchResult 批量排班结果
type BatchResult struct {
	Index  int     `json:"index"`
	ID     string  `json:"id"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// RunBatch 在固定大小的协程池中并行处理多个排班请求
// 各请求互不共享状态；结果顺序与请求顺序一致
// ctx 取消后尚未开始的请求以 ctx.Err() 结束，已开始的求解按各自时间上限完成
func RunBatch(ctx context.Context, requests []Request, workers int) []BatchResult {
	if len(requests) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 4
	}
	if workers > len(requests) {
		workers = len(requests)
	}

	type job struct {
		index int
		req   Request
	}

	resultChan := make(chan BatchResult, len(requests))
	jobChan := make(chan job, len(requests))

	// 启动工作协程
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				select {
				case <-ctx.Done():
					resultChan <- BatchResult{Index: j.index, ID: j.req.ID, Err: ctx.Err()}
				default:
					resultChan <- runOne(ctx, j.index, j.req)
				}
			}
		}()
	}

	// 发送任务
	for i, req := range requests {
		jobChan <- job{index: i, req: req}
	}
	close(jobChan)

	// 等待完成
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// 收集结果
	results := make([]BatchResult, len(requests))
	for r := range resultChan {
		results[r.Index] = r
	}
	return results
}

func runOne(ctx context.Context, i int, req Request) BatchResult {
	out := BatchResult{Index: i, ID: req.ID}
	engine, err := New(req.Input, req.Options)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = engine.Solve(ctx)
	return out
}
