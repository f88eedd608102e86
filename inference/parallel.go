package inference

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/servekit/core"
)

// PredictAllParallel 以受限并发提交批次，并按原始批次顺序重组结果。
//
// 下游消费方依赖输入顺序，因此每个批次带下标提交，结果写入按下标预分配的
// 槽位，全部完成后再顺序拼接——并发只改变提交时序，不改变输出顺序。
// 任一批次失败时通过 errgroup 取消其余批次并返回该批次的 BatchError。
// maxConcurrent <= 1 时退化为串行的 PredictAll。
func (c *Client) PredictAllParallel(ctx context.Context, rows []core.FeatureRow, batchSize, maxConcurrent int) ([]float64, error) {
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}
	if maxConcurrent <= 1 {
		return c.PredictAll(ctx, rows, batchSize)
	}
	if len(rows) == 0 {
		return []float64{}, nil
	}

	total := len(rows)
	numBatches := (total + batchSize - 1) / batchSize
	results := make([][]float64, numBatches)

	eg, ctx := errgroup.WithContext(ctx)

	// 限流：使用 semaphore 控制并发数
	sem := make(chan struct{}, maxConcurrent)

	for i := 0; i < numBatches; i++ {
		idx := i
		offset := i * batchSize
		end := offset + batchSize
		if end > total {
			end = total
		}
		batch := rows[offset:end]

		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}

			scores, err := c.PredictOne(ctx, batch)
			if err != nil {
				return &BatchError{Endpoint: c.endpoint, Offset: offset, Err: err}
			}
			results[idx] = scores

			c.logger.Debug().
				Str("endpoint", c.endpoint).
				Int("offset", offset).
				Int("batch_rows", len(batch)).
				Int("total", total).
				Msg("batch completed")
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	preds := make([]float64, 0, total)
	for _, scores := range results {
		preds = append(preds, scores...)
	}
	return preds, nil
}
