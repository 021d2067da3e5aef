package synth

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// batchSize caps how many generate calls may be outstanding at once.
	batchSize = 5
	// batchPause is the rest between batches, per provider rate limits.
	batchPause = time.Second
)

// BulkRequest is one item of a batch generation run.
type BulkRequest struct {
	Text     string
	VoiceID  string
	FileName string
}

// BulkResult pairs a request with its outcome.
type BulkResult struct {
	Request BulkRequest
	Result  *Result
	Err     error
}

// GenerateBulk processes requests in fixed batches of five. Batches run
// strictly sequentially with a one-second pause in between; within a batch
// the requests run concurrently. A failed item does not abort the run.
func (c *Client) GenerateBulk(ctx context.Context, requests []BulkRequest) []BulkResult {
	return c.generateBulk(ctx, requests, batchPause)
}

func (c *Client) generateBulk(ctx context.Context, requests []BulkRequest, pause time.Duration) []BulkResult {
	results := make([]BulkResult, len(requests))

	for start := 0; start < len(requests); start += batchSize {
		end := start + batchSize
		if end > len(requests) {
			end = len(requests)
		}

		if start > 0 {
			select {
			case <-ctx.Done():
				for i := start; i < len(requests); i++ {
					results[i] = BulkResult{Request: requests[i], Err: ctx.Err()}
				}
				return results
			case <-time.After(pause):
			}
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				req := requests[i]
				res, err := c.Generate(ctx, req.Text, req.VoiceID, req.FileName)
				results[i] = BulkResult{Request: req, Result: res, Err: err}
			}(i)
		}
		wg.Wait()

		slog.Debug("Synth: bulk batch complete", "from", start, "to", end, "total", len(requests))
	}

	return results
}
