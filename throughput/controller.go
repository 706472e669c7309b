// Package throughput implements the LOAD-side Throughput Controller:
// chunking, bounded concurrency via a wave-of-workers loop,
// x/time/rate-based pacing, and the three drain strategies a spiking
// error rate can trigger.
package throughput

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

// maxQueueDepth bounds the QUEUE drain strategy's deferred-chunk queue.
const maxQueueDepth = 1000

// minPauseMs is the floor for BACKOFF's sleep even when intervalSec is
// tiny or unset.
const minPauseMs = 100

// Controller implements pipeline.ThroughputController. It holds no state:
// every Run call is independent, since concurrency and rate config can
// vary per step.
type Controller struct{}

// New constructs a Controller.
func New() *Controller {
	return &Controller{}
}

// Run splits in into cfg.BatchSize chunks and dispatches waves of up to
// cfg.Concurrency chunks at a time to loader, applying cfg.DrainStrategy
// after a wave in which any chunk's error ratio (fail / chunk size)
// reaches cfg.PauseOnErrorRate.Threshold.
func (c *Controller) Run(ctx context.Context, step pipeline.Step, in []record.Record, loader pipeline.Loader, eh pipeline.ErrorHandling, cfg pipeline.ThroughputConfig, onErr pipeline.OnRecordError) (pipeline.ExecutionResult, error) {
	chunks := chunk(in, cfg.BatchSize)

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	runChunk := func(ch []record.Record) pipeline.ExecutionResult {
		if limiter != nil {
			_ = limiter.Wait(ctx)
		}
		res, err := loader.Execute(ctx, step, ch, onErr, eh)
		if err != nil {
			return pipeline.ExecutionResult{Fail: uint64(len(ch))}
		}
		return res
	}

	var total pipeline.ExecutionResult
	var deferredChunks [][]record.Record
	shed := false

	idx := 0
	for idx < len(chunks) {
		waveEnd := idx + concurrency
		if waveEnd > len(chunks) {
			waveEnd = len(chunks)
		}
		wave := chunks[idx:waveEnd]
		results := runWave(wave, runChunk)

		strategyTriggered := ""
		for i, res := range results {
			total.OK += res.OK
			total.Fail += res.Fail
			if cfg.PauseOnErrorRate != nil && len(wave[i]) > 0 {
				errRatio := float64(res.Fail) / float64(len(wave[i]))
				if errRatio >= cfg.PauseOnErrorRate.Threshold {
					strategyTriggered = string(cfg.DrainStrategy)
				}
			}
		}
		idx = waveEnd

		switch strategyTriggered {
		case string(pipeline.DrainBackoff):
			pauseMs := cfg.PauseOnErrorRate.IntervalSec * 1000
			if pauseMs < minPauseMs {
				pauseMs = minPauseMs
			}
			select {
			case <-time.After(time.Duration(pauseMs) * time.Millisecond):
			case <-ctx.Done():
				return total, ctx.Err()
			}
		case string(pipeline.DrainShed):
			shed = true
			idx = len(chunks) // remaining chunks are never attempted
		case string(pipeline.DrainQueue):
			deferredChunks = append(deferredChunks, chunks[idx:]...)
			if len(deferredChunks) > maxQueueDepth {
				deferredChunks = deferredChunks[:maxQueueDepth]
			}
			idx = len(chunks)
		}
	}

	_ = shed // remaining chunks under SHED simply were never started; nothing to aggregate

	if len(deferredChunks) > 0 {
		if cfg.PauseOnErrorRate != nil {
			select {
			case <-time.After(time.Duration(cfg.PauseOnErrorRate.IntervalSec*1000) * time.Millisecond):
			case <-ctx.Done():
				return total, ctx.Err()
			}
		}
		for _, ch := range deferredChunks {
			res := runChunk(ch)
			total.OK += res.OK
			total.Fail += res.Fail
		}
	}

	return total, nil
}

// runWave executes chunks concurrently (bounded by len(chunks), which the
// caller already capped at cfg.Concurrency) and returns their results in
// chunk order.
func runWave(chunks [][]record.Record, runChunk func([]record.Record) pipeline.ExecutionResult) []pipeline.ExecutionResult {
	results := make([]pipeline.ExecutionResult, len(chunks))
	if len(chunks) == 1 {
		results[0] = runChunk(chunks[0])
		return results
	}
	var wg sync.WaitGroup
	for i, ch := range chunks {
		wg.Add(1)
		go func(i int, ch []record.Record) {
			defer wg.Done()
			results[i] = runChunk(ch)
		}(i, ch)
	}
	wg.Wait()
	return results
}

// chunk splits arr into slices of at most n records (n<=0 means one
// chunk holding everything).
func chunk(arr []record.Record, n int) [][]record.Record {
	if len(arr) == 0 {
		return nil
	}
	if n <= 0 {
		return [][]record.Record{arr}
	}
	var out [][]record.Record
	for i := 0; i < len(arr); i += n {
		end := i + n
		if end > len(arr) {
			end = len(arr)
		}
		out = append(out, arr[i:end])
	}
	return out
}
