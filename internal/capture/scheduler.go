package capture

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// runChunks executes one task per second with at most maxConcurrency tasks in
// flight. Seconds are partitioned into consecutive chunks of maxConcurrency;
// every task in a chunk runs concurrently and the chunk is joined before the
// next one starts. Results come back index-aligned with seconds, so the
// output preserves request order regardless of completion order.
//
// Task failures never abort the run; each task reports its outcome as data.
func runChunks(ctx context.Context, seconds []int, maxConcurrency int, task func(ctx context.Context, second int) FrameResult) []FrameResult {
	results := make([]FrameResult, len(seconds))

	for i := 0; i < len(seconds); i += maxConcurrency {
		end := i + maxConcurrency
		if end > len(seconds) {
			end = len(seconds)
		}
		chunk := seconds[i:end]

		log.Debug().
			Int("from", chunk[0]).
			Int("to", chunk[len(chunk)-1]).
			Int("remaining", len(seconds)-end).
			Msg("Processing chunk")

		var wg sync.WaitGroup
		for j, second := range chunk {
			wg.Add(1)
			go func(idx, sec int) {
				defer wg.Done()
				results[idx] = task(ctx, sec)
			}(i+j, second)
		}
		wg.Wait()
	}

	return results
}
