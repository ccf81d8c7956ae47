package queue

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robustcall/sdk/eval"
)

// StartRun registers a run and queues one task per sample, stamping each
// task with its position and submission time. The metadata's SampleCount is
// set from the sample slice. Start the result collector before calling this:
// pub/sub delivery is fire-and-forget, so results published before the
// collector subscribes are lost.
func StartRun(ctx context.Context, c Client, meta RunMeta, samples []eval.Sample) error {
	meta.SampleCount = len(samples)
	if err := meta.IsValid(); err != nil {
		return fmt.Errorf("run %s: %w", meta.RunID, err)
	}
	if err := c.RegisterRun(ctx, meta); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	queueKey := TaskQueueKey(meta.RunID)
	for i, sample := range samples {
		task := Task{
			RunID:       meta.RunID,
			Index:       i,
			Total:       len(samples),
			Sample:      sample,
			SubmittedAt: now,
		}
		if err := c.Push(ctx, queueKey, task); err != nil {
			return fmt.Errorf("queue task %d of run %s: %w", i, meta.RunID, err)
		}
	}
	return nil
}

// CollectRun subscribes to a run's result channel and blocks until one
// result per task has arrived or the context ends. Results for other runs,
// out-of-range indices, and duplicate deliveries are dropped. On
// cancellation it returns the results gathered so far together with the
// context's error; the returned slice is ordered by task index either way.
func CollectRun(ctx context.Context, c Client, runID string, total int) ([]TaskResult, error) {
	results, err := c.Subscribe(ctx, ResultsChannel(runID))
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int]TaskResult, total)
	for len(byIndex) < total {
		select {
		case result, ok := <-results:
			if !ok {
				return orderedResults(byIndex), fmt.Errorf(
					"result stream for run %s closed after %d of %d results", runID, len(byIndex), total)
			}
			if result.RunID != runID || result.Index < 0 || result.Index >= total {
				continue
			}
			if _, seen := byIndex[result.Index]; seen {
				continue
			}
			byIndex[result.Index] = result
		case <-ctx.Done():
			return orderedResults(byIndex), ctx.Err()
		}
	}
	return orderedResults(byIndex), nil
}

// Records extracts the result records of the tasks that were scored,
// preserving order and skipping worker-side failures.
func Records(results []TaskResult) []eval.ResultRecord {
	records := make([]eval.ResultRecord, 0, len(results))
	for _, result := range results {
		if result.HasError() {
			continue
		}
		records = append(records, result.Record)
	}
	return records
}

func orderedResults(byIndex map[int]TaskResult) []TaskResult {
	out := make([]TaskResult, 0, len(byIndex))
	for _, result := range byIndex {
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
