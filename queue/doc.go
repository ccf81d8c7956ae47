// Package queue provides Redis-based work distribution for evaluation runs.
//
// A coordinator pushes sample tasks onto a run's queue, workers consume and
// score them, and result records flow back through Redis pub/sub. This
// decouples run submission from scoring so a run can fan out across
// processes and hosts.
//
// # Core Components
//
// Client: Interface for interacting with the Redis queues. Provides methods
// for:
//   - Push/Pop operations for sample tasks
//   - Publish/Subscribe for result record delivery
//   - Run registration and discovery
//   - Worker heartbeats and counts
//
// Task: One sample to score, with its position in the run.
//
// TaskResult: The scored outcome of a Task, carrying the result record.
//
// RunMeta: Metadata about a registered run for discovery.
//
// StartRun/CollectRun: the coordinator flow on top of Client. StartRun
// registers a run and queues every sample; CollectRun drains the run's
// result channel until each task has reported.
//
// # Redis Key Schema
//
// The queue system uses a structured key naming convention:
//   - run:<id>:queue - List for sample tasks (LPUSH/BRPOP)
//   - run:<id>:meta - Hash for run metadata
//   - run:<id>:health - String with 30s TTL for worker heartbeat
//   - run:<id>:workers - Integer counter for active workers
//   - runs:active - Set of all registered run IDs
//   - results:<id> - Pub/Sub channel for the run's result records
//
// # Usage
//
// Creating a queue client:
//
//	client, err := queue.NewRedisClient(queue.RedisOptions{
//		URL: "redis://localhost:6379",
//	})
//
// Pushing a task:
//
//	err := client.Push(ctx, queue.TaskQueueKey(runID), queue.Task{
//		RunID:       runID,
//		Index:       0,
//		Total:       len(samples),
//		Sample:      samples[0],
//		SubmittedAt: time.Now().UnixMilli(),
//	})
//
// Popping a task (blocking) and publishing its result:
//
//	task, err := client.Pop(ctx, queue.TaskQueueKey(runID))
//	rec, _ := scorer.Score(ctx, task.Sample, output)
//	err = client.Publish(ctx, queue.ResultsChannel(runID), queue.TaskResult{
//		RunID:       runID,
//		Index:       task.Index,
//		Record:      rec,
//		WorkerID:    workerID,
//		StartedAt:   started.UnixMilli(),
//		CompletedAt: time.Now().UnixMilli(),
//	})
//
// Collecting results:
//
//	results, err := client.Subscribe(ctx, queue.ResultsChannel(runID))
//	for result := range results {
//		records = append(records, result.Record)
//	}
//
// # Error Handling
//
// All methods return errors for Redis connection failures, serialization
// errors, or context cancellation. Callers should retry transient failures
// with backoff.
//
// # Thread Safety
//
// RedisClient is safe for concurrent use by multiple goroutines.
package queue
