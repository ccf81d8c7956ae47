package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robustcall/sdk/eval"
)

// setupTestClient creates a miniredis instance and returns a connected RedisClient.
func setupTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

func testTask(index, total int) Task {
	return Task{
		RunID: "run-123",
		Index: index,
		Total: total,
		Sample: eval.Sample{
			ID:       fmt.Sprintf("sample-%03d", index),
			Category: eval.CategoryNormal,
		},
		SubmittedAt: time.Now().UnixMilli(),
	}
}

func TestNewRedisClient(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		mr := miniredis.RunT(t)
		defer mr.Close()

		client, err := NewRedisClient(RedisOptions{
			URL: fmt.Sprintf("redis://%s", mr.Addr()),
		})
		require.NoError(t, err)
		require.NotNil(t, client)
		defer client.Close()
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedisClient(RedisOptions{
			URL:            "redis://localhost:1",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisClient(RedisOptions{
			URL: "invalid://url",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "run:abc:queue", TaskQueueKey("abc"))
	assert.Equal(t, "results:abc", ResultsChannel("abc"))
}

func TestPushPop(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	key := TaskQueueKey("run-123")

	t.Run("round trip preserves the task", func(t *testing.T) {
		task := testTask(0, 2)
		require.NoError(t, client.Push(ctx, key, task))

		popped, err := client.Pop(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, popped)
		assert.Equal(t, task.RunID, popped.RunID)
		assert.Equal(t, task.Index, popped.Index)
		assert.Equal(t, task.Sample.ID, popped.Sample.ID)
		assert.Equal(t, task.Sample.Category, popped.Sample.Category)
	})

	t.Run("FIFO order", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, client.Push(ctx, key, testTask(i, 3)))
		}
		for i := 0; i < 3; i++ {
			popped, err := client.Pop(ctx, key)
			require.NoError(t, err)
			require.NotNil(t, popped)
			assert.Equal(t, i, popped.Index)
		}
	})

	t.Run("pop honors cancellation", func(t *testing.T) {
		cancelCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()

		_, err := client.Pop(cancelCtx, TaskQueueKey("empty-run"))
		require.Error(t, err)
	})
}

func TestPublishSubscribe(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := ResultsChannel("run-123")
	results, err := client.Subscribe(ctx, channel)
	require.NoError(t, err)

	sent := TaskResult{
		RunID: "run-123",
		Index: 4,
		Record: eval.ResultRecord{
			SampleID: "sample-004",
			Category: eval.CategoryNormal,
			Accuracy: 1,
		},
		WorkerID:    "worker-1",
		StartedAt:   time.Now().UnixMilli(),
		CompletedAt: time.Now().UnixMilli(),
	}
	require.NoError(t, client.Publish(ctx, channel, sent))

	select {
	case got := <-results:
		assert.Equal(t, sent.RunID, got.RunID)
		assert.Equal(t, sent.Index, got.Index)
		assert.Equal(t, sent.Record.SampleID, got.Record.SampleID)
		assert.Equal(t, sent.Record.Accuracy, got.Record.Accuracy)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published result")
	}

	t.Run("cancellation closes the stream", func(t *testing.T) {
		streamCtx, streamCancel := context.WithCancel(context.Background())
		stream, err := client.Subscribe(streamCtx, channel)
		require.NoError(t, err)

		streamCancel()
		select {
		case _, open := <-stream:
			assert.False(t, open)
		case <-time.After(2 * time.Second):
			t.Fatal("stream did not close after cancellation")
		}
	})
}

func TestRegisterRunAndList(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	metas := []RunMeta{
		{RunID: "run-1", EvalSet: "smoke", Version: "1.0", SampleCount: 150},
		{RunID: "run-2", EvalSet: "nightly", Version: "2.3", Description: "full sweep", SampleCount: 4000},
	}
	for _, meta := range metas {
		require.NoError(t, client.RegisterRun(ctx, meta))
	}

	runs, err := client.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byID := make(map[string]RunMeta, len(runs))
	for _, run := range runs {
		byID[run.RunID] = run
	}
	assert.Equal(t, "smoke", byID["run-1"].EvalSet)
	assert.Equal(t, 150, byID["run-1"].SampleCount)
	assert.Equal(t, "full sweep", byID["run-2"].Description)

	t.Run("re-registering updates metadata", func(t *testing.T) {
		updated := metas[0]
		updated.SampleCount = 151
		require.NoError(t, client.RegisterRun(ctx, updated))

		runs, err := client.ListRuns(ctx)
		require.NoError(t, err)
		require.Len(t, runs, 2)
	})
}

func TestHeartbeat(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Heartbeat(ctx, "run-1"))

	key := formatKeyName("run", "run-1", "health")
	value, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "ok", value)

	// The key expires unless refreshed.
	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists(key))
}

func TestWorkerCount(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	count, err := client.GetWorkerCount(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count, "missing counter reads as zero")

	require.NoError(t, client.IncrementWorkerCount(ctx, "run-1"))
	require.NoError(t, client.IncrementWorkerCount(ctx, "run-1"))
	require.NoError(t, client.IncrementWorkerCount(ctx, "run-1"))
	require.NoError(t, client.DecrementWorkerCount(ctx, "run-1"))

	count, err = client.GetWorkerCount(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWorkerScoresQueuedTasks(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const runID = "run-e2e"
	const total = 3

	results, err := client.Subscribe(ctx, ResultsChannel(runID))
	require.NoError(t, err)

	for i := 0; i < total; i++ {
		require.NoError(t, client.Push(ctx, TaskQueueKey(runID), testTask(i, total)))
	}

	// A worker drains the queue and publishes a record per task.
	go func() {
		for i := 0; i < total; i++ {
			task, err := client.Pop(ctx, TaskQueueKey(runID))
			if err != nil || task == nil {
				return
			}
			now := time.Now().UnixMilli()
			_ = client.Publish(ctx, ResultsChannel(runID), TaskResult{
				RunID:       task.RunID,
				Index:       task.Index,
				Record:      eval.ResultRecord{SampleID: task.Sample.ID, Category: task.Sample.Category, Accuracy: 1},
				WorkerID:    "worker-1",
				StartedAt:   now,
				CompletedAt: now,
			})
		}
	}()

	collected := make(map[int]TaskResult, total)
	for len(collected) < total {
		select {
		case result := <-results:
			collected[result.Index] = result
		case <-time.After(5 * time.Second):
			t.Fatalf("collected %d of %d results before timeout", len(collected), total)
		}
	}

	for i := 0; i < total; i++ {
		result, ok := collected[i]
		require.True(t, ok, "missing result %d", i)
		assert.Equal(t, fmt.Sprintf("sample-%03d", i), result.Record.SampleID)
		assert.NoError(t, result.IsValid())
	}
}

func TestClose(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	client, err := NewRedisClient(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	err = client.Push(context.Background(), TaskQueueKey("run-1"), testTask(0, 1))
	require.Error(t, err)
}
