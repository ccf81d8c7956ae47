package queue

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client defines the interface for interacting with Redis-based run queues.
type Client interface {
	// Push adds a task to the end of a queue (LPUSH).
	Push(ctx context.Context, queue string, task Task) error

	// Pop removes and returns a task from the front of a queue (BRPOP).
	// Blocks until a task is available or the context is cancelled.
	Pop(ctx context.Context, queue string) (*Task, error)

	// Publish sends a task result to a pub/sub channel.
	Publish(ctx context.Context, channel string, result TaskResult) error

	// Subscribe creates a subscription to a pub/sub channel. Returns a
	// channel that receives results until the subscription is closed.
	Subscribe(ctx context.Context, channel string) (<-chan TaskResult, error)

	// RegisterRun writes run metadata to Redis and adds to the active set.
	RegisterRun(ctx context.Context, meta RunMeta) error

	// ListRuns returns metadata for all registered runs.
	ListRuns(ctx context.Context) ([]RunMeta, error)

	// Heartbeat refreshes the health key for a run with a 30s TTL.
	Heartbeat(ctx context.Context, runID string) error

	// GetWorkerCount returns the current worker count for a run.
	GetWorkerCount(ctx context.Context, runID string) (int, error)

	// IncrementWorkerCount increments the worker count for a run.
	IncrementWorkerCount(ctx context.Context, runID string) error

	// DecrementWorkerCount decrements the worker count for a run.
	DecrementWorkerCount(ctx context.Context, runID string) error

	// Close closes the Redis connection.
	Close() error
}

// Key and channel names for one run, per the package's key schema.

// TaskQueueKey returns the list key holding a run's pending tasks.
func TaskQueueKey(runID string) string { return formatKeyName("run", runID, "queue") }

// ResultsChannel returns the pub/sub channel carrying a run's results.
func ResultsChannel(runID string) string { return formatKeyName("results", runID) }

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// RedisClient implements the Client interface using go-redis/v9.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis queue client with the given options.
func NewRedisClient(opts RedisOptions) (*RedisClient, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// Push adds a task to the end of a queue.
func (c *RedisClient) Push(ctx context.Context, queue string, task Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := c.client.LPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("failed to push to queue %s: %w", queue, err)
	}

	return nil
}

// Pop removes and returns a task from the front of a queue. Blocks until a
// task is available or the context is cancelled.
func (c *RedisClient) Pop(ctx context.Context, queue string) (*Task, error) {
	// BRPOP returns [queue_name, value] or empty on timeout
	result, err := c.client.BRPop(ctx, 0, queue).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue %s: %w", queue, err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length: %d", len(result))
	}

	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}

	return &task, nil
}

// Publish sends a task result to a pub/sub channel.
func (c *RedisClient) Publish(ctx context.Context, channel string, result TaskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal task result: %w", err)
	}

	if err := c.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}

	return nil
}

// Subscribe creates a subscription to a pub/sub channel.
func (c *RedisClient) Subscribe(ctx context.Context, channel string) (<-chan TaskResult, error) {
	pubsub := c.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	resultChan := make(chan TaskResult)

	go func() {
		defer close(resultChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var result TaskResult
				if err := json.Unmarshal([]byte(msg.Payload), &result); err != nil {
					// Skip malformed payloads, keep the stream alive
					continue
				}

				select {
				case resultChan <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return resultChan, nil
}

// RegisterRun writes run metadata to Redis and adds to the active set.
func (c *RedisClient) RegisterRun(ctx context.Context, meta RunMeta) error {
	// Build a flat map for HSET - all values must be strings for go-redis
	metaMap := map[string]string{
		"run_id":       meta.RunID,
		"eval_set":     meta.EvalSet,
		"version":      meta.Version,
		"description":  meta.Description,
		"sample_count": strconv.Itoa(meta.SampleCount),
		"worker_count": strconv.Itoa(meta.WorkerCount),
	}

	metaKey := formatKeyName("run", meta.RunID, "meta")
	args := make([]interface{}, 0, len(metaMap)*2)
	for k, v := range metaMap {
		args = append(args, k, v)
	}
	if err := c.client.HSet(ctx, metaKey, args...).Err(); err != nil {
		return fmt.Errorf("failed to set run metadata: %w", err)
	}

	if err := c.client.SAdd(ctx, "runs:active", meta.RunID).Err(); err != nil {
		return fmt.Errorf("failed to add run to active set: %w", err)
	}

	return nil
}

// ListRuns returns metadata for all registered runs.
func (c *RedisClient) ListRuns(ctx context.Context) ([]RunMeta, error) {
	runIDs, err := c.client.SMembers(ctx, "runs:active").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active runs: %w", err)
	}

	runs := make([]RunMeta, 0, len(runIDs))

	for _, runID := range runIDs {
		metaKey := formatKeyName("run", runID, "meta")
		metaMap, err := c.client.HGetAll(ctx, metaKey).Result()
		if err != nil {
			// Skip runs with missing metadata
			continue
		}

		if len(metaMap) == 0 {
			continue
		}

		meta := RunMeta{
			RunID:       metaMap["run_id"],
			EvalSet:     metaMap["eval_set"],
			Version:     metaMap["version"],
			Description: metaMap["description"],
		}
		if count, err := strconv.Atoi(metaMap["sample_count"]); err == nil {
			meta.SampleCount = count
		}
		if count, err := strconv.Atoi(metaMap["worker_count"]); err == nil {
			meta.WorkerCount = count
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

// Heartbeat refreshes the health key for a run with a 30s TTL.
func (c *RedisClient) Heartbeat(ctx context.Context, runID string) error {
	healthKey := formatKeyName("run", runID, "health")
	if err := c.client.Set(ctx, healthKey, "ok", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("failed to set heartbeat for run %s: %w", runID, err)
	}
	return nil
}

// GetWorkerCount returns the current worker count for a run.
func (c *RedisClient) GetWorkerCount(ctx context.Context, runID string) (int, error) {
	workerKey := formatKeyName("run", runID, "workers")
	countStr, err := c.client.Get(ctx, workerKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get worker count for run %s: %w", runID, err)
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, fmt.Errorf("invalid worker count value: %w", err)
	}

	return count, nil
}

// IncrementWorkerCount increments the worker count for a run.
func (c *RedisClient) IncrementWorkerCount(ctx context.Context, runID string) error {
	workerKey := formatKeyName("run", runID, "workers")
	if err := c.client.Incr(ctx, workerKey).Err(); err != nil {
		return fmt.Errorf("failed to increment worker count for run %s: %w", runID, err)
	}
	return nil
}

// DecrementWorkerCount decrements the worker count for a run.
func (c *RedisClient) DecrementWorkerCount(ctx context.Context, runID string) error {
	workerKey := formatKeyName("run", runID, "workers")
	if err := c.client.Decr(ctx, workerKey).Err(); err != nil {
		return fmt.Errorf("failed to decrement worker count for run %s: %w", runID, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}

// formatKeyName joins key segments with the run:<id>:* convention.
func formatKeyName(parts ...string) string {
	return strings.Join(parts, ":")
}
