package queue

import (
	"fmt"
	"time"

	"github.com/robustcall/sdk/eval"
)

// Task is one sample submitted to a run's queue. It carries everything a
// worker needs to score the sample and report back.
type Task struct {
	// RunID is a UUID correlating all tasks of a run.
	RunID string `json:"run_id"`

	// Index is the position of this task in the run (0-based).
	Index int `json:"index"`

	// Total is the total number of tasks in the run.
	Total int `json:"total"`

	// Sample is the evaluation case to score.
	Sample eval.Sample `json:"sample"`

	// TraceID and SpanID carry distributed tracing context.
	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`

	// SubmittedAt is the Unix timestamp in milliseconds when the task was
	// queued.
	SubmittedAt int64 `json:"submitted_at"`
}

// TaskResult is the scored outcome of a Task, published to the run's result
// channel for the coordinator to collect.
type TaskResult struct {
	// RunID correlates this result with its run.
	RunID string `json:"run_id"`

	// Index is the task's position in the run.
	Index int `json:"index"`

	// Record is the per-sample outcome. Zero when Error is set.
	Record eval.ResultRecord `json:"record"`

	// Error is the worker-side failure message, empty on success.
	Error string `json:"error,omitempty"`

	// WorkerID identifies the worker that scored the task.
	WorkerID string `json:"worker_id"`

	// StartedAt and CompletedAt are Unix timestamps in milliseconds.
	StartedAt   int64 `json:"started_at"`
	CompletedAt int64 `json:"completed_at"`
}

// RunMeta describes a registered run. It is stored as a Redis hash and used
// for run discovery.
type RunMeta struct {
	// RunID is the unique run identifier.
	RunID string `json:"run_id"`

	// EvalSet is the name of the evaluation set being run.
	EvalSet string `json:"eval_set"`

	// Version is the evaluation set's version string.
	Version string `json:"version"`

	// Description is free text about the run.
	Description string `json:"description"`

	// SampleCount is the number of tasks the run comprises.
	SampleCount int `json:"sample_count"`

	// WorkerCount is the number of active workers, maintained through
	// IncrementWorkerCount/DecrementWorkerCount.
	WorkerCount int `json:"worker_count"`
}

// IsValid checks that the task has all required fields populated.
func (t *Task) IsValid() error {
	if t.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if t.Index < 0 {
		return fmt.Errorf("index must be non-negative, got %d", t.Index)
	}
	if t.Total <= 0 {
		return fmt.Errorf("total must be positive, got %d", t.Total)
	}
	if t.Index >= t.Total {
		return fmt.Errorf("index %d is out of bounds for total %d", t.Index, t.Total)
	}
	if t.Sample.ID == "" {
		return fmt.Errorf("sample id is required")
	}
	if t.SubmittedAt <= 0 {
		return fmt.Errorf("submitted_at must be positive, got %d", t.SubmittedAt)
	}
	return nil
}

// Age returns the duration since the task was submitted, for detecting stale
// tasks and measuring queue wait time.
func (t *Task) Age() time.Duration {
	if t.SubmittedAt <= 0 {
		return 0
	}
	now := time.Now().UnixMilli()
	return time.Duration(now-t.SubmittedAt) * time.Millisecond
}

// HasError reports whether the worker failed before producing a record.
func (r *TaskResult) HasError() bool {
	return r.Error != ""
}

// Duration returns the wall-clock time the worker spent on the task.
func (r *TaskResult) Duration() time.Duration {
	if r.StartedAt <= 0 || r.CompletedAt <= 0 {
		return 0
	}
	return time.Duration(r.CompletedAt-r.StartedAt) * time.Millisecond
}

// IsValid checks that the result has all required fields populated.
func (r *TaskResult) IsValid() error {
	if r.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if r.Index < 0 {
		return fmt.Errorf("index must be non-negative, got %d", r.Index)
	}
	if r.WorkerID == "" {
		return fmt.Errorf("worker_id is required")
	}
	if r.StartedAt <= 0 {
		return fmt.Errorf("started_at must be positive, got %d", r.StartedAt)
	}
	if r.CompletedAt <= 0 {
		return fmt.Errorf("completed_at must be positive, got %d", r.CompletedAt)
	}
	if r.CompletedAt < r.StartedAt {
		return fmt.Errorf("completed_at (%d) cannot be before started_at (%d)", r.CompletedAt, r.StartedAt)
	}
	if !r.HasError() && r.Record.SampleID == "" {
		return fmt.Errorf("record is required when error is empty")
	}
	return nil
}

// IsValid checks that the run metadata has all required fields populated.
func (m *RunMeta) IsValid() error {
	if m.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if m.EvalSet == "" {
		return fmt.Errorf("eval_set is required")
	}
	if m.SampleCount <= 0 {
		return fmt.Errorf("sample_count must be positive, got %d", m.SampleCount)
	}
	if m.WorkerCount < 0 {
		return fmt.Errorf("worker_count must be non-negative, got %d", m.WorkerCount)
	}
	return nil
}
