package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Logger persists result records as a run progresses.
type Logger interface {
	// Log writes one record.
	Log(rec ResultRecord) error

	// Close flushes buffered data and releases resources.
	Close() error
}

// JSONLLogger writes one JSON object per line, one line per record. It is
// safe for concurrent use by the runner's workers.
type JSONLLogger struct {
	file *os.File
	mu   sync.Mutex
}

// NewJSONLLogger opens path in append mode, creating it if needed.
func NewJSONLLogger(path string) (*JSONLLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &JSONLLogger{file: file}, nil
}

// Log writes the record as a single JSON line and flushes it.
func (l *JSONLLogger) Log(rec ResultRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log entry: %w", err)
	}
	return l.file.Sync()
}

// Close flushes and closes the underlying file.
func (l *JSONLLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("flush log file: %w", err)
	}
	return l.file.Close()
}
