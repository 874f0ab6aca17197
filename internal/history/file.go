package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultPath is where FileRecorder writes when no path is configured.
const DefaultPath = "data_folder/history.jsonl"

// FileRecorder appends one JSON object per attempt to a file.
type FileRecorder struct {
	mu   sync.Mutex
	path string
}

// NewFileRecorder creates a FileRecorder writing to path, or DefaultPath when empty.
func NewFileRecorder(path string) *FileRecorder {
	if path == "" {
		path = DefaultPath
	}
	return &FileRecorder{path: path}
}

// Path returns the file being written.
func (r *FileRecorder) Path() string {
	return r.path
}

func (r *FileRecorder) Record(_ context.Context, attempt *Attempt) error {
	line, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	return f.Close()
}

// Load returns every recorded attempt in write order. A missing file is empty;
// lines that do not parse are skipped.
func (r *FileRecorder) Load(_ context.Context) ([]Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Attempt{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	attempts := []Attempt{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var a Attempt
		if err := json.Unmarshal(scanner.Bytes(), &a); err != nil {
			continue
		}
		attempts = append(attempts, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return attempts, nil
}
