package answers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/schemas"
	"github.com/jonathan/apply-agent/internal/textmatch"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// DefaultPath is where the answer cache lives unless configured otherwise.
const DefaultPath = "data_folder/answers.json"

// Store is the append-only answer cache. It is the single writer of QuestionRecords.
type Store interface {
	// Load returns every stored record in insertion order. Absent or malformed
	// data yields an empty slice, not an error.
	Load(ctx context.Context) ([]types.QuestionRecord, error)
	// Append normalizes the record's question and persists it after all existing records.
	Append(ctx context.Context, record types.QuestionRecord) error
}

// FileStore keeps the cache as a single indented JSON array on disk.
// Writes go to a temp file in the same directory which then replaces the target,
// so a crash mid-write leaves the previous document intact.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path, logger: logging.OrNop(logger)}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the cache document. Records that fail the schema are skipped
// individually; an unparseable or unreadable document yields an empty slice.
func (s *FileStore) Load(_ context.Context) ([]types.QuestionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if err != nil {
		s.logger.Warn("answer cache unreadable, starting empty", zap.String("path", s.path), zap.Error(err))
		return []types.QuestionRecord{}, nil
	}
	return doc.records, nil
}

// document is the on-disk cache as read. raw keeps every element, including
// ones that failed validation, so a rewrite never drops data it did not understand.
type document struct {
	raw       []json.RawMessage
	records   []types.QuestionRecord
	malformed bool
}

func (s *FileStore) readLocked() (document, error) {
	doc := document{records: []types.QuestionRecord{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc.raw); err != nil {
		s.logger.Warn("answer cache malformed, starting empty", zap.String("path", s.path), zap.Error(err))
		doc.raw = nil
		doc.malformed = true
		return doc, nil
	}

	for i, item := range doc.raw {
		if err := schemas.ValidateAnswerRecord(item); err != nil {
			s.logger.Warn("skipping invalid answer record", zap.String("path", s.path), zap.Int("index", i), zap.Error(err))
			continue
		}
		var record types.QuestionRecord
		if err := json.Unmarshal(item, &record); err != nil {
			s.logger.Warn("skipping invalid answer record", zap.String("path", s.path), zap.Int("index", i), zap.Error(err))
			continue
		}
		doc.records = append(doc.records, record)
	}
	return doc, nil
}

// Append adds record after every existing element and rewrites the document
// atomically. A document that cannot be parsed is moved aside before the
// rewrite, never overwritten.
func (s *FileStore) Append(_ context.Context, record types.QuestionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if err != nil {
		return &StoreError{Message: fmt.Sprintf("failed to read %s", s.path), Cause: err}
	}
	if doc.malformed {
		aside := fmt.Sprintf("%s.malformed-%d", s.path, time.Now().UnixNano())
		if err := os.Rename(s.path, aside); err != nil {
			return &StoreError{Message: fmt.Sprintf("failed to move malformed %s aside", s.path), Cause: err}
		}
		s.logger.Warn("moved malformed answer cache aside", zap.String("path", s.path), zap.String("moved_to", aside))
	}

	record.Question = textmatch.Normalize(record.Question)
	item, err := json.Marshal(record)
	if err != nil {
		return &StoreError{Message: "failed to marshal answer", Cause: err}
	}

	data, err := json.MarshalIndent(append(doc.raw, item), "", "    ")
	if err != nil {
		return &StoreError{Message: "failed to marshal answers", Cause: err}
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return &StoreError{Message: fmt.Sprintf("failed to write %s", s.path), Cause: err}
	}
	return nil
}

// writeFileAtomic writes data to a sibling temp file, syncs it, and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
