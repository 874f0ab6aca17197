package answers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/textmatch"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisKey is the list key holding the answer cache.
const DefaultRedisKey = "apply-agent:answers"

// RedisStore keeps the cache as a Redis list of JSON records, one element per record.
// RPUSH appends a single element, so a failed append never touches earlier records.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisStore creates a RedisStore on key.
func NewRedisStore(client *redis.Client, key string, logger *zap.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, logger: logging.OrNop(logger)}
}

// Load returns all records. Elements that do not decode are skipped.
func (s *RedisStore) Load(ctx context.Context) ([]types.QuestionRecord, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return []types.QuestionRecord{}, &StoreError{Message: fmt.Sprintf("failed to read %s", s.key), Cause: err}
	}

	records := make([]types.QuestionRecord, 0, len(raw))
	for i, item := range raw {
		var record types.QuestionRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			s.logger.Warn("skipping malformed cached answer", zap.String("key", s.key), zap.Int("index", i), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Append pushes one normalized record onto the list.
func (s *RedisStore) Append(ctx context.Context, record types.QuestionRecord) error {
	record.Question = textmatch.Normalize(record.Question)
	data, err := json.Marshal(record)
	if err != nil {
		return &StoreError{Message: "failed to marshal answer", Cause: err}
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return &StoreError{Message: fmt.Sprintf("failed to append to %s", s.key), Cause: err}
	}
	return nil
}
