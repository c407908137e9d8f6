package semcache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldVector    = "vector"
	fieldQuestion  = "question"
	fieldAnswer    = "answer"
	fieldCreatedAt = "created_at"
	scoreAlias     = "score"
)

// RedisIndex stores entries as HASHes under a per-index prefix and searches them
// through a RediSearch HNSW vector field. The client must speak RESP2.
type RedisIndex struct {
	rdb        redis.UniversalClient
	name       string
	dimensions int
	ttl        time.Duration
}

func NewRedisIndex(rdb redis.UniversalClient, name string, dimensions int, ttl time.Duration) *RedisIndex {
	return &RedisIndex{
		rdb:        rdb,
		name:       name,
		dimensions: dimensions,
		ttl:        ttl,
	}
}

func (r *RedisIndex) keyPrefix() string {
	return fmt.Sprintf("semcache:%s:", r.name)
}

func (r *RedisIndex) createArgs() []interface{} {
	return []interface{}{
		"FT.CREATE", r.name,
		"ON", "HASH",
		"PREFIX", "1", r.keyPrefix(),
		"SCHEMA",
		fieldQuestion, "TEXT",
		fieldCreatedAt, "NUMERIC",
		fieldVector, "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(r.dimensions),
		"DISTANCE_METRIC", "COSINE",
	}
}

func (r *RedisIndex) EnsureIndex(ctx context.Context) error {
	if err := r.rdb.Do(ctx, r.createArgs()...).Err(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.name, err)
	}
	return nil
}

func (r *RedisIndex) Nearest(ctx context.Context, vector []float32) (*Match, error) {
	if len(vector) != r.dimensions {
		return nil, fmt.Errorf("vector has %d dimensions, index expects %d", len(vector), r.dimensions)
	}

	args := []interface{}{
		"FT.SEARCH", r.name,
		fmt.Sprintf("*=>[KNN 1 @%s $BLOB AS %s]", fieldVector, scoreAlias),
		"SORTBY", scoreAlias,
		"RETURN", "3", fieldQuestion, fieldAnswer, scoreAlias,
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	}

	raw, err := r.rdb.Do(ctx, args...).Slice()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return nil, fmt.Errorf("%w: %v", ErrIndexMissing, err)
		}
		return nil, fmt.Errorf("search %s: %w", r.name, err)
	}

	return parseKNNReply(raw, r.keyPrefix())
}

func (r *RedisIndex) Insert(ctx context.Context, entry Entry) error {
	if len(entry.Vector) != r.dimensions {
		return fmt.Errorf("vector has %d dimensions, index expects %d", len(entry.Vector), r.dimensions)
	}

	key := r.keyPrefix() + entry.ID
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldVector, vectorToBytes(entry.Vector),
			fieldQuestion, entry.Question,
			fieldAnswer, entry.Answer,
			fieldCreatedAt, createdAt.Unix(),
		)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert %s: %w", key, err)
	}
	return nil
}

// parseKNNReply reads a RESP2 FT.SEARCH reply: [total, key1, [f1, v1, ...], key2, ...].
func parseKNNReply(raw []interface{}, keyPrefix string) (*Match, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, ok := raw[0].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected FT.SEARCH total: %T", raw[0])
	}
	if total == 0 || len(raw) < 3 {
		return nil, nil
	}

	key, ok := raw[1].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected FT.SEARCH key: %T", raw[1])
	}
	fields, ok := raw[2].([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected FT.SEARCH fields: %T", raw[2])
	}

	values := make(map[string]string, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		name, _ := fields[i].(string)
		value, _ := fields[i+1].(string)
		values[name] = value
	}

	distance, err := strconv.ParseFloat(values[scoreAlias], 64)
	if err != nil {
		return nil, fmt.Errorf("parse score %q: %w", values[scoreAlias], err)
	}

	return &Match{
		ID:         strings.TrimPrefix(key, keyPrefix),
		Similarity: 1 - distance, // cosine distance to similarity
		Question:   values[fieldQuestion],
		Answer:     values[fieldAnswer],
	}, nil
}

// vectorToBytes encodes float32 little-endian, the layout RediSearch expects for FLOAT32 fields.
func vectorToBytes(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func isRedisErr(err error, substr string) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), substr)
}
