package semcache

import (
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorToBytes_LittleEndianFloat32(t *testing.T) {
	buf := vectorToBytes([]float32{1.5, -2})
	require.Len(t, buf, 8)
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])))
	assert.Equal(t, float32(-2), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])))
}

func TestCreateArgs(t *testing.T) {
	r := NewRedisIndex(nil, "gym_chat_cache", 1024, time.Hour)
	args := r.createArgs()

	assert.Equal(t, []interface{}{
		"FT.CREATE", "gym_chat_cache",
		"ON", "HASH",
		"PREFIX", "1", "semcache:gym_chat_cache:",
		"SCHEMA",
		"question", "TEXT",
		"created_at", "NUMERIC",
		"vector", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", "1024",
		"DISTANCE_METRIC", "COSINE",
	}, args)
}

func TestParseKNNReply(t *testing.T) {
	prefix := "semcache:gym_chat_cache:"

	t.Run("hit", func(t *testing.T) {
		raw := []interface{}{
			int64(1),
			prefix + "abc",
			[]interface{}{"question", "protein?", "answer", "Ức gà 31g", "score", "0.03"},
		}
		m, err := parseKNNReply(raw, prefix)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "abc", m.ID)
		assert.InDelta(t, 0.97, m.Similarity, 1e-9)
		assert.Equal(t, "Ức gà 31g", m.Answer)
	})

	t.Run("empty index", func(t *testing.T) {
		m, err := parseKNNReply([]interface{}{int64(0)}, prefix)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("no reply", func(t *testing.T) {
		m, err := parseKNNReply(nil, prefix)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("bad score", func(t *testing.T) {
		raw := []interface{}{int64(1), prefix + "abc", []interface{}{"score", "nan?"}}
		_, err := parseKNNReply(raw, prefix)
		assert.Error(t, err)
	})

	t.Run("malformed total", func(t *testing.T) {
		_, err := parseKNNReply([]interface{}{"1"}, prefix)
		assert.Error(t, err)
	})
}

func TestIsRedisErr(t *testing.T) {
	assert.True(t, isRedisErr(assertErr("Index already exists"), "index already exists"))
	assert.False(t, isRedisErr(nil, "index already exists"))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestRedisIndex_RejectsWrongDimensions(t *testing.T) {
	// No client: the guard must fire before any Redis round trip.
	r := NewRedisIndex(nil, "gym_chat_cache", 3, time.Hour)

	err := r.Insert(context.Background(), Entry{ID: "x", Vector: []float32{1, 0}, Question: "q", Answer: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index expects 3")

	_, err = r.Nearest(context.Background(), []float32{1, 0, 0, 0})
	require.Error(t, err)
}
