package semcache

import (
	"context"
	"errors"
	"time"
)

// ErrIndexMissing means the backend lost the index (flush, failover) and it must be re-provisioned.
var ErrIndexMissing = errors.New("semantic cache index missing")

// Entry is one cached question/answer pair. Entries are never updated in place.
type Entry struct {
	ID        string
	Vector    []float32
	Question  string
	Answer    string
	CreatedAt time.Time
}

// Match is the nearest cached entry and its cosine similarity to the probe vector.
type Match struct {
	ID         string
	Similarity float64
	Question   string
	Answer     string
}

// Index is the similarity-search backend behind the cache.
type Index interface {
	// EnsureIndex creates the index when absent; an existing index is not an error.
	EnsureIndex(ctx context.Context) error
	// Nearest returns the single closest entry, or nil when the index is empty.
	Nearest(ctx context.Context, vector []float32) (*Match, error)
	Insert(ctx context.Context, entry Entry) error
}
