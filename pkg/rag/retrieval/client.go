package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hoanghaiduong/gym-food-rag/internal/metrics"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/logger"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/contract"
	"github.com/hoanghaiduong/gym-food-rag/pkg/embedding"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/fusion"

	"golang.org/x/sync/errgroup"
)

const DefaultCandidateLimit = 100

var ErrAllSourcesFailed = errors.New("dense and sparse retrieval both failed")

// Index is the read side of the knowledge store.
type Index interface {
	SearchDense(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredKnowledgeItem, error)
	SearchSparse(ctx context.Context, weights map[int32]float32, limit int) ([]*contract.ScoredKnowledgeItem, error)
}

// Result holds both ranked lists. A failed source leaves its list empty and its error set.
type Result struct {
	Dense     []fusion.CandidateHit
	Sparse    []fusion.CandidateHit
	DenseErr  error
	SparseErr error
}

func (r *Result) Outcome() string {
	switch {
	case r.DenseErr == nil && r.SparseErr == nil:
		return "both"
	case r.DenseErr == nil:
		return "dense_only"
	case r.SparseErr == nil:
		return "sparse_only"
	default:
		return "failed"
	}
}

type Client struct {
	index          Index
	sparseEmbedder embedding.SparseEmbedder
	candidateLimit int
	logger         logger.ILogger
}

func NewClient(index Index, sparseEmbedder embedding.SparseEmbedder, candidateLimit int, logger logger.ILogger) *Client {
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	return &Client{
		index:          index,
		sparseEmbedder: sparseEmbedder,
		candidateLimit: candidateLimit,
		logger:         logger,
	}
}

// observeDuration covers failed attempts too, embedding included.
func observeDuration(source string, start time.Time) {
	metrics.RetrievalDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// Retrieve runs the dense and the sparse query concurrently. One failing source
// never cancels the other; an error is returned only when both fail.
func (c *Client) Retrieve(ctx context.Context, question string, denseVector []float32) (*Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	res := &Result{}

	g.Go(func() error {
		defer observeDuration("dense", time.Now())
		hits, err := c.index.SearchDense(gctx, denseVector, c.candidateLimit)
		if err != nil {
			res.DenseErr = fmt.Errorf("dense search: %w", err)
			return nil // Don't fail the group
		}
		res.Dense = toCandidates(hits)
		return nil
	})

	g.Go(func() error {
		defer observeDuration("sparse", time.Now())
		weights, err := c.sparseEmbedder.EmbedSparse(gctx, question)
		if err != nil {
			res.SparseErr = fmt.Errorf("sparse embedding: %w", err)
			return nil
		}
		hits, err := c.index.SearchSparse(gctx, weights, c.candidateLimit)
		if err != nil {
			res.SparseErr = fmt.Errorf("sparse search: %w", err)
			return nil
		}
		res.Sparse = toCandidates(hits)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcome := res.Outcome()
	metrics.RetrievalOutcomesTotal.WithLabelValues(outcome).Inc()

	switch outcome {
	case "failed":
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(res.DenseErr, res.SparseErr))
	case "dense_only":
		c.logger.Warn("RETRIEVAL", "Sparse source failed, continuing with dense only", map[string]interface{}{
			"error": res.SparseErr.Error(),
		})
	case "sparse_only":
		c.logger.Warn("RETRIEVAL", "Dense source failed, continuing with sparse only", map[string]interface{}{
			"error": res.DenseErr.Error(),
		})
	}

	c.logger.Debug("RETRIEVAL", "Candidates retrieved", map[string]interface{}{
		"dense":  len(res.Dense),
		"sparse": len(res.Sparse),
	})

	return res, nil
}

func toCandidates(hits []*contract.ScoredKnowledgeItem) []fusion.CandidateHit {
	candidates := make([]fusion.CandidateHit, 0, len(hits))
	for _, h := range hits {
		if h == nil || h.Item == nil {
			continue
		}
		candidates = append(candidates, fusion.CandidateHit{
			Item:  h.Item,
			Score: h.Score,
			Rank:  len(candidates) + 1,
		})
	}
	return candidates
}
