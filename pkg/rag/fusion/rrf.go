package fusion

import (
	"sort"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
)

// DefaultRRFConstant is the standard Reciprocal Rank Fusion constant (Cormack et al. 2009).
const DefaultRRFConstant = 60

// CandidateHit is one entry of a single source's ranked list. Rank is 1-indexed.
// Scores from different sources are not comparable and are ignored by the merge.
type CandidateHit struct {
	Item  *entity.KnowledgeItem
	Score float64
	Rank  int
}

func (h CandidateHit) ID() string {
	return h.Item.Id.String()
}

// FusedResult is one distinct item after fusion. A zero rank means the item
// was absent from that source.
type FusedResult struct {
	Item       *entity.KnowledgeItem
	Score      float64
	DenseRank  int
	SparseRank int
}

func (r FusedResult) ID() string {
	return r.Item.Id.String()
}

type Engine struct {
	c int
}

// NewEngine builds an RRF merger. c <= 0 falls back to DefaultRRFConstant.
func NewEngine(c int) *Engine {
	if c <= 0 {
		c = DefaultRRFConstant
	}
	return &Engine{c: c}
}

func (e *Engine) Constant() int {
	return e.c
}

// Merge fuses the dense and sparse rankings.
// score(d) = sum of 1/(c + rank_i(d)) over every list containing d.
// k <= 0 or k larger than the number of distinct items returns all of them.
func (e *Engine) Merge(dense, sparse []CandidateHit, k int) []FusedResult {
	merged := make(map[string]*FusedResult, len(dense)+len(sparse))
	order := make([]string, 0, len(dense)+len(sparse))

	getOrCreate := func(hit CandidateHit) *FusedResult {
		id := hit.ID()
		if r, ok := merged[id]; ok {
			return r
		}
		r := &FusedResult{Item: hit.Item}
		merged[id] = r
		order = append(order, id)
		return r
	}

	for i, hit := range dense {
		if hit.Item == nil {
			continue
		}
		rank := normalizeRank(hit.Rank, i)
		r := getOrCreate(hit)
		// Duplicates inside one list keep their first (best) rank
		if r.DenseRank != 0 {
			continue
		}
		r.DenseRank = rank
		r.Score += 1.0 / float64(e.c+rank)
	}

	for i, hit := range sparse {
		if hit.Item == nil {
			continue
		}
		rank := normalizeRank(hit.Rank, i)
		r := getOrCreate(hit)
		if r.SparseRank != 0 {
			continue
		}
		r.SparseRank = rank
		r.Score += 1.0 / float64(e.c+rank)
	}

	results := make([]FusedResult, 0, len(order))
	for _, id := range order {
		results = append(results, *merged[id])
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DenseRank != b.DenseRank {
			return rankBefore(a.DenseRank, b.DenseRank)
		}
		if a.SparseRank != b.SparseRank {
			return rankBefore(a.SparseRank, b.SparseRank)
		}
		return a.ID() < b.ID()
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}

	return results
}

// normalizeRank trusts an explicit rank and otherwise uses list position.
func normalizeRank(rank, index int) int {
	if rank > 0 {
		return rank
	}
	return index + 1
}

// rankBefore reports whether rank a beats rank b; 0 (absent) loses to any present rank.
func rankBefore(a, b int) bool {
	if a == 0 {
		return false
	}
	if b == 0 {
		return true
	}
	return a < b
}
