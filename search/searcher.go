package search

import (
	"container/heap"
	"context"
	"iter"

	"github.com/poiesic/coursesearch/core"
	"github.com/poiesic/coursesearch/filter"
	"github.com/poiesic/coursesearch/vector"
)

// Source is the read-only view of a catalog the Searcher ranks over.
type Source interface {
	// All yields every record with its corpus position, in corpus order.
	All() iter.Seq2[int, core.VectorRecord]
	Count() int
	Dim() int
}

// CandidateSource is a Source that can narrow candidates for a predicate.
// Candidates reports false when it cannot serve the predicate.
type CandidateSource interface {
	Source
	Candidates(p filter.Predicate) (iter.Seq2[int, core.VectorRecord], bool)
}

// Searcher ranks records from a Source by cosine similarity to a query vector.
type Searcher struct {
	fullScan bool
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithFullScan disables candidate narrowing and always scans every record.
func WithFullScan() Option {
	return func(s *Searcher) error {
		s.fullScan = true
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(opts ...Option) (*Searcher, error) {
	s := &Searcher{}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to k records from src ranked by similarity to query.
// Records rejected by predicate are skipped; a nil predicate matches everything.
//
// Errors: core.ErrInvalidArgument when k <= 0, core.ErrDimensionMismatch when
// the query length differs from the source dimension. An empty or nil source
// yields an empty result.
func (s *Searcher) Search(ctx context.Context, src Source, query []float32, k int, predicate filter.Predicate) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, src, query, k, predicate, nil)
}

// SearchWithMonitor is Search with stage callbacks delivered to monitor.
func (s *Searcher) SearchWithMonitor(ctx context.Context, src Source, query []float32, k int, predicate filter.Predicate, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := core.ValidateK(k); err != nil {
		return nil, err
	}

	predicate = filter.OrAlways(predicate)
	monitor.Start(k, predicate)

	if src == nil || src.Count() == 0 {
		results := []*core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}
	if err := core.CheckDimension(src.Dim(), len(query)); err != nil {
		return nil, err
	}

	// 1. Pick candidates
	candidates, indexed := s.candidates(src, predicate)
	monitor.AfterCandidateSelection(indexed)

	// 2-4. Filter, score and keep the best k
	top := make(topK, 0, min(k, src.Count()))
	scanned, survivors := 0, 0
	for pos, record := range candidates {
		scanned++
		if !predicate.Matches(record.Metadata) {
			continue
		}
		survivors++

		score, err := vector.Cosine(query, record.Vector)
		if err != nil {
			return nil, err
		}
		top.offer(k, hit{pos: pos, score: score, record: record})
	}
	monitor.AfterFiltering(scanned, survivors)

	// 5-6. Emit in rank order
	hits := top.ranked()
	results := make([]*core.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = &core.SearchResult{
			Id:          h.record.Id,
			Subject:     h.record.Metadata.String(core.FieldSubject),
			Title:       h.record.Metadata.String(core.FieldTitle),
			Description: h.record.Description(),
			Score:       h.score,
		}
	}
	monitor.Finish(results)

	return results, nil
}

func (s *Searcher) candidates(src Source, predicate filter.Predicate) (iter.Seq2[int, core.VectorRecord], bool) {
	if !s.fullScan {
		if cs, ok := src.(CandidateSource); ok {
			if seq, ok := cs.Candidates(predicate); ok {
				return seq, true
			}
		}
	}
	return src.All(), false
}

// hit is a scored candidate with its corpus position.
type hit struct {
	pos    int
	score  float64
	record core.VectorRecord
}

// better reports whether a ranks ahead of b: higher score first, then
// lower corpus position.
func (a hit) better(b hit) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.pos < b.pos
}

// topK is a bounded min-heap whose root is the worst kept hit.
type topK []hit

func (h topK) Len() int           { return len(h) }
func (h topK) Less(i, j int) bool { return h[j].better(h[i]) }
func (h topK) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *topK) Push(x any) {
	*h = append(*h, x.(hit))
}

func (h *topK) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// offer keeps c if it ranks among the best k seen so far.
func (h *topK) offer(k int, c hit) {
	if h.Len() < k {
		heap.Push(h, c)
		return
	}
	if c.better((*h)[0]) {
		(*h)[0] = c
		heap.Fix(h, 0)
	}
}

// ranked drains the heap into best-first order.
func (h *topK) ranked() []hit {
	out := make([]hit, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(hit)
	}
	return out
}
