package catalog

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/poiesic/coursesearch/core"
	"github.com/poiesic/coursesearch/filter"
)

// Store holds the immutable catalog of vector records for the process lifetime.
//
// A Store is safe for concurrent readers: nothing mutates it after Build.
// Rebuilding means calling Build again and swapping a Holder.
type Store struct {
	records []core.VectorRecord
	dim     int

	// postings maps field -> string value -> record positions.
	postings map[string]map[string]*roaring.Bitmap
}

// Build validates records and returns a Store that owns copies of them.
// Fails with core.ErrEmptyCorpus on zero records, core.ErrInconsistentDimension
// when vector lengths differ (or are zero) and core.ErrDuplicateID on repeated IDs.
func Build(records []core.VectorRecord) (*Store, error) {
	if len(records) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	dim := len(records[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("%w: record %d has an empty vector", core.ErrInconsistentDimension, records[0].Id)
	}

	seen := make(map[core.ID]struct{}, len(records))
	owned := make([]core.VectorRecord, len(records))
	postings := make(map[string]map[string]*roaring.Bitmap)

	for i, r := range records {
		if len(r.Vector) != dim {
			return nil, fmt.Errorf("%w: record %d has %d components, expected %d",
				core.ErrInconsistentDimension, r.Id, len(r.Vector), dim)
		}
		if _, dup := seen[r.Id]; dup {
			return nil, fmt.Errorf("%w: %d", core.ErrDuplicateID, r.Id)
		}
		seen[r.Id] = struct{}{}

		owned[i] = core.VectorRecord{
			Id:       r.Id,
			Vector:   slices.Clone(r.Vector),
			Metadata: maps.Clone(r.Metadata),
			Text:     r.Text,
		}

		for field, v := range r.Metadata {
			if v.Kind != core.KindString {
				continue
			}
			byValue, ok := postings[field]
			if !ok {
				byValue = make(map[string]*roaring.Bitmap)
				postings[field] = byValue
			}
			bm, ok := byValue[v.Str]
			if !ok {
				bm = roaring.New()
				byValue[v.Str] = bm
			}
			bm.Add(uint32(i))
		}
	}

	for _, byValue := range postings {
		for _, bm := range byValue {
			bm.RunOptimize()
		}
	}

	return &Store{
		records:  owned,
		dim:      dim,
		postings: postings,
	}, nil
}

// All yields every record with its position, in insertion order.
// Yielded records share backing arrays with the store and must not be modified.
func (s *Store) All() iter.Seq2[int, core.VectorRecord] {
	return func(yield func(int, core.VectorRecord) bool) {
		if s == nil {
			return
		}
		for i, r := range s.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Count returns the number of records.
func (s *Store) Count() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Dim returns the vector length shared by every record.
func (s *Store) Dim() int {
	if s == nil {
		return 0
	}
	return s.dim
}

// At returns the record at position pos.
func (s *Store) At(pos int) core.VectorRecord {
	return s.records[pos]
}

// Candidates narrows the records that can satisfy p using the metadata
// postings. It reports false when p cannot be served from postings, in which
// case the caller should scan All. Candidates are yielded in insertion order
// and still have to be checked against p.
func (s *Store) Candidates(p filter.Predicate) (iter.Seq2[int, core.VectorRecord], bool) {
	if s == nil {
		return nil, false
	}

	bm, ok := s.lookup(p)
	if !ok {
		return nil, false
	}

	return func(yield func(int, core.VectorRecord) bool) {
		it := bm.Iterator()
		for it.HasNext() {
			pos := int(it.Next())
			if !yield(pos, s.records[pos]) {
				return
			}
		}
	}, true
}

// lookup resolves p to a bitmap of candidate positions.
// The returned bitmap may be shared with the store and must not be modified.
func (s *Store) lookup(p filter.Predicate) (*roaring.Bitmap, bool) {
	switch p := p.(type) {
	case filter.Equals:
		if p.Value.Kind != core.KindString {
			return nil, false
		}
		if bm, ok := s.postings[p.Field][p.Value.Str]; ok {
			return bm, true
		}
		// No record carries this value
		return roaring.New(), true
	case filter.And:
		var acc *roaring.Bitmap
		for _, child := range p {
			bm, ok := s.lookup(child)
			if !ok {
				continue
			}
			if acc == nil {
				acc = bm.Clone()
			} else {
				acc.And(bm)
			}
		}
		if acc == nil {
			return nil, false
		}
		return acc, true
	default:
		return nil, false
	}
}

// Postings returns the number of distinct string values indexed for field.
func (s *Store) Postings(field string) int {
	if s == nil {
		return 0
	}
	return len(s.postings[field])
}
