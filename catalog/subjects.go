package catalog

import (
	"maps"
	"slices"

	"github.com/poiesic/coursesearch/core"
)

// DistinctSubjects returns the subject codes present in s, deduplicated and in
// ascending lexicographic order. A nil store yields an empty slice.
func DistinctSubjects(s *Store) []string {
	set := make(map[string]struct{})
	for _, r := range s.All() {
		if v, ok := r.Metadata.Get(core.FieldSubject); ok && v.Kind == core.KindString {
			set[v.Str] = struct{}{}
		}
	}
	subjects := slices.Sorted(maps.Keys(set))
	if subjects == nil {
		return []string{}
	}
	return subjects
}
