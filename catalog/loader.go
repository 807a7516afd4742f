package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/poiesic/coursesearch/core"
)

// LoadCourses reads a JSON array of courses from path.
func LoadCourses(path string) ([]core.Course, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read courses file %s: %w", path, err)
	}
	var courses []core.Course
	if err := json.Unmarshal(b, &courses); err != nil {
		return nil, fmt.Errorf("invalid courses JSON %s: %w", path, err)
	}
	return courses, nil
}

// LoadEmbeddings reads precomputed embeddings from path.
// The file is a JSON object keyed by the decimal catalog position:
// {"0": [...], "1": [...]}.
func LoadEmbeddings(path string) (map[int][]float32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read embeddings file %s: %w", path, err)
	}
	var raw map[string][]float32
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("invalid embeddings JSON %s: %w", path, err)
	}

	out := make(map[int][]float32, len(raw))
	for key, vec := range raw {
		pos, err := strconv.Atoi(key)
		if err != nil || pos < 0 {
			return nil, fmt.Errorf("invalid embeddings key %q in %s", key, path)
		}
		out[pos] = vec
	}
	return out, nil
}

// WriteEmbeddings writes embeddings in the format LoadEmbeddings reads.
// The file is written to a temporary sibling and renamed into place.
func WriteEmbeddings(path string, embeddings map[int][]float32) error {
	raw := make(map[string][]float32, len(embeddings))
	for pos, vec := range embeddings {
		raw[strconv.Itoa(pos)] = vec
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create embeddings dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("cannot write embeddings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("cannot write embeddings: %w", err)
	}
	return nil
}

// Assemble pairs each course with the embedding stored under its position.
// Record IDs are the catalog positions.
func Assemble(courses []core.Course, embeddings map[int][]float32) ([]core.VectorRecord, error) {
	records := make([]core.VectorRecord, len(courses))
	for i := range courses {
		c := &courses[i]
		if err := core.ValidateCourse(c); err != nil {
			return nil, fmt.Errorf("course %d: %w", i, err)
		}
		vec, ok := embeddings[i]
		if !ok {
			return nil, fmt.Errorf("%w: course %d (%s: %s)", core.ErrMissingEmbedding, i, c.Subject, c.Title)
		}
		records[i] = core.VectorRecord{
			Id:       core.ID(i),
			Vector:   vec,
			Metadata: c.Metadata(),
			Text:     c.DocumentText(),
		}
	}
	return records, nil
}

// Open loads the courses and embeddings files and builds a Store.
func Open(coursesPath, embeddingsPath string) (*Store, error) {
	courses, err := LoadCourses(coursesPath)
	if err != nil {
		return nil, err
	}
	embeddings, err := LoadEmbeddings(embeddingsPath)
	if err != nil {
		return nil, err
	}
	records, err := Assemble(courses, embeddings)
	if err != nil {
		return nil, err
	}
	return Build(records)
}
