package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/coursesearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func sampleCourses() []core.Course {
	return []core.Course{
		{Subject: "CS", Title: "Intro", Description: "Learn basics"},
		{Subject: "CS", Title: "Systems", Description: "Operating systems"},
		{Subject: "MATH", Title: "Calculus", Description: "Limits and derivatives"},
	}
}

func TestOpen_HappyPath(t *testing.T) {
	dir := t.TempDir()
	coursesPath := filepath.Join(dir, "fa24.json")
	embeddingsPath := filepath.Join(dir, "embeddings", "embeddings.json")

	writeJSON(t, coursesPath, sampleCourses())
	require.NoError(t, WriteEmbeddings(embeddingsPath, map[int][]float32{
		0: {1, 0},
		1: {0, 1},
		2: {-1, 0},
	}))

	store, err := Open(coursesPath, embeddingsPath)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Count())
	assert.Equal(t, 2, store.Dim())

	r := store.At(0)
	assert.Equal(t, core.ID(0), r.Id)
	assert.Equal(t, "CS: Intro - Learn basics", r.Text)
	assert.Equal(t, "CS", r.Metadata.String(core.FieldSubject))
	assert.Equal(t, "Intro", r.Metadata.String(core.FieldTitle))
	assert.Equal(t, []float32{1, 0}, r.Vector)
}

func TestLoadEmbeddings_OriginalFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"0": [0.1, 0.2], "1": [0.3, 0.4]}`), 0o644))

	embeddings, err := LoadEmbeddings(path)
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.InDeltaSlice(t, []float32{0.1, 0.2}, embeddings[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0.3, 0.4}, embeddings[1], 1e-6)
}

func TestLoadEmbeddings_InvalidKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"first": [0.1, 0.2]}`), 0o644))

	_, err := LoadEmbeddings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
}

func TestLoadCourses_MissingFile(t *testing.T) {
	_, err := LoadCourses(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCourses_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fa24.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := LoadCourses(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid courses JSON")
}

func TestAssemble_MissingEmbedding(t *testing.T) {
	_, err := Assemble(sampleCourses(), map[int][]float32{0: {1, 0}, 1: {0, 1}})
	assert.ErrorIs(t, err, core.ErrMissingEmbedding)
}

func TestAssemble_InvalidCourse(t *testing.T) {
	courses := []core.Course{{Subject: "", Title: "Untitled"}}
	_, err := Assemble(courses, map[int][]float32{0: {1, 0}})
	assert.ErrorIs(t, err, core.ErrInvalidCourse)
}

func TestOpen_EmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	coursesPath := filepath.Join(dir, "fa24.json")
	embeddingsPath := filepath.Join(dir, "embeddings.json")
	writeJSON(t, coursesPath, []core.Course{})
	writeJSON(t, embeddingsPath, map[string][]float32{})

	_, err := Open(coursesPath, embeddingsPath)
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)
}

func TestWriteEmbeddings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "embeddings.json")
	in := map[int][]float32{0: {0.5, -0.5}, 10: {1, 2}}

	require.NoError(t, WriteEmbeddings(path, in))
	out, err := LoadEmbeddings(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
}
