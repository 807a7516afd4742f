package precompute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/coursesearch/ai/mock"
	"github.com/poiesic/coursesearch/catalog"
	"github.com/poiesic/coursesearch/core"
	"github.com/poiesic/coursesearch/storage"
	"github.com/poiesic/coursesearch/storage/badger"
	"github.com/poiesic/coursesearch/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Model = "test-model"
	cfg.BatchSize = 3
	cfg.PoolSize = 2
	cfg.RetryDelay = time.Millisecond
	cfg.ReportInterval = 1
	return cfg
}

func testCourses(n int) []core.Course {
	subjects := []string{"CS", "MATH", "PHYS"}
	courses := make([]core.Course, n)
	for i := range courses {
		courses[i] = core.Course{
			Subject:     subjects[i%len(subjects)],
			Title:       fmt.Sprintf("Course %d", i),
			Description: fmt.Sprintf("Description of course %d", i),
		}
	}
	return courses
}

func newTestPipeline(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithConfig(testConfig())}, opts...)
	p, err := NewPipeline(embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func newTestCache(t *testing.T) storage.EmbeddingCache {
	t.Helper()
	cache, err := badger.NewMemoryCache()
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestNewPipeline(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		p, err := NewPipeline(mock.NewMockEmbedder())
		require.NoError(t, err)
		defer p.Release()
		assert.NotNil(t, p)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BatchSize = 0
		_, err := NewPipeline(mock.NewMockEmbedder(), WithConfig(cfg))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewPipeline(mock.NewMockEmbedder(), WithConfig(nil))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestPipelineRun_EmbedsEveryCourse(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDim(8)
	var progress bytes.Buffer
	p := newTestPipeline(t, embedder, WithProgress(&progress))
	courses := testCourses(10)

	result, err := p.Run(context.Background(), courses)
	require.NoError(t, err)

	assert.Len(t, result.Embeddings, 10)
	assert.Equal(t, 10, result.Embedded)
	assert.Zero(t, result.Cached)
	assert.Equal(t, 8, result.Dim)
	for i, c := range courses {
		assert.Equal(t, mock.Vector(c.DocumentText(), 8), result.Embeddings[i], "course %d", i)
	}

	// 10 courses in batches of 3
	assert.Equal(t, 4, embedder.CallCount())
	assert.Equal(t, 10, embedder.TextCount())
	assert.Contains(t, progress.String(), "10/10")
}

func TestPipelineRun_ReusesCache(t *testing.T) {
	cache := newTestCache(t)
	embedder := mock.NewMockEmbedderWithDim(4)
	p := newTestPipeline(t, embedder, WithCache(cache))
	ctx := context.Background()
	courses := testCourses(7)

	first, err := p.Run(ctx, courses)
	require.NoError(t, err)
	assert.Equal(t, 7, first.Embedded)

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	// Change one description; only that course is embedded again
	courses[2].Description = "Rewritten"
	embedder.Reset()

	second, err := p.Run(ctx, courses)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Embedded)
	assert.Equal(t, 6, second.Cached)
	assert.Equal(t, 1, embedder.TextCount())
	assert.Equal(t, first.Embeddings[0], second.Embeddings[0])
	assert.NotEqual(t, first.Embeddings[2], second.Embeddings[2])
}

func TestPipelineRun_CacheKeyedByModel(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	courses := testCourses(3)

	_, err := newTestPipeline(t, mock.NewMockEmbedderWithDim(4), WithCache(cache)).Run(ctx, courses)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Model = "other-model"
	embedder := mock.NewMockEmbedderWithDim(4)
	result, err := newTestPipeline(t, embedder, WithConfig(cfg), WithCache(cache)).Run(ctx, courses)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Embedded)
	assert.Equal(t, 3, embedder.TextCount())
}

func TestPipelineRun_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedderWithDim(4)
	embedder.WithEmbedTextsFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("503 service unavailable")
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.Vector(text, 4)
		}
		return out, nil
	})

	cfg := testConfig()
	cfg.BatchSize = 10
	result, err := newTestPipeline(t, embedder, WithConfig(cfg)).Run(context.Background(), testCourses(5))
	require.NoError(t, err)
	assert.Len(t, result.Embeddings, 5)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPipelineRun_RetryLogsBatch(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedderWithDim(4)
	embedder.WithEmbedTextsFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("503 service unavailable")
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.Vector(text, 4)
		}
		return out, nil
	})

	var buf bytes.Buffer
	cfg := testConfig()
	cfg.BatchSize = 10
	p := newTestPipeline(t, embedder, WithConfig(cfg), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	_, err := p.Run(context.Background(), testCourses(5))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "batch failed, retrying")
	assert.Contains(t, out, "first_course=0")
	assert.Contains(t, out, "batch_size=5")
}

func TestPipelineRun_PersistentFailure(t *testing.T) {
	boom := errors.New("model not found")
	embedder := mock.NewMockEmbedderWithDim(4).
		WithEmbedTextsFunc(func(context.Context, []string) ([][]float32, error) { return nil, boom })

	_, err := newTestPipeline(t, embedder).Run(context.Background(), testCourses(5))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestPipelineRun_CountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDim(4).
		WithEmbedTextsFunc(func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{1, 0, 0, 0}}, nil
		})

	_, err := newTestPipeline(t, embedder).Run(context.Background(), testCourses(3))
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
	assert.Equal(t, 1, embedder.CallCount(), "short answers are not retried")
}

func TestPipelineRun_InconsistentDimension(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDim(4).
		WithEmbedTextsFunc(func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i] = mock.Vector(text, 4+len(text)%2)
			}
			return out, nil
		})

	courses := []core.Course{
		{Subject: "CS", Title: "A", Description: "x"},
		{Subject: "CS", Title: "A", Description: "xy"},
	}
	_, err := newTestPipeline(t, embedder).Run(context.Background(), courses)
	assert.ErrorIs(t, err, core.ErrInconsistentDimension)
}

func TestPipelineRun_InvalidInput(t *testing.T) {
	p := newTestPipeline(t, mock.NewMockEmbedderWithDim(4))

	_, err := p.Run(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)

	_, err = p.Run(context.Background(), []core.Course{{Subject: "CS"}})
	assert.ErrorIs(t, err, core.ErrInvalidCourse)
}

func TestPipelineRun_Normalize(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDim(2).
		WithEmbedTextsFunc(func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{3, 4}
			}
			return out, nil
		})

	cfg := testConfig()
	cfg.Normalize = true
	result, err := newTestPipeline(t, embedder, WithConfig(cfg)).Run(context.Background(), testCourses(2))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, result.Embeddings[0], 1e-6)
	assert.InDelta(t, 1.0, vector.Norm(result.Embeddings[1]), 1e-6)
}

func TestPipelineRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(t, mock.NewMockEmbedderWithDim(4)).Run(ctx, testCourses(4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineRunFile_LoadableByCatalog(t *testing.T) {
	dir := t.TempDir()
	coursesPath := filepath.Join(dir, "fa24.json")
	outputPath := filepath.Join(dir, "embeddings", "embeddings.json")

	courses := testCourses(6)
	require.NoError(t, writeCourses(coursesPath, courses))

	result, err := newTestPipeline(t, mock.NewMockEmbedderWithDim(16)).RunFile(context.Background(), coursesPath, outputPath)
	require.NoError(t, err)
	assert.Len(t, result.Embeddings, 6)

	store, err := catalog.Open(coursesPath, outputPath)
	require.NoError(t, err)
	assert.Equal(t, 6, store.Count())
	assert.Equal(t, 16, store.Dim())
	assert.Equal(t, courses[4].DocumentText(), store.At(4).Text)
	assert.InDeltaSlice(t, mock.Vector(courses[4].DocumentText(), 16), store.At(4).Vector, 1e-6)
}

func TestPipelineRunFile_MissingCourses(t *testing.T) {
	dir := t.TempDir()
	_, err := newTestPipeline(t, mock.NewMockEmbedderWithDim(4)).
		RunFile(context.Background(), filepath.Join(dir, "missing.json"), filepath.Join(dir, "out.json"))
	require.Error(t, err)
}
