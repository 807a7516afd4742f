package precompute

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/coursesearch/ai"
	"github.com/poiesic/coursesearch/catalog"
	"github.com/poiesic/coursesearch/core"
	"github.com/poiesic/coursesearch/storage"
	"github.com/poiesic/coursesearch/vector"
	"golang.org/x/sync/errgroup"
)

// Pipeline embeds course catalogs on a bounded worker pool.
type Pipeline struct {
	embedder ai.Embedder
	cache    storage.EmbeddingCache
	config   *Config
	pool     *ants.Pool
	progress io.Writer
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithCache reuses and stores vectors in cache.
func WithCache(cache storage.EmbeddingCache) Option {
	return func(p *Pipeline) error {
		p.cache = cache
		return nil
	}
}

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(p *Pipeline) error {
		if config == nil {
			return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		p.config = config
		return nil
	}
}

// WithProgress writes a progress line to w while embedding.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new precompute pipeline.
func NewPipeline(embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		embedder: embedder,
		config:   DefaultConfig(),
		progress: io.Discard,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "precompute")

	pool, err := ants.NewPool(p.config.PoolSize)
	if err != nil {
		return nil, err
	}
	p.pool = pool

	return p, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Result summarizes a precompute run.
type Result struct {
	// Embeddings maps catalog position to vector.
	Embeddings map[int][]float32
	// Embedded is the number of courses sent to the embedder.
	Embedded int
	// Cached is the number of courses served from the cache.
	Cached int
	// Dim is the vector length.
	Dim     int
	Elapsed time.Duration
}

// Run embeds every course and returns vectors keyed by catalog position.
func (p *Pipeline) Run(ctx context.Context, courses []core.Course) (*Result, error) {
	start := time.Now()
	if len(courses) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	texts := make([]string, len(courses))
	keys := make([]core.ID, len(courses))
	for i := range courses {
		if err := core.ValidateCourse(&courses[i]); err != nil {
			return nil, fmt.Errorf("course %d: %w", i, err)
		}
		texts[i] = courses[i].DocumentText()
		keys[i] = storage.CacheKey(p.config.Model, texts[i])
	}

	vectors := make([][]float32, len(courses))
	cached := 0
	if p.cache != nil {
		found, err := p.cache.GetMany(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("reading embedding cache: %w", err)
		}
		for i, key := range keys {
			if vec, ok := found[key]; ok {
				vectors[i] = vec
				cached++
			}
		}
	}

	var pending []int
	for i, vec := range vectors {
		if vec == nil {
			pending = append(pending, i)
		}
	}

	p.logger.Info("precompute started",
		"courses", len(courses),
		"cached", cached,
		"to_embed", len(pending),
		"batch_size", p.config.BatchSize,
		"pool_size", p.config.PoolSize)

	tracker := NewProgressTracker(p.progress, len(pending), p.config.ReportInterval)
	tracker.Start()

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(pending); lo += p.config.BatchSize {
		batch := pending[lo:min(lo+p.config.BatchSize, len(pending))]
		g.Go(func() error {
			errc := make(chan error, 1)
			if err := p.pool.Submit(func() {
				errc <- p.embedBatch(gctx, batch, texts, keys, vectors)
			}); err != nil {
				return err
			}
			if err := <-errc; err != nil {
				return err
			}
			tracker.Increment(len(batch))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		tracker.Finish()
	}

	result := &Result{
		Embeddings: make(map[int][]float32, len(vectors)),
		Embedded:   len(pending),
		Cached:     cached,
		Dim:        len(vectors[0]),
	}
	for i, vec := range vectors {
		if len(vec) == 0 || len(vec) != result.Dim {
			return nil, fmt.Errorf("%w: course %d has %d dimensions, expected %d",
				core.ErrInconsistentDimension, i, len(vec), result.Dim)
		}
		if p.config.Normalize {
			vec = vector.Normalize(vec)
		}
		result.Embeddings[i] = vec
	}
	result.Elapsed = time.Since(start)

	p.logger.Info("precompute finished",
		"courses", len(courses),
		"embedded", result.Embedded,
		"cached", result.Cached,
		"dim", result.Dim,
		"elapsed", result.Elapsed.Round(time.Millisecond))
	return result, nil
}

// embedBatch embeds the texts at positions and stores the vectors into out
// and the cache. Each batch owns its positions, so writes to out never overlap.
func (p *Pipeline) embedBatch(ctx context.Context, positions []int, texts []string, keys []core.ID, out [][]float32) error {
	batch := make([]string, len(positions))
	for i, pos := range positions {
		batch[i] = texts[pos]
	}

	logger := p.logger.With("first_course", positions[0], "batch_size", len(positions))

	var embeddings [][]float32
	attempts := 0
	err := RetryWithBackoff(ctx, logger, p.config.MaxRetries, p.config.RetryDelay, func(attempt int) error {
		attempts = attempt
		var err error
		embeddings, err = p.embedder.EmbedTexts(ctx, batch)
		if err != nil {
			return err
		}
		if len(embeddings) != len(batch) {
			// Short answers are not retried
			return Permanent(fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(batch), len(embeddings)))
		}
		return nil
	})
	if err != nil {
		logger.Error("batch failed", "attempts", attempts, "err", err)
		return fmt.Errorf("failed to embed batch starting at course %d after %d attempts: %w",
			positions[0], attempts, err)
	}

	entries := make(map[core.ID][]float32, len(positions))
	for i, pos := range positions {
		out[pos] = embeddings[i]
		entries[keys[pos]] = embeddings[i]
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, entries); err != nil {
			return fmt.Errorf("writing embedding cache: %w", err)
		}
	}
	return nil
}

// RunFile loads courses from coursesPath, runs the pipeline and writes the
// embeddings file to outputPath.
func (p *Pipeline) RunFile(ctx context.Context, coursesPath, outputPath string) (*Result, error) {
	courses, err := catalog.LoadCourses(coursesPath)
	if err != nil {
		return nil, err
	}

	result, err := p.Run(ctx, courses)
	if err != nil {
		return nil, err
	}

	if err := catalog.WriteEmbeddings(outputPath, result.Embeddings); err != nil {
		return nil, err
	}
	p.logger.Info("embeddings written", "path", outputPath, "count", len(result.Embeddings))
	return result, nil
}
