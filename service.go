// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package coursesearch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/coursesearch/ai"
	"github.com/poiesic/coursesearch/catalog"
	"github.com/poiesic/coursesearch/core"
	"github.com/poiesic/coursesearch/filter"
	"github.com/poiesic/coursesearch/search"
)

// DefaultMaxLimit is the largest result count a caller may request.
const DefaultMaxLimit = 100

// Service answers course searches against the current catalog.
// It is safe for concurrent use; Reload swaps the catalog without blocking
// in-flight searches.
type Service struct {
	holder         *catalog.Holder
	embedder       ai.Embedder
	searcher       *search.Searcher
	monitor        search.SearchMonitor
	coursesPath    string
	embeddingsPath string
	maxLimit       int
	logger         *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	searchOpts []search.Option
	monitor    search.SearchMonitor
	maxLimit   int
	logger     *slog.Logger
}

// WithSearchOptions passes options to the underlying search.Searcher.
func WithSearchOptions(opts ...search.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// WithMonitor observes every search with monitor.
func WithMonitor(monitor search.SearchMonitor) ServiceOption {
	return func(o *serviceOptions) {
		o.monitor = monitor
	}
}

// WithMaxLimit caps the result count a caller may request.
func WithMaxLimit(limit int) ServiceOption {
	return func(o *serviceOptions) {
		o.maxLimit = limit
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService creates a Service over an already built store.
func NewService(store *catalog.Store, embedder ai.Embedder, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	options := &serviceOptions{
		maxLimit: DefaultMaxLimit,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.maxLimit < 1 {
		return nil, fmt.Errorf("%w: max limit must be positive", core.ErrInvalidArgument)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	searcher, err := search.NewSearcher(options.searchOpts...)
	if err != nil {
		return nil, err
	}

	return &Service{
		holder:   catalog.NewHolder(store),
		embedder: embedder,
		searcher: searcher,
		monitor:  options.monitor,
		maxLimit: options.maxLimit,
		logger:   options.logger.With("component", "service"),
	}, nil
}

// Open loads the catalog from the courses and embeddings files and creates a
// Service that can Reload from the same files.
func Open(coursesPath, embeddingsPath string, embedder ai.Embedder, opts ...ServiceOption) (*Service, error) {
	store, err := catalog.Open(coursesPath, embeddingsPath)
	if err != nil {
		return nil, err
	}

	s, err := NewService(store, embedder, opts...)
	if err != nil {
		return nil, err
	}
	s.coursesPath = coursesPath
	s.embeddingsPath = embeddingsPath

	s.logger.Info("catalog loaded",
		"courses", store.Count(),
		"dim", store.Dim(),
		"subjects", len(catalog.DistinctSubjects(store)))
	return s, nil
}

// Reload rebuilds the catalog from the files the Service was opened with and
// swaps it in. On failure the current catalog stays in place.
func (s *Service) Reload() error {
	if s.coursesPath == "" || s.embeddingsPath == "" {
		return ErrNoCatalogFiles
	}

	store, err := catalog.Open(s.coursesPath, s.embeddingsPath)
	if err != nil {
		s.logger.Error("catalog reload failed, keeping current catalog", "err", err)
		return err
	}
	s.Swap(store)
	return nil
}

// Swap installs store as the current catalog and returns the previous one.
func (s *Service) Swap(store *catalog.Store) *catalog.Store {
	old := s.holder.Swap(store)
	s.logger.Info("catalog swapped", "courses", store.Count(), "previous", old.Count())
	return old
}

// Search embeds queryText and returns up to limit courses ranked by
// relevance. A non-empty subjectFilter restricts results to that subject.
//
// Errors: core.ErrInvalidArgument for an empty query or a limit outside
// [1, max limit]; ErrEmbeddingFailed when the embedder fails;
// core.ErrDimensionMismatch when the query embedding does not match the catalog.
func (s *Service) Search(ctx context.Context, queryText string, limit int, subjectFilter string) (*SearchResponse, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, fmt.Errorf("%w: query is required", core.ErrInvalidArgument)
	}
	if limit < 1 || limit > s.maxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d, got %d", core.ErrInvalidArgument, s.maxLimit, limit)
	}

	queryVector, err := s.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	store := s.holder.Load()
	results, err := s.searcher.SearchWithMonitor(ctx, store, queryVector, limit, filter.Subject(subjectFilter), s.monitor)
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{Results: make([]CourseResult, len(results))}
	for i, r := range results {
		resp.Results[i] = newCourseResult(r)
	}
	return resp, nil
}

// ListSubjects returns every subject code in the current catalog, sorted.
func (s *Service) ListSubjects() *SubjectsResponse {
	return &SubjectsResponse{Subjects: catalog.DistinctSubjects(s.holder.Load())}
}

// Stats describes the current catalog.
func (s *Service) Stats() *StatsResponse {
	store := s.holder.Load()
	return &StatsResponse{
		Courses:    store.Count(),
		Dimensions: store.Dim(),
		Subjects:   len(catalog.DistinctSubjects(store)),
	}
}

// MaxLimit returns the largest accepted result count.
func (s *Service) MaxLimit() int {
	return s.maxLimit
}
