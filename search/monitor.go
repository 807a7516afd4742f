package search

import (
	"log/slog"

	"github.com/poiesic/coursesearch/core"
	"github.com/poiesic/coursesearch/filter"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(k int, predicate filter.Predicate)
	AfterCandidateSelection(indexed bool)
	AfterFiltering(scanned, survivors int)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ int, _ filter.Predicate) {}
func (n *noopMonitor) AfterCandidateSelection(_ bool) {}
func (n *noopMonitor) AfterFiltering(_, _ int) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult) {}

// LogMonitor reports each search stage to a logger at debug level.
type LogMonitor struct {
	logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

// NewLogMonitor creates a LogMonitor. A nil logger falls back to slog.Default().
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger.With("component", "search")}
}

func (m *LogMonitor) Start(k int, predicate filter.Predicate) {
	m.logger.Debug("search started", "k", k, "filter", predicate.String())
}

func (m *LogMonitor) AfterCandidateSelection(indexed bool) {
	m.logger.Debug("candidates selected", "indexed", indexed)
}

func (m *LogMonitor) AfterFiltering(scanned, survivors int) {
	m.logger.Debug("candidates filtered", "scanned", scanned, "survivors", survivors)
}

func (m *LogMonitor) Finish(results []*core.SearchResult) {
	m.logger.Debug("search finished", "results", len(results))
}
