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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/coursesearch"
	"github.com/poiesic/coursesearch/ai"
	"github.com/poiesic/coursesearch/ai/openai"
	"github.com/poiesic/coursesearch/api"
	"github.com/poiesic/coursesearch/catalog"
	"github.com/poiesic/coursesearch/precompute"
	"github.com/poiesic/coursesearch/search"
	"github.com/poiesic/coursesearch/storage"
	"github.com/poiesic/coursesearch/storage/badger"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCoursesPath    = "data/fa24.json"
	defaultEmbeddingsPath = "data/embeddings/embeddings.json"
)

// newEmbedder builds the embedding client. Tests replace it.
var newEmbedder = func(cfg *ai.Config) (ai.Embedder, error) {
	return openai.NewEmbedder(cfg)
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "coursesearch",
		Usage: "Semantic search over a course catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"COURSESEARCH_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the search API over HTTP",
				Action: serveCommand,
				Flags: append(append(catalogFlags(), embeddingFlags()...),
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   ":8000",
						EnvVars: []string{"COURSESEARCH_ADDR"},
					},
					&cli.StringFlag{
						Name:    "allowed-origins",
						Usage:   "Comma separated CORS origins",
						Value:   "*",
						EnvVars: []string{"COURSESEARCH_ALLOWED_ORIGINS"},
					},
					&cli.IntFlag{
						Name:    "default-limit",
						Usage:   "Result count when a search omits limit",
						Value:   10,
						EnvVars: []string{"COURSESEARCH_DEFAULT_LIMIT"},
					},
					&cli.IntFlag{
						Name:    "max-limit",
						Usage:   "Largest accepted result count",
						Value:   coursesearch.DefaultMaxLimit,
						EnvVars: []string{"COURSESEARCH_MAX_LIMIT"},
					},
					&cli.DurationFlag{
						Name:    "idle-timeout",
						Usage:   "Keep-alive timeout for idle connections",
						Value:   120 * time.Second,
						EnvVars: []string{"COURSESEARCH_IDLE_TIMEOUT"},
					},
					&cli.DurationFlag{
						Name:    "write-timeout",
						Usage:   "Maximum time to write a response",
						Value:   120 * time.Second,
						EnvVars: []string{"COURSESEARCH_WRITE_TIMEOUT"},
					},
				),
			},
			{
				Name:   "precompute",
				Usage:  "Embed every course and write the embeddings file",
				Action: precomputeCommand,
				Flags: append(embeddingFlags(),
					&cli.StringFlag{
						Name:    "courses",
						Aliases: []string{"c"},
						Usage:   "Path to the courses JSON file",
						Value:   defaultCoursesPath,
						EnvVars: []string{"COURSESEARCH_COURSES"},
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to write the embeddings JSON file",
						Value:   defaultEmbeddingsPath,
						EnvVars: []string{"COURSESEARCH_EMBEDDINGS"},
					},
					&cli.StringFlag{
						Name:    "cache",
						Usage:   "BadgerDB directory for cached embeddings (empty disables caching)",
						EnvVars: []string{"COURSESEARCH_CACHE"},
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of courses sent per embedding call",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of batches embedded concurrently",
						Value: precompute.DefaultConfig().PoolSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N courses",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "Scale vectors to unit length before writing",
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Run one search from the command line",
				ArgsUsage: "QUERY...",
				Action:    queryCommand,
				Flags: append(append(catalogFlags(), embeddingFlags()...),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of results",
						Value:   10,
					},
					&cli.StringFlag{
						Name:    "subject",
						Aliases: []string{"s"},
						Usage:   "Restrict results to a subject code",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print each search stage to stderr",
					},
				),
			},
			{
				Name:   "subjects",
				Usage:  "List the subject codes in the catalog",
				Action: subjectsCommand,
				Flags:  catalogFlags(),
			},
		},
	}
}

func catalogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "courses",
			Aliases: []string{"c"},
			Usage:   "Path to the courses JSON file",
			Value:   defaultCoursesPath,
			EnvVars: []string{"COURSESEARCH_COURSES"},
		},
		&cli.StringFlag{
			Name:    "embeddings",
			Aliases: []string{"e"},
			Usage:   "Path to the precomputed embeddings JSON file",
			Value:   defaultEmbeddingsPath,
			EnvVars: []string{"COURSESEARCH_EMBEDDINGS"},
		},
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"COURSESEARCH_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"COURSESEARCH_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Bearer token for the embedding service",
			EnvVars: []string{"COURSESEARCH_API_KEY", "OPENAI_API_KEY"},
		},
		&cli.Float64Flag{
			Name:    "requests-per-second",
			Usage:   "Rate limit for embedding calls (0 disables)",
			EnvVars: []string{"COURSESEARCH_RPS"},
		},
	}
}

func aiConfigFrom(c *cli.Context) (*ai.Config, error) {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithRequestsPerSecond(c.Float64("requests-per-second"), 1),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

// checkCatalogFiles fails early with instructions when an input file is missing.
func checkCatalogFiles(coursesPath, embeddingsPath string) error {
	if _, err := os.Stat(coursesPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s not found: add the course data file", coursesPath)
		}
		return err
	}
	if _, err := os.Stat(embeddingsPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("precomputed embeddings %s not found: run 'coursesearch precompute' first", embeddingsPath)
		}
		return err
	}
	return nil
}

func openService(c *cli.Context, opts ...coursesearch.ServiceOption) (*coursesearch.Service, error) {
	coursesPath, embeddingsPath := c.String("courses"), c.String("embeddings")
	if err := checkCatalogFiles(coursesPath, embeddingsPath); err != nil {
		return nil, err
	}

	aiConfig, err := aiConfigFrom(c)
	if err != nil {
		return nil, err
	}
	embedder, err := newEmbedder(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	svc, err := coursesearch.Open(coursesPath, embeddingsPath, embedder, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return svc, nil
}

func serveCommand(c *cli.Context) error {
	cfg := api.DefaultConfig()
	cfg.Addr = c.String("addr")
	cfg.AllowedOrigins = api.ParseOrigins(c.String("allowed-origins"))
	cfg.DefaultLimit = c.Int("default-limit")
	cfg.MaxLimit = c.Int("max-limit")
	cfg.IdleTimeout = c.Duration("idle-timeout")
	cfg.WriteTimeout = c.Duration("write-timeout")
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, err := openService(c, coursesearch.WithMaxLimit(cfg.MaxLimit))
	if err != nil {
		return err
	}

	handler, err := api.NewHandler(svc, cfg, slog.Default())
	if err != nil {
		return err
	}
	server := api.NewServer(handler)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		return reloadOnHangup(gctx, svc)
	})
	return g.Wait()
}

// reloadOnHangup reloads the catalog each time the process receives SIGHUP.
func reloadOnHangup(ctx context.Context, svc *coursesearch.Service) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			slog.Info("SIGHUP received, reloading catalog")
			// Reload logs its own failure and keeps serving the old catalog
			_ = svc.Reload()
		}
	}
}

func precomputeCommand(c *cli.Context) error {
	aiConfig, err := aiConfigFrom(c)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	config := &precompute.Config{
		Model:          aiConfig.EmbeddingModel,
		BatchSize:      c.Int("batch-size"),
		PoolSize:       c.Int("pool-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Normalize:      c.Bool("normalize"),
	}

	opts := []precompute.Option{
		precompute.WithConfig(config),
		precompute.WithProgress(c.App.ErrWriter),
	}
	if dir := c.String("cache"); dir != "" {
		cache, err := badger.NewCache(dir)
		if err != nil {
			return fmt.Errorf("failed to open embedding cache: %w", err)
		}
		defer cache.Close()
		opts = append(opts, precompute.WithCache(cache))
		logCacheSize(c.Context, cache)
	}

	pipeline, err := precompute.NewPipeline(embedder, opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	fmt.Fprintf(c.App.ErrWriter, "Courses: %s\n", c.String("courses"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	result, err := pipeline.RunFile(c.Context, c.String("courses"), c.String("output"))
	if err != nil {
		return fmt.Errorf("precompute failed: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Wrote %d embeddings (%d embedded, %d cached, dim %d) to %s in %v\n",
		len(result.Embeddings), result.Embedded, result.Cached, result.Dim,
		c.String("output"), result.Elapsed.Round(time.Millisecond))
	return nil
}

func logCacheSize(ctx context.Context, cache storage.EmbeddingCache) {
	n, err := cache.Count(ctx)
	if err != nil {
		slog.Warn("could not count cached embeddings", "err", err)
		return
	}
	slog.Info("embedding cache opened", "entries", n)
}

func queryCommand(c *cli.Context) error {
	queryText := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(queryText) == "" {
		return errors.New("a query is required")
	}

	var opts []coursesearch.ServiceOption
	if c.Bool("trace") {
		tracer := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, coursesearch.WithMonitor(search.NewLogMonitor(tracer)))
	}

	svc, err := openService(c, opts...)
	if err != nil {
		return err
	}

	resp, err := svc.Search(c.Context, queryText, c.Int("limit"), c.String("subject"))
	if err != nil {
		return err
	}

	printResults(c.App.Writer, resp)
	return nil
}

func printResults(w io.Writer, resp *coursesearch.SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No matching courses.")
		return
	}
	for i, r := range resp.Results {
		fmt.Fprintf(w, "%2d. [%.4f] %s: %s\n", i+1, r.RelevanceScore, r.Subject, r.Title)
		if r.Description != "" {
			fmt.Fprintf(w, "    %s\n", r.Description)
		}
	}
}

func subjectsCommand(c *cli.Context) error {
	store, err := catalog.Open(c.String("courses"), c.String("embeddings"))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	for _, subject := range catalog.DistinctSubjects(store) {
		fmt.Fprintln(c.App.Writer, subject)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
