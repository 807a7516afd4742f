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

// Package precompute embeds a course catalog ahead of serving.
//
// The pipeline reads courses, composes each document text exactly as the
// catalog loader does, reuses vectors from an optional embedding cache, and
// embeds the remainder in batches on a bounded worker pool. Failed batches
// are retried with exponential backoff. The result is written as the
// embeddings JSON file that catalog.Open consumes.
//
// # Usage
//
//	pipeline, err := precompute.NewPipeline(embedder,
//	    precompute.WithCache(cache),
//	    precompute.WithProgress(os.Stderr),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pipeline.Release()
//
//	result, err := pipeline.RunFile(ctx, "data/fa24.json", "data/embeddings/embeddings.json")
package precompute
