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

// Package storage defines the embedding cache used by the precompute pipeline.
//
// Embedding a full course catalog against a hosted model is slow and billed
// per token. The cache remembers every vector by a content hash of the model
// name and the embedded text, so a rerun only embeds courses whose text
// changed.
//
// # Usage
//
//	cache, err := badger.NewCache("/var/lib/coursesearch/cache")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	key := storage.CacheKey("embeddinggemma", course.DocumentText())
//	vec, err := cache.Get(ctx, key)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // embed and Put
//	}
//
// Vectors are encoded with mus-go: a varint length followed by raw float32s.
//
// All implementations must be thread-safe.
package storage
