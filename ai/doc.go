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
// Package ai defines the embedding function used by coursesearch.
//
// The retrieval engine treats embeddings as opaque vectors; this package owns
// how text becomes one. Query text and course documents must go through the
// same model, otherwise similarity scores are meaningless.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embedding APIs via langchaingo
//   - ai/mock: deterministic test doubles
//
// Public constructors in ai/openai return the Embedder interface. The mock
// constructors return concrete types so tests can inject behavior and read
// call counts.
//
// # Rate Limiting
//
// RateLimitedEmbedder wraps any Embedder with a token bucket. The precompute
// pipeline uses it to stay under hosted API quotas:
//
//	provider, err := openai.NewProvider(ai.NewConfig(ai.WithRequestsPerSecond(5, 5)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "intro to machine learning")
package ai
