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

// Package search ranks catalog records against a query vector.
//
// The Searcher runs a brute-force pass over a Source:
//   - Candidate selection, narrowed by metadata postings when the source supports it
//   - Predicate filtering
//   - Cosine scoring of the survivors
//   - Top-k selection, ties broken by corpus order
//
// The Searcher depends only on the Source interface, so an approximate
// nearest-neighbor index can replace the linear scan without changing callers.
// Search never blocks and holds no locks; any number of searches may run
// concurrently against the same Source.
package search
