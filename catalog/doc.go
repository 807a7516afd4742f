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

// Package catalog owns the in-memory course catalog.
//
// The catalog is loaded once at startup from two files: a JSON array of
// courses and a JSON object of precomputed embeddings keyed by catalog
// position. Assemble pairs them into core.VectorRecord values and Build turns
// those into a Store.
//
// # Lifecycle
//
// A Store is immutable once built. The live Store is published through a
// Holder; a reload builds a complete new Store and swaps it in atomically.
// Any number of goroutines may read a Store concurrently without locking.
//
// # Postings
//
// Build indexes every string metadata value in a roaring bitmap of record
// positions. Store.Candidates uses these bitmaps to narrow equality filters
// without scanning the whole catalog; positions are visited in ascending
// order, so corpus order is preserved.
package catalog
