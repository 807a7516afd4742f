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

// Package vector scores embedding vectors against each other.
//
// The ranking key used across coursesearch is cosine similarity, in [-1, 1],
// higher meaning more relevant. Distances are reported as cosine distance
// (1 - similarity), so a relevance score computed as 1 - distance is the
// cosine similarity itself.
//
// A vector with zero norm has similarity 0 with every other vector.
package vector
