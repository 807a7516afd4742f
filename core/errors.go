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

package core

import "errors"

var (
	// ErrEmptyCorpus indicates a store was built from zero records.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrInconsistentDimension indicates records with vectors of different lengths.
	ErrInconsistentDimension = errors.New("inconsistent vector dimension")

	// ErrDimensionMismatch indicates two vectors compared with different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidArgument indicates a bad caller argument such as k <= 0.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateID indicates two records share the same ID.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrInvalidCourse indicates a Course failed validation.
	ErrInvalidCourse = errors.New("invalid course")

	// ErrEmptySubject indicates the Subject field is empty.
	ErrEmptySubject = errors.New("subject cannot be empty")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrMissingEmbedding indicates a course has no precomputed embedding.
	ErrMissingEmbedding = errors.New("missing embedding")
)
