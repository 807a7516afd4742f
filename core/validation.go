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

import (
	"fmt"
	"strings"
)

// ValidateCourse checks that a course carries the fields used for filtering
// and display. An empty description is allowed.
func ValidateCourse(course *Course) error {
	if course == nil {
		return fmt.Errorf("%w: course is nil", ErrInvalidCourse)
	}

	if strings.TrimSpace(course.Subject) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCourse, ErrEmptySubject)
	}

	if strings.TrimSpace(course.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCourse, ErrEmptyTitle)
	}

	return nil
}

// ValidateK checks a requested result count.
func ValidateK(k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}
	return nil
}

// CheckDimension returns ErrDimensionMismatch when got differs from want.
func CheckDimension(want, got int) error {
	if want != got {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, want, got)
	}
	return nil
}
