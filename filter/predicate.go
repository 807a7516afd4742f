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

// Package filter evaluates metadata predicates over catalog records.
//
// Predicates form a closed set of variants: Always, Equals and And. New
// variants are added inside this package; callers only rely on Matches.
// Evaluation is pure and total: a missing field never matches and never
// produces an error.
package filter

import (
	"strings"

	"github.com/poiesic/coursesearch/core"
)

// Predicate is a boolean test over record metadata.
type Predicate interface {
	// Matches reports whether the metadata satisfies the predicate.
	Matches(md core.Metadata) bool

	// String describes the predicate for logs.
	String() string

	predicate()
}

var (
	_ Predicate = Always{}
	_ Predicate = Equals{}
	_ Predicate = And{}
)

// Always matches every record.
type Always struct{}

func (Always) Matches(core.Metadata) bool { return true }
func (Always) String() string             { return "always" }
func (Always) predicate()                 {}

// Equals matches when the record's Field holds Value.
// Records without Field never match.
type Equals struct {
	Field string
	Value core.Value
}

// Eq builds an Equals predicate.
func Eq(field string, value core.Value) Equals {
	return Equals{Field: field, Value: value}
}

func (e Equals) Matches(md core.Metadata) bool {
	v, ok := md.Get(e.Field)
	if !ok {
		return false
	}
	return v.Equal(e.Value)
}

func (e Equals) String() string {
	return e.Field + "=" + e.Value.String()
}

func (Equals) predicate() {}

// And matches when every child predicate matches.
// An empty And matches everything.
type And []Predicate

func (a And) Matches(md core.Metadata) bool {
	for _, p := range a {
		if !Evaluate(p, md) {
			return false
		}
	}
	return true
}

func (a And) String() string {
	parts := make([]string, len(a))
	for i, p := range a {
		if p == nil {
			parts[i] = Always{}.String()
			continue
		}
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

func (And) predicate() {}

// Subject returns a predicate restricting results to a subject code.
// An empty code yields Always.
func Subject(code string) Predicate {
	if code == "" {
		return Always{}
	}
	return Eq(core.FieldSubject, core.StringValue(code))
}

// Evaluate applies p to md, treating a nil predicate as Always.
func Evaluate(p Predicate, md core.Metadata) bool {
	if p == nil {
		return true
	}
	return p.Matches(md)
}

// OrAlways returns p, or Always when p is nil.
func OrAlways(p Predicate) Predicate {
	if p == nil {
		return Always{}
	}
	return p
}
