package core

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for catalog records.
// Records get their ID from their catalog position at load time.
type ID uint64

// String renders the ID the way the HTTP layer reports it.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Reserved metadata fields.
const (
	FieldSubject = "subject"
	FieldTitle   = "title"
)

// DescriptionSeparator splits the subject/title prefix of a document text
// from its description.
const DescriptionSeparator = " - "

// Course is one raw catalog entry as supplied by the loader.
type Course struct {
	Subject     string `json:"subject"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DocumentText composes the text that is embedded and stored for a course.
// Format: "SUBJECT: Title - Description".
func (c Course) DocumentText() string {
	return c.Subject + ": " + c.Title + DescriptionSeparator + c.Description
}

// Metadata returns the filterable fields of a course.
func (c Course) Metadata() Metadata {
	return Metadata{
		FieldSubject: StringValue(c.Subject),
		FieldTitle:   StringValue(c.Title),
	}
}

// ValueKind identifies the scalar type held by a Value.
type ValueKind uint8

const (
	// KindString marks a string value.
	KindString ValueKind = iota + 1
	// KindNumber marks a numeric value.
	KindNumber
)

// Value is a scalar metadata value, either a string or a number.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// StringValue wraps s as a metadata Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue wraps f as a metadata Value.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	default:
		return false
	}
}

// String returns the textual form of the value.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return ""
	}
}

// Metadata maps field names to scalar values. It is used for filtering only,
// never for scoring.
type Metadata map[string]Value

// Get returns the value stored under field.
func (m Metadata) Get(field string) (Value, bool) {
	v, ok := m[field]
	return v, ok
}

// String returns the string content of field, or "" when the field is
// missing or not a string.
func (m Metadata) String(field string) string {
	v, ok := m[field]
	if !ok || v.Kind != KindString {
		return ""
	}
	return v.Str
}

// VectorRecord is one immutable catalog entry held by the store.
type VectorRecord struct {
	Id       ID
	Vector   []float32 // Embedding, same length for every record in a store
	Metadata Metadata  // Filterable fields ("subject", "title")
	Text     string    // Document text the embedding was computed from
}

// Description returns everything after the first DescriptionSeparator in the
// record text, or "" when the separator is absent.
func (r VectorRecord) Description() string {
	return ExtractDescription(r.Text)
}

// ExtractDescription returns everything after the first DescriptionSeparator
// in text, or "" when the separator is absent.
func ExtractDescription(text string) string {
	_, after, found := strings.Cut(text, DescriptionSeparator)
	if !found {
		return ""
	}
	return after
}

// SearchResult is one ranked hit returned by the searcher.
type SearchResult struct {
	Id          ID
	Subject     string
	Title       string
	Description string
	Score       float64 // Cosine similarity in [-1, 1]
}
