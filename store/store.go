// Package store defines the record store port shared by the file, memory and
// postgres backends.
package store

import "context"

// Kind names a record kind. Each kind is persisted in its own record file.
type Kind string

const (
	KindVisitor  Kind = "visitor"
	KindFeedback Kind = "feedback"
)

// FileName returns the JSON file name that holds records of kind k.
func (k Kind) FileName() string {
	switch k {
	case KindVisitor:
		return "visitors.json"
	case KindFeedback:
		return "feedback.json"
	default:
		return string(k) + ".json"
	}
}

// AppendPolicy controls a single Append call.
type AppendPolicy[T any] struct {
	// Validate is called with the current sequence and the candidate record
	// while the store holds its write lock. A non-nil error aborts the append
	// without writing anything.
	Validate func(existing []T, record T) error
	// MaxRecords keeps only the newest MaxRecords entries after the append.
	// Zero means unbounded.
	MaxRecords int
}

// RecordStore persists an ordered, append-only sequence of records of one kind.
type RecordStore[T any] interface {
	Kind() Kind
	// Load returns the full sequence in insertion order. A missing backing
	// file is created empty.
	Load(ctx context.Context) ([]T, error)
	// Append validates record against the current sequence, appends it,
	// applies truncation and persists the result. Appends to the same store
	// are serialized.
	Append(ctx context.Context, record T, policy AppendPolicy[T]) ([]T, error)
	// Paths lists the files backing the store relative to its data
	// directory. Backends that are not file based return nil.
	Paths() []string
}

// Truncate keeps the newest max entries of records, preserving their order.
// max <= 0 leaves records untouched.
func Truncate[T any](records []T, max int) []T {
	if max <= 0 || len(records) <= max {
		return records
	}
	kept := make([]T, max)
	copy(kept, records[len(records)-max:])
	return kept
}
