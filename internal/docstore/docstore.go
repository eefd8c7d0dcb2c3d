package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxInValues is the store's hard cap on the cardinality of an "in"
// filter. It mirrors the hosted backend's query limit: callers that
// need more ids must chunk, or the query fails outright instead of
// silently truncating.
const MaxInValues = 10

var (
	ErrNotFound       = errors.New("document not found")
	ErrFilterTooLarge = fmt.Errorf("filter exceeds %d values", MaxInValues)
	ErrBadFilter      = errors.New("unsupported filter")
	ErrClosed         = errors.New("store is closed")
)

// Filter operators supported by the external store.
const (
	OpEqual         = "=="
	OpIn            = "in"
	OpArrayContains = "array-contains"
)

// FieldDocumentID selects the document id instead of a payload field.
const FieldDocumentID = "__id__"

// Filter is a single-field document query. Values holds one value for
// OpEqual/OpArrayContains and up to MaxInValues values for OpIn.
type Filter struct {
	Field  string
	Op     string
	Values []string
}

// DocumentIDIn builds the chunk-limited "id is one of" filter.
func DocumentIDIn(ids []string) Filter {
	return Filter{Field: FieldDocumentID, Op: OpIn, Values: ids}
}

func FieldEquals(field, value string) Filter {
	return Filter{Field: field, Op: OpEqual, Values: []string{value}}
}

func FieldIn(field string, values []string) Filter {
	return Filter{Field: field, Op: OpIn, Values: values}
}

func ArrayContains(field, value string) Filter {
	return Filter{Field: field, Op: OpArrayContains, Values: []string{value}}
}

func (f Filter) validate() error {
	switch f.Op {
	case OpEqual, OpArrayContains:
		if len(f.Values) != 1 {
			return ErrBadFilter
		}
	case OpIn:
		if len(f.Values) == 0 {
			return ErrBadFilter
		}
		if len(f.Values) > MaxInValues {
			return ErrFilterTooLarge
		}
	default:
		return ErrBadFilter
	}
	return nil
}

// Change kinds delivered on a collection subscription.
const (
	ChangeAdded    = "added"
	ChangeModified = "modified"
	ChangeRemoved  = "removed"
)

// Change notifies that a document in a collection was written. The
// payload is not included: consumers re-read whatever they need.
type Change struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Kind       string `json:"kind"`
}

// Write is one element of an atomic batch. Fields are merged into the
// existing document (last write wins per field).
type Write struct {
	Collection string
	ID         string
	Fields     map[string]any
}

// Store is the adapter over the hosted document database. Every method
// is a suspension point; implementations must honor ctx cancellation.
type Store interface {
	// Get returns the raw document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)

	// List returns every document in the collection.
	List(ctx context.Context, collection string) ([]json.RawMessage, error)

	// Query returns documents matching the filter. An "in" filter with
	// more than MaxInValues values fails with ErrFilterTooLarge.
	Query(ctx context.Context, collection string, filter Filter) ([]json.RawMessage, error)

	// Add stores a new document and returns its generated id.
	Add(ctx context.Context, collection string, doc any) (string, error)

	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting an absent id is not an error.
	Delete(ctx context.Context, collection, id string) error

	// ApplyWrites applies the batch atomically: either every write is
	// visible or none is.
	ApplyWrites(ctx context.Context, writes []Write) error

	// Subscribe opens a change feed for one collection. The returned
	// stop function must be called exactly once to release it.
	Subscribe(ctx context.Context, collection string) (<-chan Change, func(), error)

	Close() error
}

// Decode unmarshals a raw document into out.
func Decode(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// DecodeAll unmarshals a result set into a slice of T.
func DecodeAll[T any](raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := Decode(raw, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
