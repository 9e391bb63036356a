// Package store is the document-store boundary. Collections hold JSON
// documents keyed by opaque string ids assigned on insert; queries are
// equality filters on a single field. Consistency, retries and indexing are
// the backing store's problem, not ours.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Collection names. They double as table names in the Postgres backend.
const (
	Users     = "users"
	Products  = "products"
	CartItems = "cart_items"
	Orders    = "orders"
)

type Store interface {
	// Get unmarshals the document with the given id into out.
	Get(ctx context.Context, collection, id string, out any) error
	// Set writes doc under id, creating or replacing it.
	Set(ctx context.Context, collection, id string, doc any) error
	// Add inserts doc under a freshly assigned id and returns that id.
	Add(ctx context.Context, collection string, doc any) (string, error)
	// Delete removes the document with the given id.
	Delete(ctx context.Context, collection, id string) error
	// Patch overwrites a single top-level field of the stored document.
	Patch(ctx context.Context, collection, id, field string, value any) error
	// Query returns every document whose field equals value.
	Query(ctx context.Context, collection, field string, value any) ([]json.RawMessage, error)
	// BatchDelete removes the given ids as one all-or-nothing unit.
	BatchDelete(ctx context.Context, collection string, ids []string) error
}

// marshalWithID serializes doc with its "id" field forced to id, so the
// stored document always carries the key it lives under.
func marshalWithID(doc any, id string) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["id"] = id
	return json.Marshal(m)
}

// fieldText renders a filter value the way Postgres renders a JSON field as
// text (doc->>field), so both backends compare the same representation.
func fieldText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
