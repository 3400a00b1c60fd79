// Package search mirrors catalog rows into an external full-text index and
// queries it back. The index itself is a black box reached through Gateway.
package search

import "context"

// Searchable is implemented by entity types that opt into the search index.
// Types that do not implement it are never indexed.
type Searchable interface {
	// EntityID is the stable identifier of the row.
	EntityID() string
	// SearchType scopes the entity's entries in the gateway, e.g. "brewery".
	SearchType() string
	// IndexedFields names the fields mirrored into the index.
	IndexedFields() []string
	// IndexDocument returns the current text of the indexed fields.
	IndexDocument() map[string]string
}

// Gateway is the contract of the external search service.
type Gateway interface {
	// Put creates or overwrites the entry for (entityType, id).
	Put(ctx context.Context, entityType, id string, fields map[string]string) error
	// Delete removes the entry for (entityType, id). Removing a missing entry is not an error.
	Delete(ctx context.Context, entityType, id string) error
	// Query returns matching ids in relevance order and the total number of matches.
	Query(ctx context.Context, entityType, text string) ([]string, int, error)
}

// Clearer is implemented by gateways that can drop every entry of a type.
type Clearer interface {
	Clear(ctx context.Context, entityType string) error
}

// Counter is implemented by gateways that can report how many entries a type has.
type Counter interface {
	Count(ctx context.Context, entityType string) (int, error)
}

// Entry is the index-side representation of one entity.
type Entry struct {
	Type   string
	ID     string
	Fields map[string]string
}

// EntryFor builds the index entry for s. Only the declared indexed fields
// are kept, whatever else IndexDocument returns.
func EntryFor(s Searchable) Entry {
	names := s.IndexedFields()
	doc := s.IndexDocument()
	fields := make(map[string]string, len(names))
	for _, name := range names {
		fields[name] = doc[name]
	}
	return Entry{Type: s.SearchType(), ID: s.EntityID(), Fields: fields}
}

// Disabled stands in when no search backend is configured. Writes are
// dropped and reads report ErrGatewayUnavailable.
type Disabled struct{}

func (Disabled) Put(context.Context, string, string, map[string]string) error { return nil }

func (Disabled) Delete(context.Context, string, string) error { return nil }

func (Disabled) Query(context.Context, string, string) ([]string, int, error) {
	return nil, 0, ErrGatewayUnavailable
}

func (Disabled) Clear(context.Context, string) error { return ErrGatewayUnavailable }

func (Disabled) Count(context.Context, string) (int, error) { return 0, ErrGatewayUnavailable }

// Enabled reports whether gw is a real backend.
func Enabled(gw Gateway) bool {
	if gw == nil {
		return false
	}
	_, off := gw.(Disabled)
	return !off
}
