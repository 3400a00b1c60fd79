package storage

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/renderinc/brewblog/internal/search"
)

const reindexBatchSize = 200

type searchableModel[T any] interface {
	*T
	search.Searchable
}

// SearchResult holds rows in the gateway's relevance order. Total is the
// gateway's match count and is not corrected for ids whose rows are gone,
// so len(Items) may be smaller than Total.
type SearchResult[T any] struct {
	Items []*T
	Total int
}

// Search queries the gateway for text within T's entity type and loads the
// matching rows in the order the gateway returned them. When search is
// switched off the result is empty and the error is search.ErrGatewayUnavailable.
func Search[T any, PT searchableModel[T]](ctx context.Context, s *Store, text string) (*SearchResult[T], error) {
	result := &SearchResult[T]{Items: []*T{}}
	entityType := PT(new(T)).SearchType()

	queryCtx, cancel := s.syncer.CallContext(ctx)
	ids, total, err := s.Gateway().Query(queryCtx, entityType, text)
	cancel()
	if err != nil {
		return result, search.AsCallError("query", entityType, "", err)
	}
	result.Total = total
	if total == 0 {
		return result, nil
	}

	keys := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if n, err := strconv.ParseUint(id, 10, 64); err == nil {
			keys = append(keys, n)
		}
	}
	if len(keys) == 0 {
		return result, nil
	}

	var rows []*T
	if err := s.db.WithContext(ctx).Where("id IN ?", keys).Find(&rows).Error; err != nil {
		return result, fmt.Errorf("load %s rows: %w", entityType, err)
	}

	byID := make(map[string]*T, len(rows))
	for _, row := range rows {
		byID[PT(row).EntityID()] = row
	}
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			result.Items = append(result.Items, row)
			delete(byID, id)
		}
	}
	return result, nil
}

// Reindex rebuilds the gateway's entries for every row of T. Existing entries
// of the type are cleared first when the gateway supports it, so entries for
// rows deleted behind the index's back disappear too.
func Reindex[T any, PT searchableModel[T]](ctx context.Context, s *Store, progress func(done int)) (int, error) {
	entityType := PT(new(T)).SearchType()
	gw := s.Gateway()
	if !search.Enabled(gw) {
		return 0, search.ErrGatewayUnavailable
	}

	if c, ok := gw.(search.Clearer); ok {
		clearCtx, cancel := s.syncer.CallContext(ctx)
		err := c.Clear(clearCtx, entityType)
		cancel()
		if err != nil {
			return 0, search.AsCallError("clear", entityType, "", err)
		}
	}

	indexed := 0
	var rows []*T
	err := s.db.WithContext(ctx).FindInBatches(&rows, reindexBatchSize, func(_ *gorm.DB, _ int) error {
		for _, row := range rows {
			if err := s.syncer.Index(ctx, PT(row)); err != nil {
				return err
			}
			indexed++
		}
		if progress != nil {
			progress(indexed)
		}
		return nil
	}).Error
	if err != nil {
		return indexed, fmt.Errorf("reindex %s: %w", entityType, err)
	}

	s.logger.Info("reindex complete", "entity_type", entityType, "indexed", indexed)
	return indexed, nil
}

// SearchableType describes one searchable model for callers that pick the
// type at runtime, such as the CLI and the health endpoint.
type SearchableType struct {
	Name    string
	Search  func(ctx context.Context, s *Store, text string) ([]search.Searchable, int, error)
	Reindex func(ctx context.Context, s *Store, progress func(done int)) (int, error)
	Count   func(ctx context.Context, s *Store) (int64, error)
}

func searchableType[T any, PT searchableModel[T]]() SearchableType {
	return SearchableType{
		Name: PT(new(T)).SearchType(),
		Search: func(ctx context.Context, s *Store, text string) ([]search.Searchable, int, error) {
			res, err := Search[T, PT](ctx, s, text)
			items := make([]search.Searchable, 0, len(res.Items))
			for _, item := range res.Items {
				items = append(items, PT(item))
			}
			return items, res.Total, err
		},
		Reindex: Reindex[T, PT],
		Count: func(ctx context.Context, s *Store) (int64, error) {
			var n int64
			err := s.db.WithContext(ctx).Model(new(T)).Count(&n).Error
			return n, err
		},
	}
}

// SearchableTypes lists every model that opts into the search index.
var SearchableTypes = []SearchableType{
	searchableType[Brewery](),
	searchableType[Beer](),
	searchableType[Drinker](),
}

func LookupSearchableType(name string) (SearchableType, bool) {
	for _, t := range SearchableTypes {
		if t.Name == name {
			return t, true
		}
	}
	return SearchableType{}, false
}

// IndexStatus compares row counts with index entry counts for one type.
type IndexStatus struct {
	Type    string `json:"type"`
	Rows    int64  `json:"rows"`
	Indexed int    `json:"indexed"`
	Error   string `json:"error,omitempty"`
}

// IndexStatuses reports IndexStatus for every searchable type. Index counts
// are left at zero when the gateway cannot count.
func (s *Store) IndexStatuses(ctx context.Context) ([]IndexStatus, error) {
	counter, canCount := s.Gateway().(search.Counter)

	statuses := make([]IndexStatus, 0, len(SearchableTypes))
	for _, t := range SearchableTypes {
		rows, err := t.Count(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("count %s rows: %w", t.Name, err)
		}
		status := IndexStatus{Type: t.Name, Rows: rows}
		if canCount {
			countCtx, cancel := s.syncer.CallContext(ctx)
			n, err := counter.Count(countCtx, t.Name)
			cancel()
			if err != nil {
				status.Error = err.Error()
			}
			status.Indexed = n
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
