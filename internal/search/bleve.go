package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	// typeField scopes entries to an entity type. It is kept out of _all so
	// free-text queries never match on it.
	typeField = "entity_type"

	defaultMaxResults = 100
	clearBatchSize    = 500
)

// BleveGateway keeps every entity type in one local Bleve index, keyed by
// "<type>/<id>".
type BleveGateway struct {
	index      bleve.Index
	maxResults int
}

// OpenBleve opens the index at path, creating it with the brewblog mapping
// when it does not exist yet.
func OpenBleve(path string, maxResults int) (*BleveGateway, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return newBleveGateway(idx, maxResults), nil
}

// NewMemBleve creates an in-memory index.
func NewMemBleve(maxResults int) (*BleveGateway, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create memory index: %w", err)
	}
	return newBleveGateway(idx, maxResults), nil
}

func newBleveGateway(idx bleve.Index, maxResults int) *BleveGateway {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &BleveGateway{index: idx, maxResults: maxResults}
}

// buildIndexMapping indexes every field dynamically with the English
// analyzer, except the type discriminator which is a keyword.
func buildIndexMapping() mapping.IndexMapping {
	typeFieldMapping := bleve.NewKeywordFieldMapping()
	typeFieldMapping.IncludeInAll = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(typeField, typeFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = "en"

	return indexMapping
}

func docID(entityType, id string) string {
	return entityType + "/" + id
}

func splitDocID(doc string) (entityType, id string) {
	entityType, id, _ = strings.Cut(doc, "/")
	return entityType, id
}

func (g *BleveGateway) Close() error {
	return g.index.Close()
}

func (g *BleveGateway) Put(ctx context.Context, entityType, id string, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return AsCallError("put", entityType, id, err)
	}

	doc := make(map[string]interface{}, len(fields)+1)
	for name, value := range fields {
		doc[name] = value
	}
	doc[typeField] = entityType

	if err := g.index.Index(docID(entityType, id), doc); err != nil {
		return AsCallError("put", entityType, id, err)
	}
	return nil
}

func (g *BleveGateway) Delete(ctx context.Context, entityType, id string) error {
	if err := ctx.Err(); err != nil {
		return AsCallError("delete", entityType, id, err)
	}
	if err := g.index.Delete(docID(entityType, id)); err != nil {
		return AsCallError("delete", entityType, id, err)
	}
	return nil
}

// Query matches text against every indexed field of entityType.
func (g *BleveGateway) Query(ctx context.Context, entityType, text string) ([]string, int, error) {
	q := bleve.NewConjunctionQuery(bleve.NewMatchQuery(text), typeQuery(entityType))

	req := bleve.NewSearchRequestOptions(q, g.maxResults, 0, false)
	res, err := g.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, AsCallError("query", entityType, "", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		_, id := splitDocID(hit.ID)
		ids = append(ids, id)
	}
	return ids, int(res.Total), nil
}

func (g *BleveGateway) Clear(ctx context.Context, entityType string) error {
	for {
		req := bleve.NewSearchRequestOptions(typeQuery(entityType), clearBatchSize, 0, false)
		res, err := g.index.SearchInContext(ctx, req)
		if err != nil {
			return AsCallError("clear", entityType, "", err)
		}
		if len(res.Hits) == 0 {
			return nil
		}

		batch := g.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := g.index.Batch(batch); err != nil {
			return AsCallError("clear", entityType, "", err)
		}
	}
}

func (g *BleveGateway) Count(ctx context.Context, entityType string) (int, error) {
	req := bleve.NewSearchRequestOptions(typeQuery(entityType), 0, 0, false)
	res, err := g.index.SearchInContext(ctx, req)
	if err != nil {
		return 0, AsCallError("count", entityType, "", err)
	}
	return int(res.Total), nil
}

func typeQuery(entityType string) *query.TermQuery {
	q := bleve.NewTermQuery(entityType)
	q.SetField(typeField)
	return q
}
