package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticConfig configures the Elasticsearch backend.
type ElasticConfig struct {
	Addresses   []string
	Username    string
	Password    string
	IndexPrefix string
	// Refresh is passed through on writes ("", "true", "false" or "wait_for").
	Refresh    string
	MaxResults int
}

// ElasticGateway stores each entity type in its own index named
// IndexPrefix + type.
type ElasticGateway struct {
	client     *elasticsearch.Client
	prefix     string
	refresh    string
	maxResults int
}

func NewElastic(cfg ElasticConfig) (*ElasticGateway, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	return &ElasticGateway{
		client:     client,
		prefix:     cfg.IndexPrefix,
		refresh:    cfg.Refresh,
		maxResults: maxResults,
	}, nil
}

func (g *ElasticGateway) indexName(entityType string) string {
	return g.prefix + entityType
}

func (g *ElasticGateway) Put(ctx context.Context, entityType, id string, fields map[string]string) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return AsCallError("put", entityType, id, err)
	}

	req := esapi.IndexRequest{
		Index:      g.indexName(entityType),
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    g.refresh,
	}
	res, err := req.Do(ctx, g.client)
	if err != nil {
		return AsCallError("put", entityType, id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return AsCallError("put", entityType, id, responseError(res))
	}
	return nil
}

func (g *ElasticGateway) Delete(ctx context.Context, entityType, id string) error {
	req := esapi.DeleteRequest{
		Index:      g.indexName(entityType),
		DocumentID: id,
		Refresh:    g.refresh,
	}
	res, err := req.Do(ctx, g.client)
	if err != nil {
		return AsCallError("delete", entityType, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return AsCallError("delete", entityType, id, responseError(res))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Query runs a multi_match over every field of the type's index. A missing
// index means nothing of that type was ever indexed.
func (g *ElasticGateway) Query(ctx context.Context, entityType, text string) ([]string, int, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"*"},
			},
		},
		"size":    g.maxResults,
		"_source": false,
	})
	if err != nil {
		return nil, 0, AsCallError("query", entityType, "", err)
	}

	req := esapi.SearchRequest{
		Index: []string{g.indexName(entityType)},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, g.client)
	if err != nil {
		return nil, 0, AsCallError("query", entityType, "", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, 0, nil
	}
	if res.IsError() {
		return nil, 0, AsCallError("query", entityType, "", responseError(res))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, AsCallError("query", entityType, "", fmt.Errorf("decode response: %w", err))
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, parsed.Hits.Total.Value, nil
}

// Clear drops the type's index; it is recreated on the next put.
func (g *ElasticGateway) Clear(ctx context.Context, entityType string) error {
	req := esapi.IndicesDeleteRequest{Index: []string{g.indexName(entityType)}}
	res, err := req.Do(ctx, g.client)
	if err != nil {
		return AsCallError("clear", entityType, "", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return AsCallError("clear", entityType, "", responseError(res))
	}
	return nil
}

func (g *ElasticGateway) Count(ctx context.Context, entityType string) (int, error) {
	req := esapi.CountRequest{Index: []string{g.indexName(entityType)}}
	res, err := req.Do(ctx, g.client)
	if err != nil {
		return 0, AsCallError("count", entityType, "", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if res.IsError() {
		return 0, AsCallError("count", entityType, "", responseError(res))
	}

	var parsed struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, AsCallError("count", entityType, "", fmt.Errorf("decode response: %w", err))
	}
	return parsed.Count, nil
}

func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%s: %s", res.Status(), strings.TrimSpace(string(body)))
}
