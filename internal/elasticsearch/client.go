package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/DeafMist/incident-radar/internal/models"
)

// Client wraps go-elasticsearch with helpers tailored to this project.
type Client struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// SearchParams narrow the search endpoint query.
type SearchParams struct {
	Query  string
	Topic  models.Topic
	Action string
	From   int
	Size   int
	Sort   string
}

// SearchResult bundles hits and total count.
type SearchResult struct {
	Total int64                      `json:"total"`
	Items []models.AnnotatedDocument `json:"items"`
}

// New instantiates the Elasticsearch client.
func New(addr, index string, logger *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, index: index, log: logger}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// Publish indexes docs in one bulk request. Documents are keyed by their
// composite-key hash, so publishing the same record twice overwrites it.
func (c *Client) Publish(ctx context.Context, docs []models.AnnotatedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	body, err := BulkBody(c.index, docs)
	if err != nil {
		return err
	}

	req := esapi.BulkRequest{
		Body:    bytes.NewReader(body),
		Refresh: "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("bulk index failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		failed := 0
		first := ""
		for _, item := range parsed.Items {
			for _, op := range item {
				if op.Error != nil {
					failed++
					if first == "" {
						first = op.Error.Reason
					}
				}
			}
		}
		return fmt.Errorf("bulk index: %d of %d documents failed: %s", failed, len(docs), first)
	}

	c.log.Info("indexed incidents", slog.Int("count", len(docs)), slog.String("index", c.index))
	return nil
}

// BulkBody renders the NDJSON payload of a bulk index request.
func BulkBody(index string, docs []models.AnnotatedDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		meta := map[string]any{
			"index": map[string]any{"_index": index, "_id": doc.ID()},
		}
		if err := enc.Encode(meta); err != nil {
			return nil, fmt.Errorf("marshal bulk meta: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("marshal doc: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// SearchIncidents executes a bool query with optional filters.
func (c *Client) SearchIncidents(ctx context.Context, params SearchParams) (*SearchResult, error) {
	payload, err := json.Marshal(SearchBody(params))
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.AnnotatedDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]models.AnnotatedDocument, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}

	return &SearchResult{
		Total: parsed.Hits.Total.Value,
		Items: items,
	}, nil
}

// SearchBody builds the query document for params, clamping paging values.
func SearchBody(params SearchParams) map[string]any {
	if params.Size <= 0 {
		params.Size = 20
	}
	if params.Size > 200 {
		params.Size = 200
	}
	if params.From < 0 {
		params.From = 0
	}

	must := make([]map[string]any, 0, 1)
	filters := make([]map[string]any, 0, 2)

	if params.Query != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  params.Query,
				"fields": []string{"title^2", "text", "keyword_match"},
			},
		})
	}

	if params.Topic != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"topic.keyword": string(params.Topic)},
		})
	}

	if params.Action != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"extraction.actions.keyword": params.Action},
		})
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if len(must) == 0 && len(filters) == 0 {
		boolQuery["must"] = []map[string]any{
			{"match_all": map[string]any{}},
		}
	}

	body := map[string]any{
		"from":             params.From,
		"size":             params.Size,
		"track_total_hits": true,
		"query": map[string]any{
			"bool": boolQuery,
		},
	}

	if params.Sort != "" {
		parts := strings.Split(params.Sort, ":")
		field := parts[0]
		order := "desc"
		if len(parts) > 1 && parts[1] != "" {
			order = parts[1]
		}
		if field != "" {
			body["sort"] = []map[string]any{
				{field: map[string]any{"order": order}},
			}
		}
	}

	return body
}

// Health pings Elasticsearch to ensure connectivity.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
