package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticIndexer indexes add-on documents into an elasticsearch index.
type ElasticIndexer struct {
	transport esapi.Transport
	index     string
	refresh   string
	logger    *slog.Logger
}

// ElasticOption configures an ElasticIndexer.
type ElasticOption func(*ElasticIndexer)

// WithRefresh sets the refresh parameter sent with bulk requests ("true", "wait_for", "false").
func WithRefresh(refresh string) ElasticOption {
	return func(ix *ElasticIndexer) {
		ix.refresh = refresh
	}
}

// WithLogger sets the logger used for suppressed errors.
func WithLogger(logger *slog.Logger) ElasticOption {
	return func(ix *ElasticIndexer) {
		ix.logger = logger
	}
}

// NewElasticClient builds an elasticsearch client for the given cluster.
func NewElasticClient(url, username, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return client, nil
}

// NewElasticIndexer returns an indexer writing to index through transport,
// normally an *elasticsearch.Client.
func NewElasticIndexer(transport esapi.Transport, index string, opts ...ElasticOption) *ElasticIndexer {
	ix := &ElasticIndexer{
		transport: transport,
		index:     index,
		refresh:   "false",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// SetupMapping creates the index when missing and puts the add-on mapping.
// Errors reported by elasticsearch itself (an index that already exists, a
// conflicting mapping) are logged and ignored; transport failures are returned.
func (ix *ElasticIndexer) SetupMapping(ctx context.Context) error {
	exists, err := esapi.IndicesExistsRequest{Index: []string{ix.index}}.Do(ctx, ix.transport)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", ix.index, err)
	}
	drain(exists)

	if exists.StatusCode == 404 {
		res, err := esapi.IndicesCreateRequest{Index: ix.index}.Do(ctx, ix.transport)
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", ix.index, err)
		}
		if res.IsError() {
			ix.logger.Debug("ignoring index creation error", "index", ix.index, "error", responseError(res))
			return nil
		}
		drain(res)
	}

	body, err := json.Marshal(Mapping())
	if err != nil {
		return err
	}

	res, err := esapi.IndicesPutMappingRequest{
		Index: []string{ix.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, ix.transport)
	if err != nil {
		return fmt.Errorf("failed to put mapping on %s: %w", ix.index, err)
	}
	if res.IsError() {
		ix.logger.Debug("ignoring put mapping error", "index", ix.index, "error", responseError(res))
		return nil
	}
	drain(res)

	return nil
}

// Index writes docs with a single bulk request.
func (ix *ElasticIndexer) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := map[string]interface{}{
			"index": map[string]interface{}{"_index": ix.index, "_id": doc.ID()},
		}
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode document %s: %w", doc.ID(), err)
		}
	}

	return ix.bulk(ctx, &buf, nil)
}

// Delete removes the documents of the given add-ons.
func (ix *ElasticIndexer) Delete(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		action := map[string]interface{}{
			"delete": map[string]interface{}{"_index": ix.index, "_id": strconv.FormatUint(id, 10)},
		}
		if err := enc.Encode(action); err != nil {
			return err
		}
	}

	// Deleting a document that was never indexed reports 404; that is fine.
	return ix.bulk(ctx, &buf, map[int]bool{404: true})
}

// Ping checks that the cluster answers.
func (ix *ElasticIndexer) Ping(ctx context.Context) error {
	res, err := esapi.PingRequest{}.Do(ctx, ix.transport)
	if err != nil {
		return err
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping returned %d", res.StatusCode)
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string          `json:"_id"`
		Status int             `json:"status"`
		Error  json.RawMessage `json:"error,omitempty"`
	} `json:"items"`
}

func (ix *ElasticIndexer) bulk(ctx context.Context, body io.Reader, allowed map[int]bool) error {
	res, err := esapi.BulkRequest{
		Index:   ix.index,
		Body:    body,
		Refresh: ix.refresh,
	}.Do(ctx, ix.transport)
	if err != nil {
		return fmt.Errorf("bulk request failed: %w", err)
	}
	defer drain(res)

	if res.IsError() {
		return fmt.Errorf("bulk request failed: %s", responseError(res))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if !parsed.Errors {
		return nil
	}

	failed := 0
	var first string
	for _, item := range parsed.Items {
		for op, result := range item {
			if result.Status < 300 || allowed[result.Status] {
				continue
			}
			failed++
			if first == "" {
				first = fmt.Sprintf("%s %s: %d %s", op, result.ID, result.Status, string(result.Error))
			}
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("bulk request had %d failed items, first: %s", failed, first)
}

func responseError(res *esapi.Response) string {
	defer drain(res)
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.Status()
	}
	return fmt.Sprintf("%s %s", res.Status(), string(b))
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}
