package search

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeTransport answers elasticsearch API calls from a routing function.
type fakeTransport struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(method, path string) (int, string)
}

func (f *fakeTransport) Perform(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: req.Method, Path: req.URL.Path, Body: body})
	f.mu.Unlock()

	status, payload := f.respond(req.Method, req.URL.Path)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(payload)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func (f *fakeTransport) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		calls = append(calls, r.Method+" "+r.Path)
	}
	return calls
}

func TestSetupMappingCreatesMissingIndex(t *testing.T) {
	transport := &fakeTransport{respond: func(method, path string) (int, string) {
		if method == http.MethodHead {
			return 404, ""
		}
		return 200, `{"acknowledged":true}`
	}}

	ix := NewElasticIndexer(transport, "addons")
	require.NoError(t, ix.SetupMapping(context.Background()))

	assert.Equal(t, []string{"HEAD /addons", "PUT /addons", "PUT /addons/_mapping"}, transport.calls())
	assert.JSONEq(t, `{"properties":{"name":{"type":"keyword"}}}`, transport.requests[2].Body)
}

func TestSetupMappingSkipsExistingIndex(t *testing.T) {
	transport := &fakeTransport{respond: func(method, path string) (int, string) {
		return 200, `{"acknowledged":true}`
	}}

	ix := NewElasticIndexer(transport, "addons")
	require.NoError(t, ix.SetupMapping(context.Background()))

	assert.Equal(t, []string{"HEAD /addons", "PUT /addons/_mapping"}, transport.calls())
}

func TestSetupMappingSuppressesSearchErrors(t *testing.T) {
	transport := &fakeTransport{respond: func(method, path string) (int, string) {
		if method == http.MethodHead {
			return 404, ""
		}
		return 400, `{"error":{"type":"resource_already_exists_exception"},"status":400}`
	}}

	ix := NewElasticIndexer(transport, "addons")
	assert.NoError(t, ix.SetupMapping(context.Background()))
}

func TestIndexSendsBulkRequest(t *testing.T) {
	transport := &fakeTransport{respond: func(method, path string) (int, string) {
		return 200, `{"errors":false,"items":[{"index":{"_id":"3615","status":201}}]}`
	}}

	ix := NewElasticIndexer(transport, "addons", WithRefresh("true"))
	err := ix.Index(context.Background(), []Document{Extract(testAddon())})
	require.NoError(t, err)

	require.Len(t, transport.requests, 1)
	req := transport.requests[0]
	assert.Equal(t, "POST /addons/_bulk", req.Method+" "+req.Path)

	lines := strings.Split(strings.TrimSpace(req.Body), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"index":{"_index":"addons","_id":"3615"}}`, lines[0])
	assert.Contains(t, lines[1], `"name":"Delicious Bookmarks"`)
}

func TestIndexReportsItemFailures(t *testing.T) {
	transport := &fakeTransport{respond: func(method, path string) (int, string) {
		return 200, `{"errors":true,"items":[{"index":{"_id":"1","status":400,"error":{"type":"mapper_parsing_exception"}}}]}`
	}}

	ix := NewElasticIndexer(transport, "addons")
	err := ix.Index(context.Background(), []Document{{"id": uint64(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestIndexEmptyIsNoop(t *testing.T) {
	transport := &fakeTransport{respond: func(method, path string) (int, string) { return 500, "" }}

	ix := NewElasticIndexer(transport, "addons")
	assert.NoError(t, ix.Index(context.Background(), nil))
	assert.Empty(t, transport.calls())
}

func TestDeleteIgnoresMissingDocuments(t *testing.T) {
	transport := &fakeTransport{respond: func(method, path string) (int, string) {
		return 200, `{"errors":true,"items":[{"delete":{"_id":"7","status":404,"result":"not_found"}}]}`
	}}

	ix := NewElasticIndexer(transport, "addons")
	require.NoError(t, ix.Delete(context.Background(), []uint64{7}))
	assert.Contains(t, transport.requests[0].Body, `{"delete":{"_id":"7","_index":"addons"}}`)
}

func TestPing(t *testing.T) {
	up := &fakeTransport{respond: func(method, path string) (int, string) { return 200, "" }}
	assert.NoError(t, NewElasticIndexer(up, "addons").Ping(context.Background()))

	down := &fakeTransport{respond: func(method, path string) (int, string) { return 503, "" }}
	assert.Error(t, NewElasticIndexer(down, "addons").Ping(context.Background()))
}
