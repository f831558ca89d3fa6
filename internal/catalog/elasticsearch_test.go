package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"basket-optimizer/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, status int, body string, seen *map[string]interface{}) *ElasticsearchRepository {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, seen)
			(*seen)["_path"] = r.URL.Path
			(*seen)["_size"] = r.URL.Query().Get("size")
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewElasticsearchRepository(client, "products", 500, logger.NewTestLogger(t))
}

func TestElasticsearchRepository_Load(t *testing.T) {
	body := `{
		"hits": {
			"total": {"value": 3},
			"hits": [
				{"_id": "doc-1", "_source": {"id": 101, "name": "Oats", "genre": "grain", "price_yen": 398, "protein": 13.7}},
				{"_id": "doc-2", "_source": {"name": "Milk", "category": "dairy", "priceTax": "238", "calcium": 110}},
				{"_id": "doc-3", "_source": "not an object"}
			]
		}
	}`
	seen := map[string]interface{}{}
	repo := newTestRepository(t, http.StatusOK, body, &seen)

	items, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "101", items[0].ID)
	assert.Equal(t, "Oats", items[0].Name)
	require.NotNil(t, items[0].Price)
	assert.Equal(t, "398", items[0].Price.String())

	assert.Equal(t, "doc-2", items[1].ID, "falls back to the document id")
	assert.Equal(t, "dairy", items[1].DisplayGenre())

	assert.Equal(t, "/products/_search", seen["_path"])
	assert.Equal(t, "500", seen["_size"])
	assert.Contains(t, seen, "query")
}

func TestElasticsearchRepository_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"missing index", http.StatusNotFound, `{"error":{"type":"index_not_found_exception"},"status":404}`, ErrIndexNotFound},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrSearchFailed},
		{"bad body", http.StatusOK, `{"hits":`, ErrSearchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepository(t, tt.status, tt.body, nil)
			_, err := repo.Load(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
