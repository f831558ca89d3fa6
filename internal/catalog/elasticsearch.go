// Package catalog loads purchasable items from the catalog index.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrIndexNotFound = errors.New("catalog index not found")
	ErrSearchFailed  = errors.New("catalog search failed")
)

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ElasticsearchRepository reads the whole catalog index, capped at maxSize
// documents.
type ElasticsearchRepository struct {
	client  *elasticsearch.Client
	index   string
	maxSize int
	logger  logger.Logger
}

func NewElasticsearchRepository(client *elasticsearch.Client, index string, maxSize int, log logger.Logger) *ElasticsearchRepository {
	return &ElasticsearchRepository{
		client:  client,
		index:   index,
		maxSize: maxSize,
		logger:  log.WithFields(map[string]interface{}{"component": "catalog", "index": index}),
	}
}

// Load returns the catalog items in index order. Documents that cannot be
// decoded are skipped with a warning.
func (r *ElasticsearchRepository) Load(ctx context.Context) ([]models.CatalogItem, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{"_doc"},
	})
	if err != nil {
		return nil, err
	}

	size := r.maxSize
	req := esapi.SearchRequest{
		Index:          []string{r.index},
		Body:           bytes.NewReader(body),
		Size:           &size,
		TrackTotalHits: true,
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, r.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	items := make([]models.CatalogItem, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var item models.CatalogItem
		if err := json.Unmarshal(hit.Source, &item); err != nil {
			r.logger.Warn("skipping undecodable catalog document", map[string]interface{}{
				"docId": hit.ID,
				"error": err.Error(),
			})
			continue
		}
		if item.ID == "" {
			item.ID = hit.ID
		}
		items = append(items, item)
	}

	if parsed.Hits.Total.Value > int64(len(parsed.Hits.Hits)) {
		r.logger.Warn("catalog truncated", map[string]interface{}{
			"total":  parsed.Hits.Total.Value,
			"loaded": len(parsed.Hits.Hits),
		})
	}

	r.logger.Debug("catalog loaded", map[string]interface{}{"items": len(items)})
	return items, nil
}
