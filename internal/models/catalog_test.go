// internal/models/catalog_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogItem_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		validateOutput func(t *testing.T, item CatalogItem)
	}{
		{
			name:  "flat document with nutrient columns",
			input: `{"id":"sku-1","name":"Oat bar","genre":"snacks","imgUrl":"https://img/1.png","price":198,"fiber":3.2,"salt":"0.4"}`,
			validateOutput: func(t *testing.T, item CatalogItem) {
				assert.Equal(t, "sku-1", item.ID)
				assert.Equal(t, "Oat bar", item.Name)
				assert.Equal(t, "snacks", item.Genre)
				assert.Equal(t, "https://img/1.png", item.ImgURL)
				require.NotNil(t, item.Price)
				assert.Equal(t, "198", item.Price.String())
				assert.Equal(t, json.Number("3.2"), item.Nutrients["fiber"])
				assert.Equal(t, "0.4", item.Nutrients["salt"])
				assert.NotContains(t, item.Nutrients, "price")
				assert.NotContains(t, item.Nutrients, "name")
			},
		},
		{
			name:  "numeric _id and imageUrl",
			input: `{"_id":42,"imageUrl":"https://img/42.png","price":"10.5"}`,
			validateOutput: func(t *testing.T, item CatalogItem) {
				assert.Equal(t, "42", item.ID)
				assert.Equal(t, "https://img/42.png", item.ImgURL)
				require.NotNil(t, item.Price)
				assert.Equal(t, "10.5", item.Price.String())
			},
		},
		{
			name:  "price_yen wins over price",
			input: `{"id":"a","price_yen":120,"priceTax":130,"price":999}`,
			validateOutput: func(t *testing.T, item CatalogItem) {
				require.NotNil(t, item.Price)
				assert.Equal(t, "120", item.Price.String())
			},
		},
		{
			name:  "unparseable price falls through to next key",
			input: `{"id":"a","price_yen":"n/a","priceTax":130}`,
			validateOutput: func(t *testing.T, item CatalogItem) {
				require.NotNil(t, item.Price)
				assert.Equal(t, "130", item.Price.String())
			},
		},
		{
			name:  "missing price",
			input: `{"id":"a","name":"free sample"}`,
			validateOutput: func(t *testing.T, item CatalogItem) {
				assert.Nil(t, item.Price)
			},
		},
		{
			name:  "nested nutrients are merged",
			input: `{"id":"a","price":1,"nutrients":{"protein":12},"fiber":2}`,
			validateOutput: func(t *testing.T, item CatalogItem) {
				assert.Equal(t, json.Number("12"), item.Nutrients["protein"])
				assert.Equal(t, json.Number("2"), item.Nutrients["fiber"])
				assert.NotContains(t, item.Nutrients, "nutrients")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item CatalogItem
			require.NoError(t, json.Unmarshal([]byte(tt.input), &item))
			tt.validateOutput(t, item)
		})
	}
}

func TestCatalogItem_UnmarshalJSON_Invalid(t *testing.T) {
	var item CatalogItem
	assert.Error(t, json.Unmarshal([]byte(`["not","an","object"]`), &item))
}

func TestCatalogItem_MarshalJSON_RoundTripsFlatShape(t *testing.T) {
	var item CatalogItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","name":"Apple","category":"fruit","priceTax":"98.5","sugar":10}`), &item))

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "a", raw["id"])
	assert.Equal(t, "fruit", raw["category"])
	assert.Equal(t, 98.5, raw["price"])
	assert.Equal(t, 10.0, raw["sugar"])
}

func TestCatalogItem_DisplayGenre(t *testing.T) {
	assert.Equal(t, "snacks", CatalogItem{Genre: "snacks", Category: "food"}.DisplayGenre())
	assert.Equal(t, "food", CatalogItem{Category: "food"}.DisplayGenre())
	assert.Equal(t, "", CatalogItem{}.DisplayGenre())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{name: "json number", input: json.Number("12.30"), expected: "12.3"},
		{name: "string with spaces", input: " 45 ", expected: "45"},
		{name: "float", input: 9.99, expected: "9.99"},
		{name: "int", input: 7, expected: "7"},
		{name: "negative", input: -3, expected: "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePrice(tt.input)
			require.NotNil(t, p)
			assert.Equal(t, tt.expected, p.String())
		})
	}

	for _, bad := range []interface{}{nil, "", "abc", true, []int{1}} {
		assert.Nil(t, ParsePrice(bad), "%v", bad)
	}
}
