// internal/models/catalog.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CatalogItem is one purchasable product as delivered by the catalog index.
// Any field that is not one of the reserved keys below is kept in Nutrients
// with its raw decoded value; numeric parsing happens during normalization.
type CatalogItem struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Category  string                 `json:"category,omitempty"`
	Genre     string                 `json:"genre,omitempty"`
	ImgURL    string                 `json:"imgUrl,omitempty"`
	Price     *decimal.Decimal       `json:"price,omitempty"`
	Nutrients map[string]interface{} `json:"nutrients,omitempty"`
}

// NormalizedItem pairs a catalog item with its health score. A nil score
// means no active nutrient could be scored for the item.
type NormalizedItem struct {
	Item        CatalogItem `json:"item"`
	HealthScore *float64    `json:"healthScore,omitempty"`
}

// Price keys in lookup order.
var priceKeys = []string{"price_yen", "priceTax", "price"}

var reservedKeys = map[string]bool{
	"id":        true,
	"_id":       true,
	"name":      true,
	"category":  true,
	"genre":     true,
	"imgUrl":    true,
	"imageUrl":  true,
	"nutrients": true,
	"price_yen": true,
	"priceTax":  true,
	"price":     true,
}

// UnmarshalJSON accepts the flat document shape used by the catalog index:
// nutrient values sit next to the descriptive fields, the id may be a string
// or a number, and the price may be stored under price_yen, priceTax or price.
func (c *CatalogItem) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode catalog item: %w", err)
	}

	item := CatalogItem{Nutrients: map[string]interface{}{}}

	if v, ok := raw["id"]; ok && v != nil {
		item.ID = stringify(v)
	} else if v, ok := raw["_id"]; ok && v != nil {
		item.ID = stringify(v)
	}
	item.Name = stringValue(raw["name"])
	item.Category = stringValue(raw["category"])
	item.Genre = stringValue(raw["genre"])
	item.ImgURL = stringValue(raw["imgUrl"])
	if item.ImgURL == "" {
		item.ImgURL = stringValue(raw["imageUrl"])
	}

	for _, key := range priceKeys {
		if p := ParsePrice(raw[key]); p != nil {
			item.Price = p
			break
		}
	}

	if nested, ok := raw["nutrients"].(map[string]interface{}); ok {
		for k, v := range nested {
			item.Nutrients[k] = v
		}
	}
	for k, v := range raw {
		if reservedKeys[k] {
			continue
		}
		item.Nutrients[k] = v
	}

	*c = item
	return nil
}

// MarshalJSON writes the flat document shape read by UnmarshalJSON.
func (c CatalogItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Nutrients)+6)
	for k, v := range c.Nutrients {
		out[k] = v
	}
	out["id"] = c.ID
	out["name"] = c.Name
	if c.Category != "" {
		out["category"] = c.Category
	}
	if c.Genre != "" {
		out["genre"] = c.Genre
	}
	if c.ImgURL != "" {
		out["imgUrl"] = c.ImgURL
	}
	if c.Price != nil {
		out["price"] = json.Number(c.Price.String())
	}
	return json.Marshal(out)
}

// DisplayGenre is the genre shown to users, falling back to the category.
func (c CatalogItem) DisplayGenre() string {
	if c.Genre != "" {
		return c.Genre
	}
	return c.Category
}

// ParsePrice reads a price from a decoded JSON value. Absent, empty and
// non-numeric values yield nil.
func ParsePrice(v interface{}) *decimal.Decimal {
	var (
		d   decimal.Decimal
		err error
	)
	switch t := v.(type) {
	case nil:
		return nil
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		d, err = decimal.NewFromString(s)
	case float64:
		d = decimal.NewFromFloat(t)
	case float32:
		d = decimal.NewFromFloat32(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case decimal.Decimal:
		d = t
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &d
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
