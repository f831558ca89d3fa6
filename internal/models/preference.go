// internal/models/preference.go
package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Direction says whether more of a nutrient is better ("up") or worse ("down").
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionNone Direction = "none"
)

// Preference maps nutrient keys to the user's desired direction.
// Only keys with DirectionUp or DirectionDown are kept.
type Preference map[string]Direction

// ParseDirection accepts the encodings stored on user profiles:
// 1 / "up" and -1 / "down". Anything else is DirectionNone.
func ParseDirection(v interface{}) Direction {
	switch t := v.(type) {
	case Direction:
		return ParseDirection(string(t))
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "up", "1", "+1":
			return DirectionUp
		case "down", "-1":
			return DirectionDown
		}
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return ParseDirection(f)
		}
	case float64:
		switch t {
		case 1:
			return DirectionUp
		case -1:
			return DirectionDown
		}
	case int:
		return ParseDirection(float64(t))
	case int64:
		return ParseDirection(float64(t))
	}
	return DirectionNone
}

// ParsePreferences converts a raw nutrition document into a Preference,
// dropping ignored nutrients.
func ParsePreferences(raw map[string]interface{}) Preference {
	prefs := make(Preference, len(raw))
	for key, v := range raw {
		if d := ParseDirection(v); d != DirectionNone {
			prefs[key] = d
		}
	}
	return prefs
}

// UnmarshalJSON accepts mixed numeric and string directions.
func (p *Preference) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*p = ParsePreferences(raw)
	return nil
}

// Keys returns the nutrient keys in sorted order.
func (p Preference) Keys() []string {
	keys := make([]string, 0, len(p))
	for k, d := range p {
		if d == DirectionUp || d == DirectionDown {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
