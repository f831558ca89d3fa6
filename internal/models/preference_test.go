// internal/models/preference_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input    interface{}
		expected Direction
	}{
		{input: 1, expected: DirectionUp},
		{input: 1.0, expected: DirectionUp},
		{input: json.Number("1"), expected: DirectionUp},
		{input: "up", expected: DirectionUp},
		{input: " UP ", expected: DirectionUp},
		{input: "+1", expected: DirectionUp},
		{input: -1, expected: DirectionDown},
		{input: json.Number("-1"), expected: DirectionDown},
		{input: "down", expected: DirectionDown},
		{input: "-1", expected: DirectionDown},
		{input: 0, expected: DirectionNone},
		{input: 2, expected: DirectionNone},
		{input: "sideways", expected: DirectionNone},
		{input: nil, expected: DirectionNone},
		{input: true, expected: DirectionNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseDirection(tt.input), "%#v", tt.input)
	}
}

func TestParsePreferences_DropsIgnoredNutrients(t *testing.T) {
	prefs := ParsePreferences(map[string]interface{}{
		"fiber":   1.0,
		"salt":    -1.0,
		"sugar":   0.0,
		"protein": "up",
	})

	assert.Equal(t, Preference{
		"fiber":   DirectionUp,
		"salt":    DirectionDown,
		"protein": DirectionUp,
	}, prefs)
	assert.Equal(t, []string{"fiber", "protein", "salt"}, prefs.Keys())
}

func TestPreference_UnmarshalJSON(t *testing.T) {
	var prefs Preference
	require.NoError(t, json.Unmarshal([]byte(`{"fiber":1,"salt":-1,"fat":0,"iron":"down"}`), &prefs))

	assert.Len(t, prefs, 3)
	assert.Equal(t, DirectionUp, prefs["fiber"])
	assert.Equal(t, DirectionDown, prefs["salt"])
	assert.Equal(t, DirectionDown, prefs["iron"])
	assert.NotContains(t, prefs, "fat")

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &prefs))
}
