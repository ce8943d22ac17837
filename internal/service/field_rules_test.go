package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// Rules blobs scanned from the database decode numbers as json.Number,
// while cached blobs decode to float64; both shapes must produce the
// same typed rule.
func TestParseFieldRuleNumberEncodings(t *testing.T) {
	scanned := map[string]interface{}{
		"min":     json.Number("1"),
		"max":     json.Number("5"),
		"integer": true,
	}
	cached := map[string]interface{}{
		"min":     float64(1),
		"max":     float64(5),
		"integer": true,
	}

	for name, rules := range map[string]map[string]interface{}{"scanned": scanned, "cached": cached} {
		parsed, err := parseFieldRule(models.FieldTypeNumber, rules)
		require.NoError(t, err, name)

		rule, ok := parsed.(NumberRule)
		require.True(t, ok, name)
		require.NotNil(t, rule.Min, name)
		require.NotNil(t, rule.Max, name)
		require.Equal(t, float64(1), *rule.Min, name)
		require.Equal(t, float64(5), *rule.Max, name)
		require.True(t, rule.Integer, name)
	}
}

func TestParseFieldRuleTextMaxLengthEncodings(t *testing.T) {
	for name, rules := range map[string]map[string]interface{}{
		"scanned": {"max_length": json.Number("2000")},
		"cached":  {"max_length": float64(2000)},
	} {
		parsed, err := parseFieldRule(models.FieldTypeText, rules)
		require.NoError(t, err, name)

		rule, ok := parsed.(TextRule)
		require.True(t, ok, name)
		require.NotNil(t, rule.MaxLength, name)
		require.Equal(t, 2000, *rule.MaxLength, name)
	}
}

func TestParseFieldRuleIgnoresUnparseableNumbers(t *testing.T) {
	parsed, err := parseFieldRule(models.FieldTypeNumber, map[string]interface{}{
		"min": json.Number("not-a-number"),
	})
	require.NoError(t, err)

	rule, ok := parsed.(NumberRule)
	require.True(t, ok)
	require.Nil(t, rule.Min)
}

func TestParseFieldRuleUnknownType(t *testing.T) {
	_, err := parseFieldRule("matrix", nil)
	require.Error(t, err)
}
