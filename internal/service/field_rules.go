package service

import (
	"encoding/json"
	"fmt"

	"github.com/noah-isme/revu-go-api/internal/models"
)

// FieldRule is the closed set of validation rules a field type can
// carry. The stored rules blob is parsed once at schema-resolution time
// so validation operates on typed values, not map lookups.
type FieldRule interface {
	fieldRule()
}

// TextRule limits free text length.
type TextRule struct {
	MaxLength *int
}

// NumberRule constrains numeric answers.
type NumberRule struct {
	Min     *float64
	Max     *float64
	Integer bool
}

// SelectRule restricts the answer to a fixed choice list. An empty list
// accepts any non-empty string.
type SelectRule struct {
	Choices []string
}

// EmployeeReferenceRule marks a field whose value must be the UUID of an
// existing employee.
type EmployeeReferenceRule struct{}

// DateRule marks a field whose value must be an ISO-8601 calendar date.
type DateRule struct{}

func (TextRule) fieldRule()              {}
func (NumberRule) fieldRule()            {}
func (SelectRule) fieldRule()            {}
func (EmployeeReferenceRule) fieldRule() {}
func (DateRule) fieldRule()              {}

// FieldSpec is one resolved form field: base definition merged with the
// template's overrides, with a parsed rule.
type FieldSpec struct {
	Key      string
	Label    string
	Type     string
	Required bool
	Position int
	Rule     FieldRule
}

// parseFieldRule converts a stored rules blob into the typed rule for
// the declared field type. Unknown keys in the blob are ignored; an
// unknown field type is an error.
func parseFieldRule(fieldType string, rules map[string]interface{}) (FieldRule, error) {
	switch fieldType {
	case models.FieldTypeText:
		rule := TextRule{}
		if v, ok := ruleInt(rules, "max_length"); ok {
			rule.MaxLength = &v
		}
		return rule, nil

	case models.FieldTypeNumber:
		rule := NumberRule{}
		if v, ok := ruleFloat(rules, "min"); ok {
			rule.Min = &v
		}
		if v, ok := ruleFloat(rules, "max"); ok {
			rule.Max = &v
		}
		if v, ok := rules["integer"].(bool); ok {
			rule.Integer = v
		}
		return rule, nil

	case models.FieldTypeSelect:
		rule := SelectRule{}
		if raw, ok := rules["choices"].([]interface{}); ok {
			for _, choice := range raw {
				if s, ok := choice.(string); ok {
					rule.Choices = append(rule.Choices, s)
				}
			}
		}
		return rule, nil

	case models.FieldTypeEmployeeReference:
		return EmployeeReferenceRule{}, nil

	case models.FieldTypeDate:
		return DateRule{}, nil

	default:
		return nil, fmt.Errorf("unknown field type: %s", fieldType)
	}
}

// ruleFloat reads a numeric rule value. Blobs scanned from the database
// arrive as json.Number (datatypes.JSONMap decodes with UseNumber),
// while cached blobs unmarshal to float64; both must resolve.
func ruleFloat(rules map[string]interface{}, key string) (float64, bool) {
	switch v := rules[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func ruleInt(rules map[string]interface{}, key string) (int, bool) {
	if v, ok := ruleFloat(rules, key); ok {
		return int(v), true
	}
	return 0, false
}
