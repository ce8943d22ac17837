package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

const isoDateLayout = "2006-01-02"

// EmployeeLookup is the existence check submit-level validation runs
// for employee_reference fields.
type EmployeeLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// validateDraft applies the lenient draft checks: submitted keys must be
// declared by the form, and values must be plausible for the declared
// type. Blank values never fail here, required or not.
func validateDraft(specs map[string]FieldSpec, entries []dto.ResponseUpsert) []utils.FieldError {
	var fieldErrors []utils.FieldError

	for _, entry := range entries {
		spec, ok := specs[entry.QuestionKey]
		if !ok {
			fieldErrors = append(fieldErrors, utils.FieldError{
				Field: entry.QuestionKey, Code: "unknown_key", Message: "Not in form",
			})
			continue
		}

		value := ""
		if entry.ValueText != nil {
			value = strings.TrimSpace(*entry.ValueText)
		}
		if value == "" {
			continue
		}

		if !typeSane(spec, value) {
			fieldErrors = append(fieldErrors, utils.FieldError{
				Field: entry.QuestionKey, Code: "type", Message: "Type validation failed",
			})
		}
	}

	return fieldErrors
}

// typeSane reports whether the value could become valid for the
// declared type. Rule constraints are deferred to submit time.
func typeSane(spec FieldSpec, value string) bool {
	switch spec.Rule.(type) {
	case TextRule, SelectRule:
		return true
	case NumberRule:
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	case EmployeeReferenceRule:
		_, err := uuid.Parse(value)
		return err == nil
	case DateRule:
		_, err := time.Parse(isoDateLayout, value)
		return err == nil
	default:
		// Unrecognized declared type.
		return false
	}
}

// validateSubmit applies the strict submit checks over the stored
// responses: every stored key must be declared, every required field
// must be present, and every present value must satisfy its full rule.
func validateSubmit(ctx context.Context, specs map[string]FieldSpec, stored map[string]*string, employees EmployeeLookup) ([]utils.FieldError, error) {
	var fieldErrors []utils.FieldError

	storedKeys := make([]string, 0, len(stored))
	for key := range stored {
		storedKeys = append(storedKeys, key)
	}
	sort.Strings(storedKeys)
	for _, key := range storedKeys {
		if _, ok := specs[key]; !ok {
			fieldErrors = append(fieldErrors, utils.FieldError{
				Field: key, Code: "unknown_key", Message: "Not in form",
			})
		}
	}

	specKeys := make([]string, 0, len(specs))
	for key := range specs {
		specKeys = append(specKeys, key)
	}
	sort.Strings(specKeys)
	for _, key := range specKeys {
		spec := specs[key]

		value := ""
		if stored[key] != nil {
			value = strings.TrimSpace(*stored[key])
		}
		if value == "" {
			if spec.Required {
				fieldErrors = append(fieldErrors, utils.FieldError{
					Field: key, Code: "required", Message: "Required",
				})
			}
			continue
		}

		errs, err := validateValue(ctx, spec, value, employees)
		if err != nil {
			return nil, err
		}
		fieldErrors = append(fieldErrors, errs...)
	}

	return fieldErrors, nil
}

func validateValue(ctx context.Context, spec FieldSpec, value string, employees EmployeeLookup) ([]utils.FieldError, error) {
	key := spec.Key

	switch rule := spec.Rule.(type) {
	case TextRule:
		// Length limits count characters, not bytes.
		if rule.MaxLength != nil && utf8.RuneCountInString(value) > *rule.MaxLength {
			return []utils.FieldError{{
				Field: key, Code: "max_length",
				Message: fmt.Sprintf("Must be <= %d chars", *rule.MaxLength),
			}}, nil
		}
		return nil, nil

	case NumberRule:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return []utils.FieldError{{Field: key, Code: "type", Message: "Must be a number"}}, nil
		}

		var fieldErrors []utils.FieldError
		if rule.Integer && parsed != math.Trunc(parsed) {
			fieldErrors = append(fieldErrors, utils.FieldError{Field: key, Code: "integer", Message: "Must be an integer"})
		}
		if rule.Min != nil && parsed < *rule.Min {
			fieldErrors = append(fieldErrors, utils.FieldError{
				Field: key, Code: "min", Message: fmt.Sprintf("Must be >= %v", *rule.Min),
			})
		}
		if rule.Max != nil && parsed > *rule.Max {
			fieldErrors = append(fieldErrors, utils.FieldError{
				Field: key, Code: "max", Message: fmt.Sprintf("Must be <= %v", *rule.Max),
			})
		}
		return fieldErrors, nil

	case SelectRule:
		if len(rule.Choices) > 0 {
			for _, choice := range rule.Choices {
				if value == choice {
					return nil, nil
				}
			}
			return []utils.FieldError{{Field: key, Code: "choice", Message: "Must be one of allowed choices"}}, nil
		}
		return nil, nil

	case EmployeeReferenceRule:
		employeeID, err := uuid.Parse(value)
		if err != nil {
			return []utils.FieldError{{Field: key, Code: "type", Message: "Must be a UUID"}}, nil
		}
		exists, err := employees.Exists(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return []utils.FieldError{{Field: key, Code: "not_found", Message: "Employee not found"}}, nil
		}
		return nil, nil

	case DateRule:
		if _, err := time.Parse(isoDateLayout, value); err != nil {
			return []utils.FieldError{{Field: key, Code: "type", Message: "Must be ISO date YYYY-MM-DD"}}, nil
		}
		return nil, nil

	default:
		return []utils.FieldError{{
			Field: key, Code: "unknown_type",
			Message: fmt.Sprintf("Unknown type: %s", spec.Type),
		}}, nil
	}
}
