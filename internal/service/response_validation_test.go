package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/utils"
)

type staticEmployeeLookup map[uuid.UUID]bool

func (l staticEmployeeLookup) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return l[id], nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testSpecs() map[string]FieldSpec {
	return map[string]FieldSpec{
		"overall_rating": {
			Key: "overall_rating", Type: models.FieldTypeNumber, Required: true,
			Rule: NumberRule{Min: floatPtr(1), Max: floatPtr(5), Integer: true},
		},
		"strengths": {
			Key: "strengths", Type: models.FieldTypeText,
			Rule: TextRule{MaxLength: intPtr(10)},
		},
		"promotion_readiness": {
			Key: "promotion_readiness", Type: models.FieldTypeSelect,
			Rule: SelectRule{Choices: []string{"READY", "NOT_READY"}},
		},
		"recommended_mentor": {
			Key: "recommended_mentor", Type: models.FieldTypeEmployeeReference,
			Rule: EmployeeReferenceRule{},
		},
		"review_date": {
			Key: "review_date", Type: models.FieldTypeDate,
			Rule: DateRule{},
		},
	}
}

func codesByField(fieldErrors []utils.FieldError) map[string]string {
	out := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		out[fe.Field] = fe.Code
	}
	return out
}

func TestValidateDraftAcceptsBlanksAndPartialInput(t *testing.T) {
	specs := testSpecs()

	fieldErrors := validateDraft(specs, []dto.ResponseUpsert{
		{QuestionKey: "overall_rating", ValueText: str("")},
		{QuestionKey: "strengths", ValueText: nil},
		{QuestionKey: "review_date", ValueText: str("  ")},
	})
	require.Empty(t, fieldErrors)
}

func TestValidateDraftRejectsUnknownKeysAndImpossibleTypes(t *testing.T) {
	specs := testSpecs()

	fieldErrors := validateDraft(specs, []dto.ResponseUpsert{
		{QuestionKey: "not_a_field", ValueText: str("x")},
		{QuestionKey: "overall_rating", ValueText: str("high")},
		{QuestionKey: "recommended_mentor", ValueText: str("not-a-uuid")},
		{QuestionKey: "review_date", ValueText: str("March 5")},
	})
	codes := codesByField(fieldErrors)
	require.Equal(t, "unknown_key", codes["not_a_field"])
	require.Equal(t, "type", codes["overall_rating"])
	require.Equal(t, "type", codes["recommended_mentor"])
	require.Equal(t, "type", codes["review_date"])
}

func TestValidateDraftDefersRuleConstraints(t *testing.T) {
	specs := testSpecs()

	// Out-of-range and over-length values pass the draft check; only
	// submit enforces the full rules.
	fieldErrors := validateDraft(specs, []dto.ResponseUpsert{
		{QuestionKey: "overall_rating", ValueText: str("99")},
		{QuestionKey: "strengths", ValueText: str("way more than ten characters")},
		{QuestionKey: "promotion_readiness", ValueText: str("MAYBE")},
	})
	require.Empty(t, fieldErrors)
}

func TestValidateSubmitEnforcesRequiredAndRules(t *testing.T) {
	specs := testSpecs()
	mentor := uuid.New()
	lookup := staticEmployeeLookup{mentor: true}

	fieldErrors, err := validateSubmit(context.Background(), specs, map[string]*string{
		"strengths":           str("way more than ten characters"),
		"promotion_readiness": str("MAYBE"),
		"recommended_mentor":  str(uuid.NewString()),
		"review_date":         str("2026-13-45"),
	}, lookup)
	require.NoError(t, err)

	codes := codesByField(fieldErrors)
	require.Equal(t, "required", codes["overall_rating"])
	require.Equal(t, "max_length", codes["strengths"])
	require.Equal(t, "choice", codes["promotion_readiness"])
	require.Equal(t, "not_found", codes["recommended_mentor"])
	require.Equal(t, "type", codes["review_date"])
}

func TestValidateSubmitNumberRules(t *testing.T) {
	specs := testSpecs()
	lookup := staticEmployeeLookup{}

	cases := []struct {
		value string
		code  string
	}{
		{"4", ""},
		{"4.5", "integer"},
		{"0", "min"},
		{"9", "max"},
	}
	for _, tc := range cases {
		fieldErrors, err := validateSubmit(context.Background(), specs, map[string]*string{
			"overall_rating": str(tc.value),
		}, lookup)
		require.NoError(t, err)

		codes := codesByField(fieldErrors)
		if tc.code == "" {
			require.NotContains(t, codes, "overall_rating", "value %s", tc.value)
		} else {
			require.Equal(t, tc.code, codes["overall_rating"], "value %s", tc.value)
		}
	}
}

func TestValidateSubmitAcceptsCompleteValidResponses(t *testing.T) {
	specs := testSpecs()
	mentor := uuid.New()
	lookup := staticEmployeeLookup{mentor: true}

	fieldErrors, err := validateSubmit(context.Background(), specs, map[string]*string{
		"overall_rating":      str("4"),
		"strengths":           str("solid"),
		"promotion_readiness": str("READY"),
		"recommended_mentor":  str(mentor.String()),
		"review_date":         str("2026-08-26"),
	}, lookup)
	require.NoError(t, err)
	require.Empty(t, fieldErrors)
}

func TestValidateSubmitCountsCharactersNotBytes(t *testing.T) {
	specs := testSpecs()
	lookup := staticEmployeeLookup{}

	// Ten runes, thirty bytes: within the limit of 10.
	within, err := validateSubmit(context.Background(), specs, map[string]*string{
		"overall_rating": str("4"),
		"strengths":      str("誠実で協力的な姿勢で"),
	}, lookup)
	require.NoError(t, err)
	require.NotContains(t, codesByField(within), "strengths")

	// Eleven runes: one over.
	over, err := validateSubmit(context.Background(), specs, map[string]*string{
		"overall_rating": str("4"),
		"strengths":      str("誠実で協力的な姿勢です"),
	}, lookup)
	require.NoError(t, err)
	require.Equal(t, "max_length", codesByField(over)["strengths"])
}

func TestValidateSubmitRejectsStoredUnknownKeys(t *testing.T) {
	specs := testSpecs()

	fieldErrors, err := validateSubmit(context.Background(), specs, map[string]*string{
		"overall_rating": str("4"),
		"legacy_field":   str("x"),
	}, staticEmployeeLookup{})
	require.NoError(t, err)
	require.Equal(t, "unknown_key", codesByField(fieldErrors)["legacy_field"])
}
