package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validatorText = "Dr. Alice Smith works at New York University in New York."

func TestValidate_GroundedSpansPass(t *testing.T) {
	errs := Validate(validatorText, []Span{
		{Type: "Person", Text: "Alice Smith"},
		{Type: "Org", Text: "New York University"},
	})
	assert.Empty(t, errs)
}

func TestValidate_HallucinatedSpanFails(t *testing.T) {
	errs := Validate(validatorText, []Span{
		{Type: "Person", Text: "Alice Smith"},
		{Type: "Location", Text: "Cupertino"},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `"Cupertino"`)
	assert.Contains(t, errs[0], "was not found in the original text")
}

func TestValidate_IsCaseSensitive(t *testing.T) {
	errs := Validate(validatorText, []Span{{Type: "Person", Text: "alice smith"}})
	assert.Len(t, errs, 1)
}

func TestValidate_NoSpansIsVacuouslyValid(t *testing.T) {
	assert.Empty(t, Validate(validatorText, nil))
}

func TestValidateOutput_NilOutputIsDistinctFailure(t *testing.T) {
	spans, errs := ValidateOutput(validatorText, nil)
	assert.Nil(t, spans)
	require.Len(t, errs, 1)
	assert.Equal(t, errEmptyOutput, errs[0])
}

func TestValidateOutput_SuccessReturnsFlattenedSpans(t *testing.T) {
	spans, errs := ValidateOutput(validatorText, StructuredOutput{
		"person": []any{"Alice Smith"},
	})
	assert.Empty(t, errs)
	assert.Equal(t, []Span{{Type: "Person", Text: "Alice Smith"}}, spans)
}

func TestValidateOutput_FailureReturnsNoSpans(t *testing.T) {
	spans, errs := ValidateOutput(validatorText, StructuredOutput{
		"person": []any{"Alice Smith", "Nobody Here"},
	})
	assert.Nil(t, spans, "partially-grounded output must not leak spans")
	assert.Len(t, errs, 1)
}
