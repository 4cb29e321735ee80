package errors_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

func TestHTTPStatusForCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrCodeBadRequest, http.StatusBadRequest},
		{errors.ErrCodeNotFound, http.StatusNotFound},
		{errors.ErrCodeUnsupportedInput, http.StatusBadRequest},
		{errors.ErrCodeValidation, http.StatusUnprocessableEntity},
		{errors.ErrCodeShape, http.StatusBadGateway},
		{errors.ErrCodeLLMRateLimited, http.StatusTooManyRequests},
		{errors.ErrorCode("NOPE_999"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errors.HTTPStatusForCode(tc.code), string(tc.code))
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unsupported input", errors.DefaultMessageForCode(errors.ErrCodeUnsupportedInput))
	assert.Equal(t, "unknown error", errors.DefaultMessageForCode(errors.ErrorCode("NOPE_999")))
}

func TestClientServerErrorSplit(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsClientError(errors.ErrCodeUnsupportedInput))
	assert.False(t, errors.IsServerError(errors.ErrCodeUnsupportedInput))
	assert.True(t, errors.IsServerError(errors.ErrCodeLLMBackend))
	assert.False(t, errors.IsClientError(errors.ErrCodeLLMBackend))
}

func TestModuleForCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NER", errors.ModuleForCode(errors.ErrCodeShape))
	assert.Equal(t, "LLM", errors.ModuleForCode(errors.ErrCodeLLMBackend))
	assert.Equal(t, "COMMON", errors.ModuleForCode(errors.ErrCodeInternal))
	assert.Equal(t, "UNKNOWN", errors.ModuleForCode(errors.ErrorCode("_")))
}
