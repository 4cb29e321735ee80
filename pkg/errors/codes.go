package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeSerialization      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_012"
)

// Extraction Pipeline Error Codes
const (
	// ErrCodeShape: the model returned structurally malformed output for the
	// requested schema. Fatal; never retried by refinement.
	ErrCodeShape ErrorCode = "NER_001"
	// ErrCodeValidation: extracted spans are not verbatim substrings of the
	// source text. Recoverable within the refinement retry budget.
	ErrCodeValidation ErrorCode = "NER_002"
	// ErrCodeAlignment: an entity occurrence does not align with token
	// boundaries. The occurrence is skipped, never fatal.
	ErrCodeAlignment ErrorCode = "NER_003"
	// ErrCodeChunkLocate: a chunk could not be located in the source text.
	// The chunk is dropped, never fatal.
	ErrCodeChunkLocate ErrorCode = "NER_004"
	// ErrCodeUnsupportedInput: the request itself is unusable (unknown mode
	// or encoding, missing text column, invalid schema). Detected before any
	// model call.
	ErrCodeUnsupportedInput ErrorCode = "NER_005"
)

// LLM Backend Error Codes
const (
	ErrCodeLLMBackend     ErrorCode = "LLM_001"
	ErrCodeLLMRateLimited ErrorCode = "LLM_002"
	ErrCodeLLMDecode      ErrorCode = "LLM_003"
)

// Aliases kept for call-site readability
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeShape:            http.StatusBadGateway,
	ErrCodeValidation:       http.StatusUnprocessableEntity,
	ErrCodeAlignment:        http.StatusInternalServerError,
	ErrCodeChunkLocate:      http.StatusInternalServerError,
	ErrCodeUnsupportedInput: http.StatusBadRequest,

	ErrCodeLLMBackend:     http.StatusBadGateway,
	ErrCodeLLMRateLimited: http.StatusTooManyRequests,
	ErrCodeLLMDecode:      http.StatusBadGateway,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeShape:            "model output does not conform to the extraction schema",
	ErrCodeValidation:       "extracted spans failed grounding validation",
	ErrCodeAlignment:        "entity does not align with token boundaries",
	ErrCodeChunkLocate:      "chunk could not be located in source text",
	ErrCodeUnsupportedInput: "unsupported input",

	ErrCodeLLMBackend:     "LLM backend request failed",
	ErrCodeLLMRateLimited: "LLM backend rate limited",
	ErrCodeLLMDecode:      "failed to decode LLM response",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
