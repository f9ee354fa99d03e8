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
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodePayloadTooLarge    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used throughout the code base.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("")
)

// Record (offset file reader) Error Codes
const (
	ErrCodeUnrecognizedLine    ErrorCode = "REC_001"
	ErrCodeMissingAbstract     ErrorCode = "REC_002"
	ErrCodeRecordCountMismatch ErrorCode = "REC_003"
	ErrCodeRecordReadFailed    ErrorCode = "REC_005"
)

// Annotation / span Error Codes
const (
	ErrCodeOutOfBoundsAnnotation ErrorCode = "SPN_001"
	ErrCodeOverlappingSpans      ErrorCode = "SPN_002"
)

// Concept (allow-set, MeSH) Error Codes
const (
	ErrCodeAllowSetInvalid       ErrorCode = "CPT_001"
	ErrCodeDescriptorInvalid     ErrorCode = "CPT_002"
	ErrCodeDescriptorNotFound    ErrorCode = "CPT_003"
	ErrCodeRelevanceIndexInvalid ErrorCode = "CPT_004"
)

// Source / sink Error Codes
const (
	ErrCodeSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeSourceDecode      ErrorCode = "SRC_002"
	ErrCodeSinkWriteFailed   ErrorCode = "SNK_001"
	ErrCodeSinkClosed        ErrorCode = "SNK_002"
)

// Domain aliases
const (
	CodeUnrecognizedLine      = ErrCodeUnrecognizedLine
	CodeMissingAbstract       = ErrCodeMissingAbstract
	CodeRecordCountMismatch   = ErrCodeRecordCountMismatch
	CodeOutOfBoundsAnnotation = ErrCodeOutOfBoundsAnnotation
	CodeOverlappingSpans      = ErrCodeOverlappingSpans
	CodeDatabaseError         = ErrCodeDatabaseError
	CodeCacheError            = ErrCodeCacheError
	CodeRecordReadFailed      = ErrCodeRecordReadFailed
	CodeDescriptorInvalid     = ErrCodeDescriptorInvalid
	CodeSinkWriteFailed       = ErrCodeSinkWriteFailed
	CodeSourceUnavailable     = ErrCodeSourceUnavailable
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeUnrecognizedLine:    http.StatusBadRequest,
	ErrCodeMissingAbstract:     http.StatusUnprocessableEntity,
	ErrCodeRecordCountMismatch: http.StatusUnprocessableEntity,
	ErrCodeRecordReadFailed:    http.StatusInternalServerError,

	ErrCodeOutOfBoundsAnnotation: http.StatusUnprocessableEntity,
	ErrCodeOverlappingSpans:      http.StatusUnprocessableEntity,

	ErrCodeAllowSetInvalid:       http.StatusBadRequest,
	ErrCodeDescriptorInvalid:     http.StatusBadRequest,
	ErrCodeDescriptorNotFound:    http.StatusNotFound,
	ErrCodeRelevanceIndexInvalid: http.StatusBadRequest,

	ErrCodeSourceUnavailable: http.StatusServiceUnavailable,
	ErrCodeSourceDecode:      http.StatusBadRequest,
	ErrCodeSinkWriteFailed:   http.StatusInternalServerError,
	ErrCodeSinkClosed:        http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodePayloadTooLarge:    "request body too large",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeUnrecognizedLine:    "line does not match any offset file pattern",
	ErrCodeMissingAbstract:     "record has no abstract line",
	ErrCodeRecordCountMismatch: "emitted record count does not match expected count",
	ErrCodeRecordReadFailed:    "failed to read offset stream",

	ErrCodeOutOfBoundsAnnotation: "annotation lies outside title and abstract",
	ErrCodeOverlappingSpans:      "replacement spans overlap",

	ErrCodeAllowSetInvalid:       "invalid concept allow-set",
	ErrCodeDescriptorInvalid:     "invalid MeSH descriptor",
	ErrCodeDescriptorNotFound:    "MeSH descriptor not found",
	ErrCodeRelevanceIndexInvalid: "invalid relevance index",

	ErrCodeSourceUnavailable: "offset source unavailable",
	ErrCodeSourceDecode:      "failed to decode offset source",
	ErrCodeSinkWriteFailed:   "failed to write replaced article",
	ErrCodeSinkClosed:        "sink is closed",
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

//Personal.AI order the ending
