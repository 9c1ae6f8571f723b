// Package errors provides the route-planning error taxonomy, its HTTP mapping
// and its conversion into BPMN job errors.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeMalformedRadius     ErrorCode = "MALFORMED_RADIUS"
	ErrCodeSearchProviderError ErrorCode = "SEARCH_PROVIDER_ERROR"
	ErrCodeTranscriptionError  ErrorCode = "TRANSCRIPTION_ERROR"
	ErrCodeIntentParseError    ErrorCode = "INTENT_PARSE_ERROR"
	ErrCodeSelectionError      ErrorCode = "SELECTION_ERROR"
	ErrCodePipelineError       ErrorCode = "PIPELINE_ERROR"
	ErrCodeStoreUnavailable    ErrorCode = "STORE_UNAVAILABLE"

	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// Is matches any StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	var t *StandardError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// SearchProviderError is a non-recoverable response from the place-search
// provider. Body is kept for logs only and never rendered to API callers.
type SearchProviderError struct {
	StatusCode int
	Body       string
}

func (e *SearchProviderError) Error() string {
	return fmt.Sprintf("search provider returned status %d", e.StatusCode)
}

// PipelineError wraps a stage failure with the stage it happened in.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Sentinels usable with errors.Is.
var (
	ErrMalformedRadius  = &StandardError{Code: ErrCodeMalformedRadius}
	ErrTranscription    = &StandardError{Code: ErrCodeTranscriptionError}
	ErrIntentParse      = &StandardError{Code: ErrCodeIntentParseError}
	ErrSelection        = &StandardError{Code: ErrCodeSelectionError}
	ErrStoreUnavailable = &StandardError{Code: ErrCodeStoreUnavailable}
	ErrValidation       = &StandardError{Code: ErrCodeValidationFailed}
	ErrNotFound         = &StandardError{Code: ErrCodeNotFound}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewMalformedRadiusError reports a radius that is neither numeric meters nor an "m"/"km" string.
func NewMalformedRadiusError(raw interface{}) *StandardError {
	return newError(ErrCodeMalformedRadius, "Malformed search radius",
		fmt.Sprintf("radius: %v", raw), false, nil)
}

// NewTranscriptionError wraps a transcription provider or network failure.
func NewTranscriptionError(err error) *StandardError {
	return newError(ErrCodeTranscriptionError, "Audio transcription failed", causeText(err), true, err)
}

// NewIntentParseError reports an intent payload that could not be read into an Intent.
func NewIntentParseError(details string, err error) *StandardError {
	if details == "" {
		details = causeText(err)
	}
	return newError(ErrCodeIntentParseError, "Could not parse route intent", details, true, err)
}

// NewSelectionError reports a malformed or failed stop-selection response.
func NewSelectionError(details string, err error) *StandardError {
	if details == "" {
		details = causeText(err)
	}
	return newError(ErrCodeSelectionError, "Stop selection failed", details, true, err)
}

// NewStoreUnavailableError is raised when neither saved-location backend could serve a call.
func NewStoreUnavailableError(err error) *StandardError {
	return newError(ErrCodeStoreUnavailable, "Saved-location store unavailable", causeText(err), true, err)
}

func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Request validation failed", details, false, nil)
}

func NewNotFoundError(resource, id string) *StandardError {
	return newError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource),
		fmt.Sprintf("id: %s", id), false, nil)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), causeText(err), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", causeText(err), false, err)
}

// ==========================
// 4. Classification
// ==========================

// CodeOf returns the taxonomy code of err, looking through PipelineError and
// any other wrapping. Unknown errors classify as INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var std *StandardError
	if stderrors.As(err, &std) {
		return std.Code
	}
	var sp *SearchProviderError
	if stderrors.As(err, &sp) {
		return ErrCodeSearchProviderError
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	return ErrCodeInternal
}

// HTTPStatus maps an error code to the status returned to API callers.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMalformedRadius, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeSearchProviderError, ErrCodeTranscriptionError,
		ErrCodeIntentParseError, ErrCodeSelectionError:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the caller-facing text for err. Provider payloads and
// internal details are never included.
func PublicMessage(err error) string {
	var std *StandardError
	if stderrors.As(err, &std) && std.Message != "" {
		msg := std.Message
		if std.Code == ErrCodeMalformedRadius || std.Code == ErrCodeValidationFailed || std.Code == ErrCodeNotFound {
			msg = fmt.Sprintf("%s: %s", msg, std.Details)
		}
		return withStage(err, msg)
	}
	switch CodeOf(err) {
	case ErrCodeSearchProviderError:
		return withStage(err, "Place search provider error")
	case ErrCodeTimeout:
		return withStage(err, "Upstream service timeout")
	default:
		return withStage(err, "Internal server error")
	}
}

func withStage(err error, msg string) string {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return fmt.Sprintf("%s (stage %s)", msg, pe.Stage)
	}
	return msg
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeMalformedRadius:     "MALFORMED_RADIUS",
	ErrCodeSearchProviderError: "SEARCH_PROVIDER_ERROR",
	ErrCodeTranscriptionError:  "TRANSCRIPTION_FAILED",
	ErrCodeIntentParseError:    "INTENT_PARSING_FAILED",
	ErrCodeSelectionError:      "SELECTION_FAILED",
	ErrCodePipelineError:       "PIPELINE_FAILED",
	ErrCodeStoreUnavailable:    "STORE_UNAVAILABLE",
	ErrCodeValidationFailed:    "VALIDATION_FAILED",
	ErrCodeNotFound:            "RESOURCE_NOT_FOUND",
	ErrCodeTimeout:             "TIMEOUT_ERROR",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable,
		ErrCodeTranscriptionError,
		ErrCodeSearchProviderError:
		return 3

	case ErrCodeIntentParseError,
		ErrCodeSelectionError,
		ErrCodeTimeout:
		return 2

	default:
		return 0 // input errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "TRANSCRIPTION"), strings.Contains(codeStr, "INTENT"), strings.Contains(codeStr, "SELECTION"):
		return "AI"
	case strings.Contains(codeStr, "RADIUS"), strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
