package llm

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of an error
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfig
	ErrorTypeMissingVariable
	ErrorTypeRequest
	ErrorTypeTransport
	ErrorTypeResponse
	ErrorTypeInvalidInput
	ErrorTypeInvalidPipeline
)

// LLMError represents an error raised while rendering, invoking or chaining
// prompts.
type LLMError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *LLMError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.TypeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.TypeString(), e.Message)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

func (e *LLMError) TypeString() string {
	switch e.Type {
	case ErrorTypeConfig:
		return "ConfigError"
	case ErrorTypeMissingVariable:
		return "MissingVariable"
	case ErrorTypeRequest:
		return "RequestError"
	case ErrorTypeTransport:
		return "TransportError"
	case ErrorTypeResponse:
		return "ResponseError"
	case ErrorTypeInvalidInput:
		return "InvalidInputError"
	case ErrorTypeInvalidPipeline:
		return "InvalidPipelineError"
	default:
		return "UnknownError"
	}
}

// LoggableFields returns key/value pairs for a utils.Logger call.
func (e *LLMError) LoggableFields() []any {
	return []any{
		"error_type", e.TypeString(),
		"message", e.Message,
		"underlying_error", e.Err,
	}
}

// NewLLMError creates a new LLMError
func NewLLMError(errType ErrorType, message string, err error) *LLMError {
	return &LLMError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the type of the first LLMError in err's chain, or
// ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

func IsMissingVariable(err error) bool { return TypeOf(err) == ErrorTypeMissingVariable }
func IsConfigError(err error) bool     { return TypeOf(err) == ErrorTypeConfig }
func IsTransportError(err error) bool  { return TypeOf(err) == ErrorTypeTransport }
func IsInvalidInput(err error) bool    { return TypeOf(err) == ErrorTypeInvalidInput }
func IsInvalidPipeline(err error) bool { return TypeOf(err) == ErrorTypeInvalidPipeline }
