// Package errors provides domain-specific errors for the tokenmeter application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core error taxonomy. None of these are transient:
// retrying with the same model or input yields the same error, so callers
// surface them instead of retrying.
var (
	// ErrUnsupportedModel means resolution found no alias or pattern rule
	// for the requested model identifier.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrTokenizerInit means an engine could not be constructed (malformed
	// vocabulary, missing asset, or construction timeout). The registry
	// stays usable for other models.
	ErrTokenizerInit = errors.New("tokenizer initialization failed")

	// ErrEncodingFailed means the engine cannot represent the input.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrDecodingFailed means a token ID is outside the engine's valid range
	// or the decoded bytes are not valid text.
	ErrDecodingFailed = errors.New("decoding failed")

	// ErrParse means the prompt input is not in a recognized format.
	ErrParse = errors.New("invalid input format")
)

// ErrorCode categorizes errors for handling and exit-status mapping.
type ErrorCode string

const (
	CodeResolution    ErrorCode = "RESOLUTION"
	CodeInitialize    ErrorCode = "INITIALIZE"
	CodeEncoding      ErrorCode = "ENCODING"
	CodeDecoding      ErrorCode = "DECODING"
	CodeParse         ErrorCode = "PARSE"
	CodeConfiguration ErrorCode = "CONFIG"
)

// Error wraps a sentinel with a code and human-readable context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns a formatted error string including code, message, and cause.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// UnsupportedModel builds the resolution failure for an unknown identifier.
// The identifier is surfaced verbatim to the caller.
func UnsupportedModel(model string) error {
	return &Error{
		Code:    CodeResolution,
		Message: fmt.Sprintf("no tokenizer rule matches model %q", model),
		Cause:   ErrUnsupportedModel,
	}
}

// TokenizerInit builds a construction failure carrying the underlying reason.
func TokenizerInit(key string, cause error) error {
	return &Error{
		Code:    CodeInitialize,
		Message: fmt.Sprintf("could not construct tokenizer %q", key),
		Cause:   fmt.Errorf("%w: %w", ErrTokenizerInit, cause),
	}
}

// EncodingFailed builds a per-call encode failure.
func EncodingFailed(engine string, cause error) error {
	return &Error{
		Code:    CodeEncoding,
		Message: fmt.Sprintf("engine %q cannot encode input", engine),
		Cause:   fmt.Errorf("%w: %w", ErrEncodingFailed, cause),
	}
}

// DecodingFailed builds a per-call decode failure.
func DecodingFailed(engine string, cause error) error {
	return &Error{
		Code:    CodeDecoding,
		Message: fmt.Sprintf("engine %q cannot decode token sequence", engine),
		Cause:   fmt.Errorf("%w: %w", ErrDecodingFailed, cause),
	}
}

// Parse builds an input-format failure.
func Parse(reason string) error {
	return &Error{
		Code:    CodeParse,
		Message: reason,
		Cause:   ErrParse,
	}
}

// Is reports whether err matches target using errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
