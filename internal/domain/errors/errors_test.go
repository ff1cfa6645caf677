package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     ErrorCode
	}{
		{"unsupported model", UnsupportedModel("mystery"), ErrUnsupportedModel, CodeResolution},
		{"tokenizer init", TokenizerInit("bpe/x", stderrors.New("bad vocab")), ErrTokenizerInit, CodeInitialize},
		{"encoding failed", EncodingFailed("engine", stderrors.New("boom")), ErrEncodingFailed, CodeEncoding},
		{"decoding failed", DecodingFailed("engine", stderrors.New("boom")), ErrDecodingFailed, CodeDecoding},
		{"parse", Parse("not json"), ErrParse, CodeParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}

			var e *Error
			if !As(tt.err, &e) {
				t.Fatalf("errors.As failed for %v", tt.err)
			}
			if e.Code != tt.code {
				t.Errorf("Code = %q, want %q", e.Code, tt.code)
			}
			if !strings.Contains(tt.err.Error(), string(tt.code)) {
				t.Errorf("Error() = %q, missing code", tt.err.Error())
			}
		})
	}
}

func TestUnsupportedModelCarriesIdentifier(t *testing.T) {
	err := UnsupportedModel("weird/model:v2")
	if !strings.Contains(err.Error(), `"weird/model:v2"`) {
		t.Errorf("Error() = %q, missing verbatim identifier", err.Error())
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrUnsupportedModel, ErrTokenizerInit, ErrEncodingFailed, ErrDecodingFailed, ErrParse}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %v matches %v", a, b)
			}
		}
	}
}

func TestWrappedCausePreserved(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := TokenizerInit("key", cause)

	if !Is(err, cause) {
		t.Error("underlying cause lost from chain")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, ErrTokenizerInit) {
		t.Error("sentinel lost after extra wrapping")
	}
}
