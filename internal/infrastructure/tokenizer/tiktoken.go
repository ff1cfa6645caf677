// Package tokenizer provides the encoder engines and the model registry.
// It implements the domain token.Tokenizer capability for three algorithm
// families: byte-pair merge (tiktoken-backed and generic), subword unigram,
// and regex-based heuristic approximation.
package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/token"
)

// Tiktoken is a byte-pair merge engine backed by tiktoken-go, used for the
// published OpenAI encodings (cl100k_base, o200k_base, ...). Immutable after
// construction and safe for concurrent use.
type Tiktoken struct {
	enc    *tiktoken.Tiktoken
	name   string
	input  pricing.Rate
	output pricing.Rate
}

// Ensure Tiktoken implements the capability.
var _ token.Tokenizer = (*Tiktoken)(nil)

// NewTiktoken creates an engine for a named encoding. Two configurations may
// share an encoding while carrying different price metadata, so the caller
// supplies the unique instance name.
func NewTiktoken(name, encoding string, input, output pricing.Rate) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", encoding, err)
	}

	return &Tiktoken{
		enc:    enc,
		name:   name,
		input:  input,
		output: output,
	}, nil
}

// Encode converts text to token IDs.
func (t *Tiktoken) Encode(text string) ([]int, error) {
	if text == "" {
		return []int{}, nil
	}
	return t.enc.Encode(text, nil, nil), nil
}

// Decode converts token IDs back to text. The round-trip invariant holds:
// tiktoken vocabularies cover every byte sequence.
func (t *Tiktoken) Decode(tokens []int) (string, error) {
	for _, id := range tokens {
		if id < 0 {
			return "", domainerrors.DecodingFailed(t.name, fmt.Errorf("negative token id %d", id))
		}
	}

	decoded := t.enc.Decode(tokens)
	if len(tokens) > 0 && decoded == "" {
		return "", domainerrors.DecodingFailed(t.name, fmt.Errorf("no bytes for %d token(s)", len(tokens)))
	}
	if !utf8.ValidString(decoded) {
		return "", domainerrors.DecodingFailed(t.name, fmt.Errorf("decoded bytes are not valid UTF-8"))
	}
	return decoded, nil
}

// Count returns len(Encode(text)) without the error plumbing of Encode.
func (t *Tiktoken) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

// Name returns the stable instance name.
func (t *Tiktoken) Name() string { return t.name }

// Family reports the byte-pair merge family.
func (t *Tiktoken) Family() token.Family { return token.FamilyBPE }

// Approximate reports false: tiktoken counts are authoritative for the
// published encoding.
func (t *Tiktoken) Approximate() bool { return false }

// InputPricePer1K returns the engine-local default input rate.
func (t *Tiktoken) InputPricePer1K() pricing.Rate { return t.input }

// OutputPricePer1K returns the engine-local default output rate.
func (t *Tiktoken) OutputPricePer1K() pricing.Rate { return t.output }
