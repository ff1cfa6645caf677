// Package token contains the domain contract for tokenization engines.
// A Tokenizer turns text into a sequence of integer token IDs for a specific
// model vocabulary. Implementations live in internal/infrastructure/tokenizer;
// the domain only depends on this interface so that different encoding
// algorithms (byte-pair merge, unigram, heuristic) are interchangeable.
package token

import "github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"

// Family identifies the tokenization algorithm family of an engine.
type Family string

// Known engine families.
const (
	FamilyBPE       Family = "bpe"       // byte-pair merge over UTF-8 bytes
	FamilyUnigram   Family = "unigram"   // score-maximizing subword segmentation
	FamilyHeuristic Family = "heuristic" // regex split + chars-per-token ratio
)

// Tokenizer is the uniform capability every encoder family implements.
// Instances are immutable after construction and safe for concurrent use.
type Tokenizer interface {
	// Encode converts text to an ordered sequence of token IDs.
	// Empty input yields an empty sequence, never an error.
	Encode(text string) ([]int, error)

	// Decode converts a token sequence back to text. For lossless families
	// Decode(Encode(text)) == text. IDs outside the engine's valid range
	// fail with a decoding error.
	Decode(tokens []int) (string, error)

	// Count returns the token count for text. Always equal to
	// len(Encode(text)), but implementations may use a faster path that
	// avoids materializing the sequence.
	Count(text string) (int, error)

	// Name returns a stable, unique name for this configured instance.
	// It is used for logging and cache keys, never for model resolution.
	Name() string

	// Family reports the algorithm family of this engine.
	Family() Family

	// Approximate reports whether counts are heuristic estimates rather
	// than authoritative vocabulary-based tokenization. Approximate
	// engines are not required to round-trip through Decode.
	Approximate() bool

	// InputPricePer1K and OutputPricePer1K expose engine-local default
	// price metadata, used only when the pricing table has no entry for
	// the resolved model. An unknown rate is distinct from a zero rate.
	InputPricePer1K() pricing.Rate
	OutputPricePer1K() pricing.Rate
}
