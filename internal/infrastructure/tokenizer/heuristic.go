package tokenizer

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/token"
)

// segmentPattern splits text into, in order of precedence: letter runs,
// digit runs, whitespace runs, and any other single character. The ordered
// alternation makes segmentation reproducible independent of the engine
// configuration.
var segmentPattern = regexp.MustCompile(`\p{L}+|\p{N}+|\s+|.`)

// DefaultCharsPerToken is the characters-per-token ratio used when a model
// family publishes no tokenizer. Four characters per token is the common
// approximation for English text.
const DefaultCharsPerToken = 4.0

// Heuristic estimates token counts for models without an authoritative
// tokenizer. It splits text with segmentPattern and scores each segment:
//
//   - letter run:     ceil(runes / charsPerToken)
//   - digit run:      ceil(runes / 3)        (numbers tokenize densely)
//   - whitespace run: run length - 1         (one separator space is free)
//   - anything else:  1 per character
//
// The estimate is explicitly approximate: Decode always fails because the
// synthetic IDs carry no text, and Approximate() reports true so downstream
// cost estimates can be flagged as non-authoritative.
type Heuristic struct {
	name          string
	charsPerToken float64
	input         pricing.Rate
	output        pricing.Rate
}

var _ token.Tokenizer = (*Heuristic)(nil)

// NewHeuristic creates an approximation engine. A non-positive ratio falls
// back to DefaultCharsPerToken.
func NewHeuristic(name string, charsPerToken float64, input, output pricing.Rate) *Heuristic {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &Heuristic{
		name:          name,
		charsPerToken: charsPerToken,
		input:         input,
		output:        output,
	}
}

// Encode produces a synthetic token sequence whose length equals Count.
// IDs are sequence ordinals; they are non-negative but carry no vocabulary
// meaning.
func (h *Heuristic) Encode(text string) ([]int, error) {
	n := h.estimate(text)
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids, nil
}

// Decode fails: an approximation has no vocabulary to decode against.
func (h *Heuristic) Decode(tokens []int) (string, error) {
	return "", domainerrors.DecodingFailed(h.name,
		fmt.Errorf("approximate engine has no vocabulary"))
}

// Count estimates the token count without allocating the sequence.
func (h *Heuristic) Count(text string) (int, error) {
	return h.estimate(text), nil
}

func (h *Heuristic) estimate(text string) int {
	if text == "" {
		return 0
	}

	total := 0
	for _, seg := range segmentPattern.FindAllString(text, -1) {
		runes := utf8.RuneCountInString(seg)
		first, _ := utf8.DecodeRuneInString(seg)
		switch {
		case unicode.IsLetter(first):
			total += ceilDiv(runes, h.charsPerToken)
		case unicode.IsNumber(first):
			total += ceilDiv(runes, 3)
		case unicode.IsSpace(first):
			if runes > 1 {
				total += runes - 1
			}
		default:
			total += runes
		}
	}

	if total == 0 {
		// Whitespace-only input still transmits at least one token.
		total = 1
	}
	return total
}

func ceilDiv(n int, by float64) int {
	if n == 0 {
		return 0
	}
	est := int(float64(n)/by + 0.999999)
	if est < 1 {
		est = 1
	}
	return est
}

// Name returns the stable instance name.
func (h *Heuristic) Name() string { return h.name }

// Family reports the regex-approximation family.
func (h *Heuristic) Family() token.Family { return token.FamilyHeuristic }

// Approximate reports true.
func (h *Heuristic) Approximate() bool { return true }

// InputPricePer1K returns the engine-local default input rate.
func (h *Heuristic) InputPricePer1K() pricing.Rate { return h.input }

// OutputPricePer1K returns the engine-local default output rate.
func (h *Heuristic) OutputPricePer1K() pricing.Rate { return h.output }
