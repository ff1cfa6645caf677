package tokenizer

import (
	"fmt"
	"unicode/utf8"

	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/token"
)

// BPE is a generic byte-pair merge engine over a caller-supplied ranked
// vocabulary. Encoding operates on the UTF-8 bytes of the input: the base
// alphabet of 256 single-byte tokens guarantees that every unicode scalar
// value, including codepoints outside the BMP, has a representable encoding.
//
// The merge loop repeatedly collapses the adjacent pair with the lowest rank
// until no ranked pair remains. Each merge shrinks the sequence by one, so
// total work is bounded by the input byte length even for pathological
// single-word inputs.
type BPE struct {
	name   string
	ranks  map[string]int
	pieces map[int]string // rank -> byte sequence, for decoding
	input  pricing.Rate
	output pricing.Rate
}

var _ token.Tokenizer = (*BPE)(nil)

// NewBPE constructs an engine from an already-loaded merge vocabulary.
// The vocabulary is validated up front; a malformed one fails construction.
func NewBPE(name string, vocab token.BPEVocabulary, input, output pricing.Rate) (*BPE, error) {
	if err := vocab.Validate(); err != nil {
		return nil, err
	}

	pieces := make(map[int]string, len(vocab.Ranks))
	ranks := make(map[string]int, len(vocab.Ranks))
	for piece, rank := range vocab.Ranks {
		ranks[piece] = rank
		pieces[rank] = piece
	}

	return &BPE{
		name:   name,
		ranks:  ranks,
		pieces: pieces,
		input:  input,
		output: output,
	}, nil
}

// Encode applies greedy lowest-rank-first pair merging over the input bytes.
func (b *BPE) Encode(text string) ([]int, error) {
	if text == "" {
		return []int{}, nil
	}

	data := []byte(text)

	// Start from single-byte parts; offsets delimit current parts.
	offsets := make([]int, len(data)+1)
	for i := range offsets {
		offsets[i] = i
	}

	for len(offsets) > 2 {
		bestRank := -1
		bestIdx := -1
		for i := 0; i+2 < len(offsets); i++ {
			pair := string(data[offsets[i]:offsets[i+2]])
			rank, ok := b.ranks[pair]
			if !ok {
				continue
			}
			if bestRank < 0 || rank < bestRank {
				bestRank = rank
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		// Merge parts bestIdx and bestIdx+1.
		offsets = append(offsets[:bestIdx+1], offsets[bestIdx+2:]...)
	}

	ids := make([]int, 0, len(offsets)-1)
	for i := 0; i+1 < len(offsets); i++ {
		piece := string(data[offsets[i]:offsets[i+1]])
		rank, ok := b.ranks[piece]
		if !ok {
			// Unreachable with a validated base alphabet, but a hole
			// here must not silently miscount.
			return nil, domainerrors.EncodingFailed(b.name, fmt.Errorf("no rank for piece %q", piece))
		}
		ids = append(ids, rank)
	}

	return ids, nil
}

// Decode concatenates the byte sequences of each token ID in order and
// re-validates the result as UTF-8.
func (b *BPE) Decode(tokens []int) (string, error) {
	var buf []byte
	for _, id := range tokens {
		piece, ok := b.pieces[id]
		if !ok {
			return "", domainerrors.DecodingFailed(b.name, fmt.Errorf("token id %d outside vocabulary", id))
		}
		buf = append(buf, piece...)
	}

	if !utf8.Valid(buf) {
		return "", domainerrors.DecodingFailed(b.name, fmt.Errorf("decoded bytes are not valid UTF-8"))
	}
	return string(buf), nil
}

// Count returns the token count via a full encode.
func (b *BPE) Count(text string) (int, error) {
	ids, err := b.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Name returns the stable instance name.
func (b *BPE) Name() string { return b.name }

// Family reports the byte-pair merge family.
func (b *BPE) Family() token.Family { return token.FamilyBPE }

// Approximate reports false: the engine tokenizes against a real vocabulary.
func (b *BPE) Approximate() bool { return false }

// InputPricePer1K returns the engine-local default input rate.
func (b *BPE) InputPricePer1K() pricing.Rate { return b.input }

// OutputPricePer1K returns the engine-local default output rate.
func (b *BPE) OutputPricePer1K() pricing.Rate { return b.output }
