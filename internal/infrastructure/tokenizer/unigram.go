package tokenizer

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/token"
)

// wordMarker is the SentencePiece-style whitespace marker. Normalization
// swaps spaces for the marker on encode and reverses the swap on decode,
// which keeps the family lossless for any input that does not already
// contain the marker rune.
const wordMarker = '▁' // ▁

// byteFallbackScore is the segmentation score of a single fallback byte
// piece. It is far below any realistic vocabulary score so real pieces are
// always preferred when they cover the same span.
const byteFallbackScore = -100.0

// UnigramConfig configures a subword-unigram engine. The normalization
// policy is part of the engine configuration and is applied identically on
// encode and decode.
type UnigramConfig struct {
	Name       string
	Vocabulary token.UnigramVocabulary

	// MarkWords enables whitespace-marker normalization.
	MarkWords bool

	InputPricePer1K  pricing.Rate
	OutputPricePer1K pricing.Rate
}

// Unigram is a subword-unigram engine. Encoding selects the segmentation of
// the normalized input that maximizes total piece score via a deterministic
// Viterbi pass; ties prefer the longer piece. Token IDs are vocabulary
// indices; byte-fallback IDs follow the vocabulary range.
type Unigram struct {
	cfg        UnigramConfig
	pieceIDs   map[string]int
	maxPiece   int
	vocabSize  int // ids >= vocabSize are byte-fallback ids
	totalSize  int
	hasMarkers bool
}

var _ token.Tokenizer = (*Unigram)(nil)

// NewUnigram constructs an engine from an already-loaded piece/score
// vocabulary. The vocabulary is validated up front.
func NewUnigram(cfg UnigramConfig) (*Unigram, error) {
	if err := cfg.Vocabulary.Validate(); err != nil {
		return nil, err
	}

	ids := make(map[string]int, len(cfg.Vocabulary.Pieces))
	for i, p := range cfg.Vocabulary.Pieces {
		ids[p.Piece] = i
	}

	size := len(cfg.Vocabulary.Pieces)
	total := size
	if cfg.Vocabulary.ByteFallback {
		total += 256
	}

	return &Unigram{
		cfg:       cfg,
		pieceIDs:  ids,
		maxPiece:  cfg.Vocabulary.MaxPieceLen(),
		vocabSize: size,
		totalSize: total,
	}, nil
}

// Encode normalizes the input and runs a Viterbi segmentation over its
// bytes. The DP table is bounded by input length times the longest piece,
// so arbitrarily long unbroken words terminate.
func (u *Unigram) Encode(text string) ([]int, error) {
	if text == "" {
		return []int{}, nil
	}

	norm, err := u.normalize(text)
	if err != nil {
		return nil, err
	}

	data := []byte(norm)
	n := len(data)

	unreached := math.Inf(-1)
	score := make([]float64, n+1)
	backPiece := make([]int, n+1) // id of piece ending at position i
	backLen := make([]int, n+1)   // byte length of that piece
	for i := 1; i <= n; i++ {
		score[i] = unreached
	}

	for end := 1; end <= n; end++ {
		lo := end - u.maxPiece
		if lo < 0 {
			lo = 0
		}
		for start := lo; start < end; start++ {
			if score[start] == unreached {
				continue
			}
			id, ok := u.pieceIDs[string(data[start:end])]
			if !ok {
				continue
			}
			s := score[start] + u.cfg.Vocabulary.Pieces[id].Score
			// Strict improvement keeps the tie-break on the longer
			// piece, which was seen first.
			if s > score[end] {
				score[end] = s
				backPiece[end] = id
				backLen[end] = end - start
			}
		}

		// Byte fallback covers the single byte ending here.
		if u.cfg.Vocabulary.ByteFallback && score[end-1] != unreached {
			s := score[end-1] + byteFallbackScore
			if s > score[end] {
				score[end] = s
				backPiece[end] = u.vocabSize + int(data[end-1])
				backLen[end] = 1
			}
		}
	}

	if score[n] == unreached {
		return nil, domainerrors.EncodingFailed(u.cfg.Name,
			fmt.Errorf("input not coverable by vocabulary and byte fallback is disabled"))
	}

	// Walk back and reverse.
	var rev []int
	for at := n; at > 0; at -= backLen[at] {
		rev = append(rev, backPiece[at])
	}
	ids := make([]int, len(rev))
	for i, id := range rev {
		ids[len(rev)-1-i] = id
	}
	return ids, nil
}

// Decode concatenates piece text (or fallback bytes), re-validates UTF-8,
// and reverses normalization.
func (u *Unigram) Decode(tokens []int) (string, error) {
	var buf []byte
	for _, id := range tokens {
		switch {
		case id >= 0 && id < u.vocabSize:
			buf = append(buf, u.cfg.Vocabulary.Pieces[id].Piece...)
		case u.cfg.Vocabulary.ByteFallback && id >= u.vocabSize && id < u.totalSize:
			buf = append(buf, byte(id-u.vocabSize))
		default:
			return "", domainerrors.DecodingFailed(u.cfg.Name, fmt.Errorf("token id %d outside vocabulary", id))
		}
	}

	if !utf8.Valid(buf) {
		return "", domainerrors.DecodingFailed(u.cfg.Name, fmt.Errorf("decoded bytes are not valid UTF-8"))
	}

	return u.denormalize(string(buf)), nil
}

// Count returns the token count via a full segmentation.
func (u *Unigram) Count(text string) (int, error) {
	ids, err := u.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Name returns the stable instance name.
func (u *Unigram) Name() string { return u.cfg.Name }

// Family reports the subword-unigram family.
func (u *Unigram) Family() token.Family { return token.FamilyUnigram }

// Approximate reports false: segmentation is against a real vocabulary.
func (u *Unigram) Approximate() bool { return false }

// InputPricePer1K returns the engine-local default input rate.
func (u *Unigram) InputPricePer1K() pricing.Rate { return u.cfg.InputPricePer1K }

// OutputPricePer1K returns the engine-local default output rate.
func (u *Unigram) OutputPricePer1K() pricing.Rate { return u.cfg.OutputPricePer1K }

// normalize applies the configured policy. Input that already contains the
// word marker cannot be represented reversibly, so it is rejected rather
// than silently breaking the round-trip invariant.
func (u *Unigram) normalize(text string) (string, error) {
	if !u.cfg.MarkWords {
		return text, nil
	}
	if strings.ContainsRune(text, wordMarker) {
		return "", domainerrors.EncodingFailed(u.cfg.Name,
			fmt.Errorf("input contains the reserved word marker %q", wordMarker))
	}
	return strings.ReplaceAll(text, " ", string(wordMarker)), nil
}

func (u *Unigram) denormalize(text string) string {
	if !u.cfg.MarkWords {
		return text
	}
	return strings.ReplaceAll(text, string(wordMarker), " ")
}
