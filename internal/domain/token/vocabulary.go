package token

import (
	"fmt"
	"math"
)

// BPEVocabulary is the merge-rule data for a byte-pair encoder: a mapping
// from a mergeable byte sequence to its rank. Rank doubles as the token ID,
// and lower ranks merge first. The caller supplies fully materialized data;
// loading it from disk or network is outside the domain.
type BPEVocabulary struct {
	// Ranks maps a byte sequence (as a string key) to its merge rank.
	// Every single byte 0x00-0xFF must be present so that arbitrary
	// UTF-8 input always has a fallback encoding.
	Ranks map[string]int
}

// Validate checks the vocabulary invariants before an engine is built.
func (v BPEVocabulary) Validate() error {
	if len(v.Ranks) == 0 {
		return fmt.Errorf("bpe vocabulary: no merge ranks")
	}

	seen := make(map[int]string, len(v.Ranks))
	for piece, rank := range v.Ranks {
		if piece == "" {
			return fmt.Errorf("bpe vocabulary: empty piece")
		}
		if rank < 0 {
			return fmt.Errorf("bpe vocabulary: negative rank %d for piece %q", rank, piece)
		}
		if prev, dup := seen[rank]; dup {
			return fmt.Errorf("bpe vocabulary: rank %d shared by %q and %q", rank, prev, piece)
		}
		seen[rank] = piece
	}

	// Base alphabet: every single byte needs a token so no input is
	// unrepresentable. string([]byte{...}) keeps the key a raw byte;
	// string(b) would be the UTF-8 encoding of rune b.
	for b := 0; b < 256; b++ {
		if _, ok := v.Ranks[string([]byte{byte(b)})]; !ok {
			return fmt.Errorf("bpe vocabulary: missing single-byte token for 0x%02X", b)
		}
	}

	return nil
}

// UnigramPiece is one (piece, score) entry of a unigram vocabulary.
// The token ID of a piece is its index in the vocabulary slice.
type UnigramPiece struct {
	Piece string
	Score float64
}

// UnigramVocabulary is the piece/score table for a subword-unigram encoder.
type UnigramVocabulary struct {
	Pieces []UnigramPiece

	// ByteFallback enables per-byte pieces for input not covered by the
	// vocabulary. Without it, uncovered input fails to encode.
	ByteFallback bool
}

// Validate checks the vocabulary invariants before an engine is built.
func (v UnigramVocabulary) Validate() error {
	if len(v.Pieces) == 0 {
		return fmt.Errorf("unigram vocabulary: no pieces")
	}

	seen := make(map[string]int, len(v.Pieces))
	for i, p := range v.Pieces {
		if p.Piece == "" {
			return fmt.Errorf("unigram vocabulary: empty piece at index %d", i)
		}
		if math.IsNaN(p.Score) || math.IsInf(p.Score, 0) {
			return fmt.Errorf("unigram vocabulary: non-finite score for piece %q", p.Piece)
		}
		if prev, dup := seen[p.Piece]; dup {
			return fmt.Errorf("unigram vocabulary: piece %q duplicated at %d and %d", p.Piece, prev, i)
		}
		seen[p.Piece] = i
	}

	return nil
}

// MaxPieceLen returns the byte length of the longest piece. Segmentation
// uses it to bound the lookback window.
func (v UnigramVocabulary) MaxPieceLen() int {
	max := 0
	for _, p := range v.Pieces {
		if len(p.Piece) > max {
			max = len(p.Piece)
		}
	}
	return max
}
