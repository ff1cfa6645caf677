package token

import (
	"math"
	"testing"
)

func fullByteRanks() map[string]int {
	ranks := make(map[string]int, 256)
	for b := 0; b < 256; b++ {
		ranks[string([]byte{byte(b)})] = b
	}
	return ranks
}

func TestBPEVocabularyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]int)
		wantErr bool
	}{
		{"valid base alphabet", func(m map[string]int) {}, false},
		{"valid with merge", func(m map[string]int) { m["ab"] = 256 }, false},
		{"missing byte", func(m map[string]int) { delete(m, "a") }, true},
		{"duplicate rank", func(m map[string]int) { m["ab"] = 0 }, true},
		{"negative rank", func(m map[string]int) { m["ab"] = -5 }, true},
		{"empty piece", func(m map[string]int) { m[""] = 256 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranks := fullByteRanks()
			tt.mutate(ranks)
			err := BPEVocabulary{Ranks: ranks}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := (BPEVocabulary{}).Validate(); err == nil {
		t.Error("empty vocabulary must fail validation")
	}
}

func TestBPEVocabularyValidate_RawByteKeys(t *testing.T) {
	// The base alphabet is keyed by raw bytes. Swapping the 0x80 entry
	// for the two-byte UTF-8 encoding of rune 0x80 leaves the raw byte
	// without a token, so validation must fail.
	ranks := fullByteRanks()
	delete(ranks, string([]byte{0x80}))
	ranks[string(rune(0x80))] = 0x80

	if err := (BPEVocabulary{Ranks: ranks}).Validate(); err == nil {
		t.Error("expected validation failure for rune-encoded byte key")
	}
}

func TestUnigramVocabularyValidate(t *testing.T) {
	tests := []struct {
		name    string
		vocab   UnigramVocabulary
		wantErr bool
	}{
		{"valid", UnigramVocabulary{
			Pieces: []UnigramPiece{{Piece: "a", Score: -1}, {Piece: "ab", Score: -2}},
		}, false},
		{"empty", UnigramVocabulary{}, true},
		{"empty piece", UnigramVocabulary{
			Pieces: []UnigramPiece{{Piece: "", Score: -1}},
		}, true},
		{"duplicate piece", UnigramVocabulary{
			Pieces: []UnigramPiece{{Piece: "a", Score: -1}, {Piece: "a", Score: -2}},
		}, true},
		{"nan score", UnigramVocabulary{
			Pieces: []UnigramPiece{{Piece: "a", Score: math.NaN()}},
		}, true},
		{"infinite score", UnigramVocabulary{
			Pieces: []UnigramPiece{{Piece: "a", Score: math.Inf(-1)}},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vocab.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaxPieceLen(t *testing.T) {
	v := UnigramVocabulary{
		Pieces: []UnigramPiece{
			{Piece: "a", Score: -1},
			{Piece: "日本語", Score: -2}, // 9 bytes
			{Piece: "abcd", Score: -3},
		},
	}
	if got := v.MaxPieceLen(); got != 9 {
		t.Errorf("MaxPieceLen() = %d, want 9", got)
	}

	if got := (UnigramVocabulary{}).MaxPieceLen(); got != 0 {
		t.Errorf("MaxPieceLen() on empty = %d, want 0", got)
	}
}
