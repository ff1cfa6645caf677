package tokenizer

import (
	"testing"

	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/token"
)

func TestHeuristic_Count(t *testing.T) {
	h := NewHeuristic("approx", DefaultCharsPerToken, pricing.UnknownRate(), pricing.UnknownRate())

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"short word", "hi", 1},
		{"word at ratio boundary", "word", 1},
		{"word above boundary", "hello", 2},
		{"two words", "hello world", 4},
		{"digit run", "12345", 2},
		{"digits split from letters", "abc123", 2},
		{"punctuation per char", "!!!", 3},
		{"single space only", " ", 1},
		{"extra whitespace counts", "a   b", 4},
		{"unicode letters", "héllo", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Count(tt.input)
			if err != nil {
				t.Fatalf("Count(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Count(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestHeuristic_CustomRatio(t *testing.T) {
	h := NewHeuristic("dense", 2.0, pricing.UnknownRate(), pricing.UnknownRate())

	got, err := h.Count("hello")
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if got != 3 {
		t.Errorf("Count(\"hello\") at 2 chars/token = %d, want 3", got)
	}
}

func TestHeuristic_NonPositiveRatioFallsBack(t *testing.T) {
	h := NewHeuristic("bad-ratio", -1, pricing.UnknownRate(), pricing.UnknownRate())

	got, err := h.Count("word")
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if got != 1 {
		t.Errorf("Count(\"word\") = %d, want 1 at the default ratio", got)
	}
}

func TestHeuristic_EncodeLengthMatchesCount(t *testing.T) {
	h := NewHeuristic("approx", DefaultCharsPerToken, pricing.UnknownRate(), pricing.UnknownRate())

	for _, in := range []string{"", "hello world", "a 1 !"} {
		ids, err := h.Encode(in)
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", in, err)
		}
		n, err := h.Count(in)
		if err != nil {
			t.Fatalf("Count(%q) error: %v", in, err)
		}
		if len(ids) != n {
			t.Errorf("len(Encode(%q)) = %d, Count = %d", in, len(ids), n)
		}
	}
}

func TestHeuristic_DecodeAlwaysFails(t *testing.T) {
	h := NewHeuristic("approx", DefaultCharsPerToken, pricing.UnknownRate(), pricing.UnknownRate())

	if _, err := h.Decode([]int{0, 1, 2}); !domainerrors.Is(err, domainerrors.ErrDecodingFailed) {
		t.Errorf("expected decoding error, got %v", err)
	}
}

func TestHeuristic_Metadata(t *testing.T) {
	h := NewHeuristic("approx", DefaultCharsPerToken, pricing.KnownRate(0.001), pricing.UnknownRate())

	if h.Name() != "approx" {
		t.Errorf("Name() = %q", h.Name())
	}
	if h.Family() != token.FamilyHeuristic {
		t.Errorf("Family() = %q", h.Family())
	}
	if !h.Approximate() {
		t.Error("heuristic must report approximate")
	}
	if r := h.InputPricePer1K(); !r.Known || r.PerThousand != 0.001 {
		t.Errorf("InputPricePer1K() = %+v", r)
	}
	if r := h.OutputPricePer1K(); r.Known {
		t.Errorf("OutputPricePer1K() should be unknown, got %+v", r)
	}
}
