package tokenizer

import (
	"context"
	"sync"
	"testing"
	"time"

	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/token"
)

// newBPERegistry builds a registry with one generic BPE config keyed "bpe/test"
// aliased from "test-model".
func newBPERegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()

	vocab := baseBPEVocab("aa")
	if err := r.RegisterConfig(Config{
		Key:           "bpe/test",
		Provider:      "testco",
		Family:        token.FamilyBPE,
		BPEVocabulary: &vocab,
	}); err != nil {
		t.Fatalf("RegisterConfig error: %v", err)
	}
	if err := r.Alias("test-model", "bpe/test"); err != nil {
		t.Fatalf("Alias error: %v", err)
	}
	return r
}

func TestRegistry_RegisterConfigValidation(t *testing.T) {
	r := New()

	if err := r.RegisterConfig(Config{Family: token.FamilyBPE}); err == nil {
		t.Error("expected error for empty key")
	}
	if err := r.RegisterConfig(Config{Key: "x", Family: "quantum"}); err == nil {
		t.Error("expected error for unknown family")
	}
}

func TestRegistry_AliasAndRuleRequireConfig(t *testing.T) {
	r := New()

	if err := r.Alias("m", "missing"); err == nil {
		t.Error("expected error for alias to unknown config")
	}
	if err := r.AddRule("m-", "missing"); err == nil {
		t.Error("expected error for rule to unknown config")
	}
	if err := r.AddRule("", "missing"); err == nil {
		t.Error("expected error for empty prefix")
	}
}

func TestRegistry_ResolutionOrder(t *testing.T) {
	r := newBPERegistry(t)

	heuristic := Config{
		Key:           "approx/test",
		Family:        token.FamilyHeuristic,
		CharsPerToken: 4,
	}
	if err := r.RegisterConfig(heuristic); err != nil {
		t.Fatalf("RegisterConfig error: %v", err)
	}

	// Alias beats a rule that would also match.
	if err := r.AddRule("test-", "approx/test"); err != nil {
		t.Fatalf("AddRule error: %v", err)
	}

	cfg, err := r.ResolveConfig("test-model")
	if err != nil {
		t.Fatalf("ResolveConfig error: %v", err)
	}
	if cfg.Key != "bpe/test" {
		t.Errorf("alias resolution gave %q, want bpe/test", cfg.Key)
	}

	// The rule catches prefixed identifiers with no alias.
	cfg, err = r.ResolveConfig("test-model-v2")
	if err != nil {
		t.Fatalf("ResolveConfig error: %v", err)
	}
	if cfg.Key != "approx/test" {
		t.Errorf("rule resolution gave %q, want approx/test", cfg.Key)
	}
}

func TestRegistry_FirstMatchingRuleWins(t *testing.T) {
	r := newBPERegistry(t)
	if err := r.RegisterConfig(Config{
		Key:           "approx/other",
		Family:        token.FamilyHeuristic,
		CharsPerToken: 4,
	}); err != nil {
		t.Fatalf("RegisterConfig error: %v", err)
	}

	// Both rules match "zz-long-name"; the first added must win.
	if err := r.AddRule("zz-long", "bpe/test"); err != nil {
		t.Fatalf("AddRule error: %v", err)
	}
	if err := r.AddRule("zz-", "approx/other"); err != nil {
		t.Fatalf("AddRule error: %v", err)
	}

	cfg, err := r.ResolveConfig("zz-long-name")
	if err != nil {
		t.Fatalf("ResolveConfig error: %v", err)
	}
	if cfg.Key != "bpe/test" {
		t.Errorf("first-match resolution gave %q, want bpe/test", cfg.Key)
	}
}

func TestRegistry_CaseSensitive(t *testing.T) {
	r := newBPERegistry(t)

	if _, err := r.ResolveConfig("Test-Model"); !domainerrors.Is(err, domainerrors.ErrUnsupportedModel) {
		t.Errorf("expected unsupported model for case mismatch, got %v", err)
	}
}

func TestRegistry_UnsupportedModel(t *testing.T) {
	r := newBPERegistry(t)

	_, err := r.Resolve(context.Background(), "mystery-9000")
	if !domainerrors.Is(err, domainerrors.ErrUnsupportedModel) {
		t.Errorf("expected unsupported model error, got %v", err)
	}
}

func TestRegistry_SharedInstance(t *testing.T) {
	r := newBPERegistry(t)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "test-model")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	second, err := r.Resolve(ctx, "test-model")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if first != second {
		t.Error("repeated resolution returned different instances")
	}
	if got := r.InitCount("bpe/test"); got != 1 {
		t.Errorf("InitCount = %d, want 1", got)
	}
}

func TestRegistry_ConcurrentResolveConstructsOnce(t *testing.T) {
	r := newBPERegistry(t)
	ctx := context.Background()

	const n = 32
	results := make([]token.Tokenizer, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := r.Resolve(ctx, "test-model")
			if err != nil {
				t.Errorf("Resolve error: %v", err)
				return
			}
			results[i] = tok
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent resolutions returned different instances")
		}
	}
	if got := r.InitCount("bpe/test"); got != 1 {
		t.Errorf("InitCount = %d, want 1", got)
	}
}

func TestRegistry_ConstructionFailureIsIsolated(t *testing.T) {
	r := newBPERegistry(t)
	ctx := context.Background()

	// Missing vocabulary and encoding makes construction fail.
	if err := r.RegisterConfig(Config{
		Key:    "bpe/broken",
		Family: token.FamilyBPE,
	}); err != nil {
		t.Fatalf("RegisterConfig error: %v", err)
	}
	if err := r.Alias("broken-model", "bpe/broken"); err != nil {
		t.Fatalf("Alias error: %v", err)
	}

	if _, err := r.Resolve(ctx, "broken-model"); !domainerrors.Is(err, domainerrors.ErrTokenizerInit) {
		t.Fatalf("expected tokenizer init error, got %v", err)
	}

	// The failure is cached for its key.
	if _, err := r.Resolve(ctx, "broken-model"); !domainerrors.Is(err, domainerrors.ErrTokenizerInit) {
		t.Errorf("expected cached init error, got %v", err)
	}
	if got := r.InitCount("bpe/broken"); got != 1 {
		t.Errorf("InitCount = %d, want 1", got)
	}

	// Other keys are unaffected.
	if _, err := r.Resolve(ctx, "test-model"); err != nil {
		t.Errorf("healthy key failed after broken key: %v", err)
	}
}

func TestRegistry_ResolveHonorsContext(t *testing.T) {
	r := newBPERegistry(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// With an already-canceled context the caller either gets the init
	// timeout error or, if construction won the race, the instance.
	tok, err := r.Resolve(ctx, "test-model")
	if err != nil {
		if !domainerrors.Is(err, domainerrors.ErrTokenizerInit) {
			t.Fatalf("expected init error for canceled context, got %v", err)
		}
	} else if tok == nil {
		t.Fatal("nil tokenizer without error")
	}

	// The canceled caller must not poison the key for later callers.
	okCtx, okCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer okCancel()
	if _, err := r.Resolve(okCtx, "test-model"); err != nil {
		t.Errorf("resolution after canceled caller failed: %v", err)
	}
}

func TestRegistry_AccessorsReturnCopies(t *testing.T) {
	r := newBPERegistry(t)
	if err := r.AddRule("test-", "bpe/test"); err != nil {
		t.Fatalf("AddRule error: %v", err)
	}

	aliases := r.Aliases()
	aliases["injected"] = "bpe/test"
	if _, ok := r.Aliases()["injected"]; ok {
		t.Error("Aliases() exposed internal map")
	}

	rules := r.Rules()
	rules[0].Prefix = "mutated"
	if r.Rules()[0].Prefix == "mutated" {
		t.Error("Rules() exposed internal slice")
	}
}
