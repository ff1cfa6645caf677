package tokenizer

import (
	"context"
	"fmt"
	"sync"

	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/token"
)

// Config describes one engine configuration. A configuration key identifies
// the unit of construction and caching: every model resolving to the same
// key shares one lazily built Tokenizer instance.
type Config struct {
	// Key uniquely identifies this configuration inside a registry.
	Key string

	// Provider is the vendor name used for pricing-table lookups.
	Provider string

	Family token.Family

	// Encoding names a published tiktoken encoding (FamilyBPE). When a
	// BPEVocabulary is supplied instead, the generic merge engine is used.
	Encoding      string
	BPEVocabulary *token.BPEVocabulary

	// Unigram configuration (FamilyUnigram).
	UnigramVocabulary *token.UnigramVocabulary
	MarkWords         bool

	// CharsPerToken configures the heuristic family ratio.
	CharsPerToken float64

	// Engine-local default rates, consulted only when the pricing table
	// has no entry for the resolved model.
	InputPricePer1K  pricing.Rate
	OutputPricePer1K pricing.Rate
}

// Rule is one ordered pattern rule: a model identifier matching Prefix
// resolves to ConfigKey. Rules are evaluated top to bottom after the alias
// table; the first match wins.
type Rule struct {
	Prefix    string
	ConfigKey string
}

// Registry resolves model identifiers to shared Tokenizer instances.
//
// Resolution is deterministic: exact alias lookup first, then the ordered
// prefix rules, then failure. There is no implicit fallback engine; the
// heuristic family is reachable only through explicit aliases or rules.
//
// Construction is lazy and exactly-once per configuration key. Concurrent
// resolvers of the same key wait for the single in-flight construction;
// a construction failure is cached for its key without affecting any other
// key. Callers bound construction time through their context.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]Config
	aliases map[string]string
	rules   []Rule
	entries map[string]*entry
	inits   map[string]int
}

// entry is the once-cell for one configuration key.
type entry struct {
	done chan struct{} // closed when construction finishes
	tok  token.Tokenizer
	err  error
}

// New creates an empty registry. Most callers want NewDefault.
func New() *Registry {
	return &Registry{
		configs: make(map[string]Config),
		aliases: make(map[string]string),
		entries: make(map[string]*entry),
		inits:   make(map[string]int),
	}
}

// RegisterConfig adds an engine configuration. Registering an existing key
// replaces its configuration but not an already-constructed instance.
func (r *Registry) RegisterConfig(cfg Config) error {
	if cfg.Key == "" {
		return fmt.Errorf("config key required")
	}
	switch cfg.Family {
	case token.FamilyBPE, token.FamilyUnigram, token.FamilyHeuristic:
	default:
		return fmt.Errorf("unknown engine family %q", cfg.Family)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.Key] = cfg
	return nil
}

// Alias maps an exact model identifier to a configuration key.
func (r *Registry) Alias(model, configKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.configs[configKey]; !ok {
		return fmt.Errorf("alias %q references unknown config %q", model, configKey)
	}
	r.aliases[model] = configKey
	return nil
}

// AddRule appends a prefix rule. Order of addition is evaluation order.
func (r *Registry) AddRule(prefix, configKey string) error {
	if prefix == "" {
		return fmt.Errorf("rule prefix required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.configs[configKey]; !ok {
		return fmt.Errorf("rule %q references unknown config %q", prefix, configKey)
	}
	r.rules = append(r.rules, Rule{Prefix: prefix, ConfigKey: configKey})
	return nil
}

// ResolveConfig runs name resolution without constructing an engine.
// Model identifiers are case-sensitive.
func (r *Registry) ResolveConfig(model string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if key, ok := r.aliases[model]; ok {
		return r.configs[key], nil
	}

	for _, rule := range r.rules {
		if len(model) >= len(rule.Prefix) && model[:len(rule.Prefix)] == rule.Prefix {
			return r.configs[rule.ConfigKey], nil
		}
	}

	return Config{}, domainerrors.UnsupportedModel(model)
}

// Resolve maps a model identifier to its shared Tokenizer instance,
// constructing it on first use. All concurrent callers for the same key
// receive the same instance; the context bounds how long this caller waits
// for an in-flight construction.
func (r *Registry) Resolve(ctx context.Context, model string) (token.Tokenizer, error) {
	cfg, err := r.ResolveConfig(model)
	if err != nil {
		return nil, err
	}

	e, started := r.entryFor(cfg.Key)
	if started {
		go r.construct(cfg, e)
	}

	select {
	case <-e.done:
		return e.tok, e.err
	case <-ctx.Done():
		return nil, domainerrors.TokenizerInit(cfg.Key, ctx.Err())
	}
}

// entryFor returns the once-cell for key, reporting whether this caller is
// the one that must start construction.
func (r *Registry) entryFor(key string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key]; ok {
		return e, false
	}

	e := &entry{done: make(chan struct{})}
	r.entries[key] = e
	r.inits[key]++
	return e, true
}

// construct builds the engine for its entry. It runs outside any caller's
// context: a caller timing out must not abort a construction other waiters
// share, and a completed instance stays available for later resolutions.
func (r *Registry) construct(cfg Config, e *entry) {
	defer close(e.done)

	tok, err := build(cfg)
	if err != nil {
		e.err = domainerrors.TokenizerInit(cfg.Key, err)
		return
	}
	e.tok = tok
}

// build dispatches on the engine family.
func build(cfg Config) (token.Tokenizer, error) {
	switch cfg.Family {
	case token.FamilyBPE:
		if cfg.BPEVocabulary != nil {
			return NewBPE(cfg.Key, *cfg.BPEVocabulary, cfg.InputPricePer1K, cfg.OutputPricePer1K)
		}
		if cfg.Encoding == "" {
			return nil, fmt.Errorf("bpe config %q: no encoding and no vocabulary", cfg.Key)
		}
		return NewTiktoken(cfg.Key, cfg.Encoding, cfg.InputPricePer1K, cfg.OutputPricePer1K)

	case token.FamilyUnigram:
		if cfg.UnigramVocabulary == nil {
			return nil, fmt.Errorf("unigram config %q: no vocabulary", cfg.Key)
		}
		return NewUnigram(UnigramConfig{
			Name:             cfg.Key,
			Vocabulary:       *cfg.UnigramVocabulary,
			MarkWords:        cfg.MarkWords,
			InputPricePer1K:  cfg.InputPricePer1K,
			OutputPricePer1K: cfg.OutputPricePer1K,
		})

	case token.FamilyHeuristic:
		return NewHeuristic(cfg.Key, cfg.CharsPerToken, cfg.InputPricePer1K, cfg.OutputPricePer1K), nil

	default:
		return nil, fmt.Errorf("unknown engine family %q", cfg.Family)
	}
}

// InitCount reports how many constructions were started for a key. Used by
// tests to verify initialize-once behavior.
func (r *Registry) InitCount(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inits[key]
}

// Aliases returns the alias table (model -> configuration key) as a copy.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.aliases))
	for m, k := range r.aliases {
		out[m] = k
	}
	return out
}

// Rules returns the ordered pattern rules as a copy.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}
