package tokenizer

import (
	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/token"
)

// Default configuration keys.
const (
	ConfigO200k     = "bpe/o200k_base"
	ConfigCL100k    = "bpe/cl100k_base"
	ConfigAnthropic = "approx/anthropic"
	ConfigGoogle    = "approx/google"
	ConfigGeneric   = "approx/generic"
)

// DefaultOption adjusts the built-in registry.
type DefaultOption func(*defaultOptions)

type defaultOptions struct {
	charsPerToken float64
}

// WithCharsPerToken overrides the chars-per-token ratio of every heuristic
// configuration. Non-positive values keep the built-in ratios.
func WithCharsPerToken(ratio float64) DefaultOption {
	return func(o *defaultOptions) {
		o.charsPerToken = ratio
	}
}

// NewDefault builds the registry shipped with the CLI: the published OpenAI
// encodings plus explicit heuristic configurations for model families that
// publish no tokenizer. Models outside the alias table and rules resolve to
// an unsupported-model error rather than a silent approximation.
func NewDefault(opts ...DefaultOption) *Registry {
	var options defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	r := New()

	configs := []Config{
		{
			Key:              ConfigO200k,
			Provider:         pricing.ProviderOpenAI,
			Family:           token.FamilyBPE,
			Encoding:         "o200k_base",
			InputPricePer1K:  pricing.KnownRate(0.0025),
			OutputPricePer1K: pricing.KnownRate(0.01),
		},
		{
			Key:              ConfigCL100k,
			Provider:         pricing.ProviderOpenAI,
			Family:           token.FamilyBPE,
			Encoding:         "cl100k_base",
			InputPricePer1K:  pricing.KnownRate(0.03),
			OutputPricePer1K: pricing.KnownRate(0.06),
		},
		{
			Key:           ConfigAnthropic,
			Provider:      pricing.ProviderAnthropic,
			Family:        token.FamilyHeuristic,
			CharsPerToken: 3.5,
			// No engine-local rates: Claude pricing varies per model, so
			// only the pricing table can answer.
			InputPricePer1K:  pricing.UnknownRate(),
			OutputPricePer1K: pricing.UnknownRate(),
		},
		{
			Key:              ConfigGoogle,
			Provider:         pricing.ProviderGoogle,
			Family:           token.FamilyHeuristic,
			CharsPerToken:    DefaultCharsPerToken,
			InputPricePer1K:  pricing.UnknownRate(),
			OutputPricePer1K: pricing.UnknownRate(),
		},
		{
			Key:              ConfigGeneric,
			Provider:         "",
			Family:           token.FamilyHeuristic,
			CharsPerToken:    DefaultCharsPerToken,
			InputPricePer1K:  pricing.UnknownRate(),
			OutputPricePer1K: pricing.UnknownRate(),
		},
	}
	for _, cfg := range configs {
		if options.charsPerToken > 0 && cfg.Family == token.FamilyHeuristic {
			cfg.CharsPerToken = options.charsPerToken
		}
		if err := r.RegisterConfig(cfg); err != nil {
			panic(err) // static table, cannot fail
		}
	}

	aliases := map[string]string{
		"gpt-4o":        ConfigO200k,
		"gpt-4o-mini":   ConfigO200k,
		"gpt-4":         ConfigCL100k,
		"gpt-4-turbo":   ConfigCL100k,
		"gpt-3.5-turbo": ConfigCL100k,
		// Opt-in approximation for arbitrary text.
		"approx": ConfigGeneric,
	}
	for model, key := range aliases {
		if err := r.Alias(model, key); err != nil {
			panic(err)
		}
	}

	// Ordered: the o200k prefixes must precede the broader gpt- rule.
	rules := []Rule{
		{Prefix: "gpt-4o", ConfigKey: ConfigO200k},
		{Prefix: "o1", ConfigKey: ConfigO200k},
		{Prefix: "o3", ConfigKey: ConfigO200k},
		{Prefix: "chatgpt-", ConfigKey: ConfigO200k},
		{Prefix: "gpt-", ConfigKey: ConfigCL100k},
		{Prefix: "text-embedding-", ConfigKey: ConfigCL100k},
		{Prefix: "claude-", ConfigKey: ConfigAnthropic},
		{Prefix: "gemini-", ConfigKey: ConfigGoogle},
	}
	for _, rule := range rules {
		if err := r.AddRule(rule.Prefix, rule.ConfigKey); err != nil {
			panic(err)
		}
	}

	return r
}
