package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
)

// PricingFileEnv names the environment variable that points at a pricing
// override file. It takes precedence over the pricing.file config setting.
const PricingFileEnv = "TOKENMETER_PRICING_FILE"

// pricingFile is the on-disk override format: provider -> model -> rates.
//
//	openai:
//	  gpt-4:
//	    input: 0.03
//	    output: 0.06
type pricingFile map[string]map[string]pricingRates

type pricingRates struct {
	Input  *float64 `yaml:"input"`
	Output *float64 `yaml:"output"`
}

// LoadPricingOverrides reads a YAML override file and merges it into a copy
// of the built-in table. An omitted input or output rate stays unknown for
// that entry rather than inheriting the built-in value: an override file is
// the caller stating what they pay.
func LoadPricingOverrides(path string) (*pricing.Table, error) {
	table := pricing.DefaultTable()
	if env := os.Getenv(PricingFileEnv); env != "" {
		path = env
	}
	if path == "" {
		return table, nil
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var file pricingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file: %w", err)
	}

	overrides := pricing.NewTable()
	for provider, models := range file {
		if provider == "" {
			return nil, fmt.Errorf("pricing file: empty provider name")
		}
		for model, rates := range models {
			if model == "" {
				return nil, fmt.Errorf("pricing file: empty model name under provider %q", provider)
			}
			entry := pricing.Entry{
				Provider: provider,
				Model:    model,
				Input:    pricing.UnknownRate(),
				Output:   pricing.UnknownRate(),
			}
			if rates.Input != nil {
				if *rates.Input < 0 {
					return nil, fmt.Errorf("pricing file: negative input rate for %s/%s", provider, model)
				}
				entry.Input = pricing.KnownRate(*rates.Input)
			}
			if rates.Output != nil {
				if *rates.Output < 0 {
					return nil, fmt.Errorf("pricing file: negative output rate for %s/%s", provider, model)
				}
				entry.Output = pricing.KnownRate(*rates.Output)
			}
			overrides.SetEntry(entry)
		}
	}

	table.Merge(overrides)
	return table, nil
}
