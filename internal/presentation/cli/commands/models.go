package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/presentation/cli/output"
)

// modelsFlags holds the flags for the models command.
type modelsFlags struct {
	Pricing bool
}

var modelsOpts modelsFlags

// modelAlias pairs a model alias with its engine configuration for output.
type modelAlias struct {
	Alias  string `json:"alias"`
	Config string `json:"config"`
}

// modelRule describes one prefix rule for output.
type modelRule struct {
	Prefix string `json:"prefix"`
	Config string `json:"config"`
}

// modelPricing is one pricing entry for JSON output. Nil means unknown.
type modelPricing struct {
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	InputPer1K   *float64 `json:"input_per_1k"`
	OutputPer1K  *float64 `json:"output_per_1k"`
}

// modelsListing is the full models listing for JSON output.
type modelsListing struct {
	Aliases []modelAlias   `json:"aliases"`
	Rules   []modelRule    `json:"rules"`
	Pricing []modelPricing `json:"pricing,omitempty"`
}

// NewModelsCmd creates the models command.
func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"ls"},
		Short:   "List known models, resolution rules, and pricing",
		Long: `List the model aliases and prefix rules the resolver knows about.

Aliases match exactly. When no alias matches, the prefix rules are tried
in registration order and the first match wins. A model that matches
neither is rejected rather than guessed at.

Examples:
  # Show aliases and prefix rules
  tokenmeter models

  # Include the effective pricing table (defaults plus overrides)
  tokenmeter models --pricing`,
		Args: cobra.NoArgs,
		RunE: runModels,
	}

	cmd.Flags().BoolVarP(&modelsOpts.Pricing, "pricing", "p", false,
		"include the effective pricing table")

	return cmd
}

func runModels(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	registry := container.Registry()

	listing := modelsListing{}
	for alias, key := range registry.Aliases() {
		listing.Aliases = append(listing.Aliases, modelAlias{Alias: alias, Config: key})
	}
	sort.Slice(listing.Aliases, func(i, j int) bool {
		return listing.Aliases[i].Alias < listing.Aliases[j].Alias
	})

	for _, rule := range registry.Rules() {
		listing.Rules = append(listing.Rules, modelRule{Prefix: rule.Prefix, Config: rule.ConfigKey})
	}

	if modelsOpts.Pricing {
		entries := container.Prices().Entries()
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Provider != entries[j].Provider {
				return entries[i].Provider < entries[j].Provider
			}
			return entries[i].Model < entries[j].Model
		})
		for _, e := range entries {
			listing.Pricing = append(listing.Pricing, modelPricing{
				Provider:    e.Provider,
				Model:       e.Model,
				InputPer1K:  ratePtr(e.Input),
				OutputPer1K: ratePtr(e.Output),
			})
		}
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(listing)
	}

	if err := formatter.Header("Aliases"); err != nil {
		return err
	}
	aliasTable := output.TableData{
		Columns: []output.TableColumn{{Header: "ALIAS"}, {Header: "ENGINE"}},
	}
	for _, a := range listing.Aliases {
		aliasTable.Rows = append(aliasTable.Rows, []string{a.Alias, a.Config})
	}
	if err := formatter.Table(aliasTable); err != nil {
		return err
	}

	if err := formatter.Println(""); err != nil {
		return err
	}
	if err := formatter.Header("Prefix rules (in match order)"); err != nil {
		return err
	}
	ruleTable := output.TableData{
		Columns: []output.TableColumn{{Header: "PREFIX"}, {Header: "ENGINE"}},
	}
	for _, r := range listing.Rules {
		ruleTable.Rows = append(ruleTable.Rows, []string{r.Prefix + "*", r.Config})
	}
	if err := formatter.Table(ruleTable); err != nil {
		return err
	}

	if !modelsOpts.Pricing {
		return nil
	}

	if err := formatter.Println(""); err != nil {
		return err
	}
	if err := formatter.Header("Pricing (USD per 1K tokens)"); err != nil {
		return err
	}
	priceTable := output.TableData{
		Columns: []output.TableColumn{
			{Header: "PROVIDER"},
			{Header: "MODEL"},
			{Header: "INPUT", Align: output.AlignRight},
			{Header: "OUTPUT", Align: output.AlignRight},
		},
	}
	for _, p := range listing.Pricing {
		priceTable.Rows = append(priceTable.Rows, []string{
			p.Provider,
			p.Model,
			formatRatePtr(p.InputPer1K),
			formatRatePtr(p.OutputPer1K),
		})
	}
	return formatter.Table(priceTable)
}

// ratePtr converts a rate to a nullable float for JSON output.
func ratePtr(r pricing.Rate) *float64 {
	if !r.Known {
		return nil
	}
	v := r.PerThousand
	return &v
}

func formatRatePtr(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("$%.4f", *v)
}
