package output

import (
	"fmt"
	"strconv"

	"github.com/jbctechsolutions/tokenmeter/internal/application/estimate"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/cost"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/history"
)

// FormatAmount renders a monetary amount. An unknown price is always the
// literal word, never a zero dollar figure.
func FormatAmount(a cost.Amount) string {
	if !a.Known {
		return "unknown"
	}
	return fmt.Sprintf("$%.6f", a.USD)
}

// FormatSignedAmount renders a cost delta with an explicit sign.
func FormatSignedAmount(a cost.Amount) string {
	if !a.Known {
		return "unknown"
	}
	return fmt.Sprintf("%+.6f USD", a.USD)
}

// RenderResult writes one estimate in the formatter's configured format.
func (f *Formatter) RenderResult(res *estimate.Result, breakdown bool) error {
	if f.Format() == FormatJSON {
		return f.JSON(res)
	}

	header := res.Model
	if res.Approximate {
		header += " (approximate)"
	}
	if err := f.Header(header); err != nil {
		return err
	}

	if err := f.Item("engine", res.Engine); err != nil {
		return err
	}
	if res.Provider != "" {
		if err := f.Item("provider", res.Provider); err != nil {
			return err
		}
	}
	if err := f.Item("input tokens", f.formatTokens(res.InputTokens, res.Approximate)); err != nil {
		return err
	}
	if res.OutputTokens > 0 {
		if err := f.Item("output tokens", strconv.Itoa(res.OutputTokens)); err != nil {
			return err
		}
	}
	if err := f.Item("input cost", FormatAmount(res.Cost.InputCost)); err != nil {
		return err
	}
	if res.OutputTokens > 0 {
		if err := f.Item("output cost", FormatAmount(res.Cost.OutputCost)); err != nil {
			return err
		}
	}
	if err := f.Item("total cost", FormatAmount(res.Cost.Total)); err != nil {
		return err
	}

	if breakdown {
		if err := f.Println(""); err != nil {
			return err
		}
		if err := f.Println("%s", f.Bold("By role:")); err != nil {
			return err
		}
		if err := f.Item("system", strconv.Itoa(res.Roles.System)); err != nil {
			return err
		}
		if err := f.Item("user", strconv.Itoa(res.Roles.User)); err != nil {
			return err
		}
		if err := f.Item("assistant", strconv.Itoa(res.Roles.Assistant)); err != nil {
			return err
		}
		if res.Roles.Other > 0 {
			if err := f.Item("other", strconv.Itoa(res.Roles.Other)); err != nil {
				return err
			}
		}
	}

	return nil
}

// RenderCompare writes a multi-model comparison as a table (or JSON).
func (f *Formatter) RenderCompare(results []estimate.Result) error {
	if f.Format() == FormatJSON {
		return f.JSON(results)
	}

	data := TableData{
		Columns: []TableColumn{
			{Header: "MODEL"},
			{Header: "ENGINE"},
			{Header: "TOKENS", Align: AlignRight},
			{Header: "COST", Align: AlignRight},
			{Header: "EXACT"},
		},
	}

	summary := cost.NewSummary()
	for _, res := range results {
		exact := "yes"
		if res.Approximate {
			exact = "approx"
		}
		data.Rows = append(data.Rows, []string{
			res.Model,
			res.Engine,
			strconv.Itoa(res.InputTokens),
			FormatAmount(res.Cost.Total),
			exact,
		})
		summary.Add(res.Cost)
	}

	if err := f.Table(data); err != nil {
		return err
	}
	return f.Println("\nTotal: %s", FormatAmount(summary.Total()))
}

// RenderDiff writes a before/after comparison.
func (f *Formatter) RenderDiff(diff *estimate.DiffResult) error {
	if f.Format() == FormatJSON {
		return f.JSON(diff)
	}

	if err := f.Header("Diff: " + diff.Before.Model); err != nil {
		return err
	}
	if err := f.Item("before", fmt.Sprintf("%d tokens, %s", diff.Before.InputTokens, FormatAmount(diff.Before.Cost.Total))); err != nil {
		return err
	}
	if err := f.Item("after", fmt.Sprintf("%d tokens, %s", diff.After.InputTokens, FormatAmount(diff.After.Cost.Total))); err != nil {
		return err
	}
	if err := f.Item("delta tokens", fmt.Sprintf("%+d", diff.DeltaTokens)); err != nil {
		return err
	}
	return f.Item("delta cost", FormatSignedAmount(diff.DeltaCost))
}

// RenderHistory writes stored estimate records as a table (or JSON).
func (f *Formatter) RenderHistory(records []history.Record) error {
	if f.Format() == FormatJSON {
		return f.JSON(records)
	}

	data := TableData{
		Columns: []TableColumn{
			{Header: "WHEN"},
			{Header: "MODEL"},
			{Header: "TOKENS", Align: AlignRight},
			{Header: "COST", Align: AlignRight},
			{Header: "SOURCE"},
		},
	}

	for _, rec := range records {
		amount := cost.UnknownAmount()
		if rec.CostKnown {
			amount = cost.KnownAmount(rec.CostUSD)
		}
		data.Rows = append(data.Rows, []string{
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			rec.Model,
			strconv.Itoa(rec.InputTokens + rec.OutputTokens),
			FormatAmount(amount),
			rec.Source,
		})
	}

	return f.Table(data)
}

// formatTokens marks approximate counts with a tilde.
func (f *Formatter) formatTokens(n int, approximate bool) string {
	if approximate {
		return "~" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
