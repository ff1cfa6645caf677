// Package cost contains domain types for monetary cost estimation.
// Cost is derived from token counts and per-1K rates; an unknown price
// propagates to an explicit unknown amount, never to zero.
package cost

import "github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"

// Amount is a monetary value in USD that may be unknown.
type Amount struct {
	USD   float64
	Known bool
}

// KnownAmount returns a known amount.
func KnownAmount(usd float64) Amount {
	return Amount{USD: usd, Known: true}
}

// UnknownAmount returns the price-unknown marker.
func UnknownAmount() Amount {
	return Amount{}
}

// Add combines two amounts. The sum is known only when both are known.
func (a Amount) Add(b Amount) Amount {
	if !a.Known || !b.Known {
		return UnknownAmount()
	}
	return KnownAmount(a.USD + b.USD)
}

// Breakdown is the cost breakdown for a single estimate.
type Breakdown struct {
	Model        string
	Provider     string
	InputTokens  int
	OutputTokens int
	InputCost    Amount
	OutputCost   Amount
	Total        Amount
	Approximate  bool // counts came from a non-authoritative engine
}

// Compute derives a cost breakdown from token counts and per-1K rates.
//
// The input term always applies: with an unknown input rate the input cost,
// and therefore the total, is unknown even for zero input tokens. The output
// term applies only when output tokens were requested, so an unknown output
// rate with zero output tokens still yields a known total.
func Compute(model, provider string, inputTokens, outputTokens int, input, output pricing.Rate) Breakdown {
	b := Breakdown{
		Model:        model,
		Provider:     provider,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		InputCost:    termCost(inputTokens, input),
		OutputCost:   termCost(outputTokens, output),
	}

	b.Total = b.InputCost
	if outputTokens > 0 {
		b.Total = b.Total.Add(b.OutputCost)
	}

	return b
}

func termCost(tokens int, rate pricing.Rate) Amount {
	if !rate.Known {
		return UnknownAmount()
	}
	return KnownAmount(float64(tokens) / 1000.0 * rate.PerThousand)
}

// Summary aggregates cost across multiple estimates (compare runs, history).
type Summary struct {
	TotalTokens    int
	KnownCost      float64
	KnownCount     int
	UnknownCount   int
	ByProvider     map[string]float64
	ByModel        map[string]float64
	ApproximateAny bool
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{
		ByProvider: make(map[string]float64),
		ByModel:    make(map[string]float64),
	}
}

// Add folds a breakdown into the summary. Unknown totals are counted but
// never contribute to the aggregate cost.
func (s *Summary) Add(b Breakdown) {
	s.TotalTokens += b.InputTokens + b.OutputTokens
	if b.Approximate {
		s.ApproximateAny = true
	}

	if !b.Total.Known {
		s.UnknownCount++
		return
	}

	s.KnownCost += b.Total.USD
	s.KnownCount++
	if b.Provider != "" {
		s.ByProvider[b.Provider] += b.Total.USD
	}
	if b.Model != "" {
		s.ByModel[b.Model] += b.Total.USD
	}
}

// Total returns the aggregate cost. It is unknown when any folded breakdown
// had an unknown total.
func (s *Summary) Total() Amount {
	if s.UnknownCount > 0 {
		return UnknownAmount()
	}
	return KnownAmount(s.KnownCost)
}
