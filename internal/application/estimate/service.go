// Package estimate implements the count and cost estimation service.
package estimate

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jbctechsolutions/tokenmeter/internal/domain/cost"
	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/pricing"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/prompt"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/token"
	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/logging"
	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/tokenizer"
	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/tracing"
)

// Resolver maps model identifiers to engines. Satisfied by tokenizer.Registry.
type Resolver interface {
	Resolve(ctx context.Context, model string) (token.Tokenizer, error)
	ResolveConfig(model string) (tokenizer.Config, error)
}

// Request is one estimation request.
type Request struct {
	Model        string
	Messages     []prompt.Message
	OutputTokens int
	Source       string // provenance for history records; informational
}

// Result is a completed estimate for one model.
type Result struct {
	Model        string           `json:"model"`
	Provider     string           `json:"provider,omitempty"`
	Engine       string           `json:"engine"`
	Family       token.Family     `json:"family"`
	Approximate  bool             `json:"approximate"`
	Messages     int              `json:"messages"`
	Chars        int              `json:"chars"`
	InputTokens  int              `json:"input_tokens"`
	OutputTokens int              `json:"output_tokens"`
	Cost         cost.Breakdown   `json:"cost"`
	Roles        prompt.Breakdown `json:"roles"`
	Source       string           `json:"source,omitempty"`
}

// DiffResult compares two estimates of the same model.
type DiffResult struct {
	Before Result `json:"before"`
	After  Result `json:"after"`

	// DeltaTokens is after minus before input tokens.
	DeltaTokens int `json:"delta_tokens"`

	// DeltaCost is the signed total cost difference; unknown when either
	// side's total is unknown.
	DeltaCost cost.Amount `json:"delta_cost"`
}

// Service runs count and cost estimates against the model registry and
// pricing table. Safe for concurrent use.
type Service struct {
	resolver Resolver
	prices   *pricing.Table
	logger   *logging.Logger
	tracer   *tracing.Tracer
}

// NewService creates an estimation service. A nil table disables table
// lookups; a nil logger or tracer falls back to the package defaults.
func NewService(resolver Resolver, prices *pricing.Table, logger *logging.Logger, tracer *tracing.Tracer) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if tracer == nil {
		tracer = tracing.Default()
	}
	return &Service{
		resolver: resolver,
		prices:   prices,
		logger:   logger,
		tracer:   tracer,
	}
}

// Estimate counts the request's messages and prices the result.
func (s *Service) Estimate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	ctx, span := s.tracer.StartEstimateSpan(ctx, req.Model)

	res, err := s.estimate(ctx, req)
	if err != nil {
		span.EndWithError(err)
		logging.LogEstimateFailed(ctx, s.logger, req.Model, err, time.Since(start))
		return nil, err
	}

	span.SetTokens(res.InputTokens, res.OutputTokens)
	span.SetCost(res.Cost.Total.USD, res.Cost.Total.Known)
	span.SetApproximate(res.Approximate)
	span.End()
	logging.LogEstimateComplete(ctx, s.logger, req.Model, res.InputTokens, res.OutputTokens, time.Since(start), res.Approximate)

	return res, nil
}

func (s *Service) estimate(ctx context.Context, req Request) (*Result, error) {
	if req.OutputTokens < 0 {
		return nil, domainerrors.Parse("output tokens must be non-negative")
	}

	ctx, rspan := s.tracer.StartResolveSpan(ctx, req.Model)
	cfg, err := s.resolver.ResolveConfig(req.Model)
	if err != nil {
		rspan.EndWithError(err)
		return nil, err
	}

	tok, err := s.resolver.Resolve(ctx, req.Model)
	if err != nil {
		rspan.EndWithError(err)
		return nil, err
	}
	rspan.SetEngine(tok.Name(), string(tok.Family()))
	rspan.End()

	res := &Result{
		Model:        req.Model,
		Provider:     cfg.Provider,
		Engine:       tok.Name(),
		Family:       tok.Family(),
		Approximate:  tok.Approximate(),
		Messages:     len(req.Messages),
		OutputTokens: req.OutputTokens,
		Source:       req.Source,
	}

	for _, msg := range req.Messages {
		count, err := tok.Count(msg.Content)
		if err != nil {
			return nil, err
		}
		res.Roles.Add(msg.Role, count)
		res.InputTokens += count
		res.Chars += utf8.RuneCountInString(msg.Content)
	}

	input, output := s.rates(ctx, req.Model, cfg.Provider, tok)
	res.Cost = cost.Compute(req.Model, cfg.Provider, res.InputTokens, req.OutputTokens, input, output)
	res.Cost.Approximate = res.Approximate

	return res, nil
}

// rates selects the per-1K rates: the pricing table answers first, then the
// engine-local defaults, then unknown. The chain applies per term so a table
// entry with only an input price still benefits from an engine output rate.
func (s *Service) rates(ctx context.Context, model, provider string, tok token.Tokenizer) (pricing.Rate, pricing.Rate) {
	input := pricing.UnknownRate()
	output := pricing.UnknownRate()

	if s.prices != nil {
		if entry, ok := s.prices.Lookup(provider, model); ok {
			input, output = entry.Input, entry.Output
		}
	}
	if !input.Known {
		input = tok.InputPricePer1K()
	}
	if !output.Known {
		output = tok.OutputPricePer1K()
	}

	if !input.Known && !output.Known {
		logging.LogPricingUnknown(ctx, s.logger, provider, model)
	}

	return input, output
}

// Compare estimates the same messages across several models, one goroutine
// per model over the shared immutable engines. Results keep request order;
// any resolution or encoding failure aborts the comparison.
func (s *Service) Compare(ctx context.Context, models []string, messages []prompt.Message, outputTokens int, source string) ([]Result, error) {
	results := make([]Result, len(models))
	errs := make([]error, len(models))

	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(i int, model string) {
			defer wg.Done()
			res, err := s.Estimate(ctx, Request{
				Model:        model,
				Messages:     messages,
				OutputTokens: outputTokens,
				Source:       source,
			})
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = *res
		}(i, model)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Diff estimates two versions of a prompt under the same model and reports
// the token and cost deltas.
func (s *Service) Diff(ctx context.Context, model string, before, after []prompt.Message, outputTokens int) (*DiffResult, error) {
	beforeRes, err := s.Estimate(ctx, Request{Model: model, Messages: before, OutputTokens: outputTokens, Source: "before"})
	if err != nil {
		return nil, err
	}
	afterRes, err := s.Estimate(ctx, Request{Model: model, Messages: after, OutputTokens: outputTokens, Source: "after"})
	if err != nil {
		return nil, err
	}

	diff := &DiffResult{
		Before:      *beforeRes,
		After:       *afterRes,
		DeltaTokens: afterRes.InputTokens - beforeRes.InputTokens,
		DeltaCost:   cost.UnknownAmount(),
	}
	if beforeRes.Cost.Total.Known && afterRes.Cost.Total.Known {
		diff.DeltaCost = cost.KnownAmount(afterRes.Cost.Total.USD - beforeRes.Cost.Total.USD)
	}

	return diff, nil
}
