package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/tokenmeter/internal/application"
	"github.com/jbctechsolutions/tokenmeter/internal/application/estimate"
	"github.com/jbctechsolutions/tokenmeter/internal/application/parser"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/history"
	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/watch"
)

// countFlags holds the flags for the count command.
type countFlags struct {
	Model        string
	Compare      []string
	Breakdown    bool
	OutputTokens int
	InputFormat  string
	DiffFile     string
	Watch        bool
	NoHistory    bool
}

var countOpts countFlags

// NewCountCmd creates the count command.
func NewCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [file]",
		Short: "Count tokens and estimate cost for a prompt",
		Long: `Count the tokens in a prompt and estimate what it would cost to send.

The prompt is read from the given file, or from stdin when the argument
is "-" or absent. Plain text becomes a single user message; JSON input
(a message array or a request object with a "messages" field) is counted
per message.

Examples:
  # Count a prompt file against the default model
  tokenmeter count prompt.txt

  # Count stdin against a specific model
  echo "hello world" | tokenmeter count --model gpt-4o

  # Compare the same prompt across models
  tokenmeter count prompt.txt --compare gpt-4o,gpt-4,claude-3-opus-20240229

  # Show per-role token breakdown for a chat request
  tokenmeter count request.json --breakdown

  # Diff two versions of a prompt
  tokenmeter count prompt.txt --diff prompt.v2.txt

  # Re-estimate on every save
  tokenmeter count prompt.txt --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCount,
	}

	cmd.Flags().StringVarP(&countOpts.Model, "model", "m", "",
		"model to count against (default from config)")
	cmd.Flags().StringSliceVar(&countOpts.Compare, "compare", nil,
		"comma-separated models to compare side by side")
	cmd.Flags().BoolVarP(&countOpts.Breakdown, "breakdown", "b", false,
		"show per-role token breakdown")
	cmd.Flags().IntVar(&countOpts.OutputTokens, "output-tokens", 0,
		"expected completion length for output cost")
	cmd.Flags().StringVarP(&countOpts.InputFormat, "format", "f", "auto",
		"input format: auto, text, json")
	cmd.Flags().StringVar(&countOpts.DiffFile, "diff", "",
		"second prompt file to diff against")
	cmd.Flags().BoolVarP(&countOpts.Watch, "watch", "w", false,
		"watch the prompt file and re-estimate on change")
	cmd.Flags().BoolVar(&countOpts.NoHistory, "no-history", false,
		"do not record this estimate in history")

	return cmd
}

func runCount(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	inputFormat, err := parser.ParseFormat(countOpts.InputFormat)
	if err != nil {
		return err
	}

	model := countOpts.Model
	if model == "" {
		model = container.Config().Defaults.Model
	}
	outputTokens := countOpts.OutputTokens
	if !cmd.Flags().Changed("output-tokens") {
		outputTokens = container.Config().Defaults.OutputTokens
	}

	source, fromStdin := inputSource(args)
	if countOpts.Watch {
		if fromStdin {
			return fmt.Errorf("--watch requires a file argument")
		}
		if countOpts.DiffFile != "" {
			return fmt.Errorf("--watch and --diff cannot be combined")
		}
		return runCountWatch(cmd.Context(), source, model, inputFormat, outputTokens)
	}

	input, err := readInput(source, fromStdin)
	if err != nil {
		return err
	}

	messages, err := parser.Parse(input, inputFormat)
	if err != nil {
		return err
	}

	ctx, cancel := estimateContext(cmd.Context(), container.Config().Defaults.ResolveTimeout)
	defer cancel()

	svc := container.EstimateService()

	if countOpts.DiffFile != "" {
		afterInput, err := os.ReadFile(countOpts.DiffFile)
		if err != nil {
			return fmt.Errorf("could not read diff file: %w", err)
		}
		after, err := parser.Parse(string(afterInput), inputFormat)
		if err != nil {
			return err
		}
		diff, err := svc.Diff(ctx, model, messages, after, outputTokens)
		if err != nil {
			return err
		}
		return formatter.RenderDiff(diff)
	}

	if len(countOpts.Compare) > 0 {
		models := compareModels(cmd, model)
		results, err := svc.Compare(ctx, models, messages, outputTokens, source)
		if err != nil {
			return err
		}
		for i := range results {
			saveHistory(ctx, container, &results[i])
		}
		return formatter.RenderCompare(results)
	}

	res, err := svc.Estimate(ctx, estimate.Request{
		Model:        model,
		Messages:     messages,
		OutputTokens: outputTokens,
		Source:       source,
	})
	if err != nil {
		return err
	}

	saveHistory(ctx, container, res)
	return formatter.RenderResult(res, countOpts.Breakdown)
}

// runCountWatch re-estimates the file on every stable write until the
// process is interrupted.
func runCountWatch(ctx context.Context, path, model string, inputFormat parser.Format, outputTokens int) error {
	formatter := GetFormatter()
	container := GetContainer()
	svc := container.EstimateService()

	estimateOnce := func() {
		input, err := os.ReadFile(path)
		if err != nil {
			formatter.Error("%s", err.Error())
			return
		}
		messages, err := parser.Parse(string(input), inputFormat)
		if err != nil {
			formatter.Error("%s", err.Error())
			return
		}
		estCtx, cancel := estimateContext(ctx, container.Config().Defaults.ResolveTimeout)
		defer cancel()
		res, err := svc.Estimate(estCtx, estimate.Request{
			Model:        model,
			Messages:     messages,
			OutputTokens: outputTokens,
			Source:       path,
		})
		if err != nil {
			formatter.Error("%s", err.Error())
			return
		}
		saveHistory(estCtx, container, res)
		if err := formatter.RenderResult(res, countOpts.Breakdown); err != nil {
			formatter.Error("%s", err.Error())
		}
	}

	watcher, err := watch.NewWatcher(path, watch.DefaultConfig())
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Start(); err != nil {
		return err
	}

	formatter.Println("Watching %s (Ctrl-C to stop)", path)
	estimateOnce()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if ev.Type == watch.EventRemove {
				formatter.Warning("File removed: %s", ev.Path)
				continue
			}
			formatter.Println("")
			estimateOnce()
		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			formatter.Error("watch error: %s", err.Error())
		}
	}
}

// compareModels builds the model set for a comparison run. The primary model
// leads when explicitly requested and not already listed.
func compareModels(cmd *cobra.Command, model string) []string {
	models := countOpts.Compare
	if !cmd.Flags().Changed("model") {
		return models
	}
	for _, m := range models {
		if m == model {
			return models
		}
	}
	return append([]string{model}, models...)
}

// inputSource determines where the prompt comes from.
func inputSource(args []string) (source string, fromStdin bool) {
	if len(args) == 0 || args[0] == "-" {
		return "stdin", true
	}
	return args[0], false
}

// readInput reads the whole prompt from the file or stdin.
func readInput(source string, fromStdin bool) (string, error) {
	if fromStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("could not read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("could not read prompt file: %w", err)
	}
	return string(data), nil
}

// estimateContext bounds an estimate by the configured resolve timeout.
func estimateContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// saveHistory records a finished estimate. History is best effort; a write
// failure never fails the command.
func saveHistory(ctx context.Context, container *application.Container, res *estimate.Result) {
	if countOpts.NoHistory {
		return
	}
	repo := container.HistoryRepository()
	if repo == nil {
		return
	}

	rec := &history.Record{
		Model:        res.Model,
		Provider:     res.Provider,
		Engine:       res.Engine,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		CostUSD:      res.Cost.Total.USD,
		CostKnown:    res.Cost.Total.Known,
		Approximate:  res.Approximate,
		Source:       res.Source,
	}
	if err := repo.Save(ctx, rec); err != nil {
		GetFormatter().Warning("could not record estimate: %v", err)
	}
}
