package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/tokenmeter/internal/application/estimate"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/prompt"
)

// interactiveFlags holds the flags for the interactive command.
type interactiveFlags struct {
	Model        string
	OutputTokens int
}

var interactiveOpts interactiveFlags

// NewInteractiveCmd creates the interactive command.
func NewInteractiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"repl"},
		Short:   "Interactive token counting REPL",
		Long: `Start an interactive session for counting prompts as you type them.

Each line you enter is counted as a single user message against the
current model.

Special commands:
  /exit, /quit       - Exit the session
  /model <name>      - Switch to a different model
  /output <n>        - Set the expected completion length
  /breakdown         - Toggle per-role breakdown
  /help              - Show help message

Examples:
  # Start a session with the default model
  tokenmeter interactive

  # Start with a specific model
  tokenmeter interactive --model claude-3-opus-20240229`,
		Args: cobra.NoArgs,
		RunE: runInteractive,
	}

	cmd.Flags().StringVarP(&interactiveOpts.Model, "model", "m", "",
		"initial model (default from config)")
	cmd.Flags().IntVar(&interactiveOpts.OutputTokens, "output-tokens", 0,
		"expected completion length for output cost")

	return cmd
}

// runInteractive executes the interactive REPL.
func runInteractive(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	svc := container.EstimateService()

	currentModel := interactiveOpts.Model
	if currentModel == "" {
		currentModel = container.Config().Defaults.Model
	}
	outputTokens := interactiveOpts.OutputTokens
	breakdown := false

	formatter.Header("Tokenmeter")
	formatter.Item("model", currentModel)
	formatter.Println("")
	formatter.Println("Type a prompt and press Enter. Type /help for commands.")
	formatter.Println("")

	rl, err := readline.New("> ")
	if err != nil {
		return fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			exit, err := handleReplCommand(line, &currentModel, &outputTokens, &breakdown)
			if err != nil {
				formatter.Error("%s", err.Error())
				continue
			}
			if exit {
				break
			}
			continue
		}

		ctx, cancel := estimateContext(cmd.Context(), container.Config().Defaults.ResolveTimeout)
		res, err := svc.Estimate(ctx, estimate.Request{
			Model:        currentModel,
			Messages:     prompt.Text(line),
			OutputTokens: outputTokens,
			Source:       "inline",
		})
		cancel()
		if err != nil {
			formatter.Error("%s", err.Error())
			continue
		}

		if err := formatter.RenderResult(res, breakdown); err != nil {
			formatter.Error("%s", err.Error())
		}
		formatter.Println("")
	}

	formatter.Println("Session ended.")
	return nil
}

// handleReplCommand handles slash commands. Returns (shouldExit, error).
func handleReplCommand(line string, currentModel *string, outputTokens *int, breakdown *bool) (bool, error) {
	formatter := GetFormatter()

	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case "/exit", "/quit":
		return true, nil

	case "/model":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /model <model-name>")
		}
		// Validate before switching so a typo doesn't poison the session.
		container := GetContainer()
		if _, err := container.Registry().ResolveConfig(parts[1]); err != nil {
			return false, err
		}
		*currentModel = parts[1]
		formatter.Success("Switched to model: %s", *currentModel)
		return false, nil

	case "/output":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /output <token-count>")
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 {
			return false, fmt.Errorf("invalid token count: %s", parts[1])
		}
		*outputTokens = n
		formatter.Success("Expected completion length: %d tokens", n)
		return false, nil

	case "/breakdown":
		*breakdown = !*breakdown
		if *breakdown {
			formatter.Success("Per-role breakdown enabled")
		} else {
			formatter.Success("Per-role breakdown disabled")
		}
		return false, nil

	case "/help":
		formatter.Header("Commands")
		formatter.Item("/exit, /quit", "Exit the session")
		formatter.Item("/model <name>", "Switch to a different model")
		formatter.Item("/output <n>", "Set the expected completion length")
		formatter.Item("/breakdown", "Toggle per-role breakdown")
		formatter.Item("/help", "Show this help message")
		formatter.Println("")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (type /help for help)", parts[0])
	}
}
