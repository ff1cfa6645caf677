package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/tokenmeter/internal/domain/history"
)

// historyFlags holds the flags for the history list command.
type historyFlags struct {
	Model    string
	Provider string
	Since    string
	Limit    int
	Offset   int
}

var historyOpts historyFlags

// NewHistoryCmd creates the history command with its subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past estimates",
		Long: `Browse estimates recorded in the local history database.

History is written automatically by the count command unless disabled
with --no-history or in the configuration.`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryClearCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded estimates, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}

	cmd.Flags().StringVarP(&historyOpts.Model, "model", "m", "", "filter by model")
	cmd.Flags().StringVarP(&historyOpts.Provider, "provider", "p", "", "filter by provider")
	cmd.Flags().StringVar(&historyOpts.Since, "since", "", "only records after this time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().IntVarP(&historyOpts.Limit, "limit", "n", 20, "maximum number of records")
	cmd.Flags().IntVar(&historyOpts.Offset, "offset", 0, "number of records to skip")

	return cmd
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded estimates",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	repo := container.HistoryRepository()
	if repo == nil {
		return fmt.Errorf("history is disabled or unavailable")
	}

	filter := history.Filter{
		Model:    historyOpts.Model,
		Provider: historyOpts.Provider,
		Limit:    historyOpts.Limit,
		Offset:   historyOpts.Offset,
	}

	if historyOpts.Since != "" {
		since, err := parseSince(historyOpts.Since)
		if err != nil {
			return err
		}
		filter.StartDate = since
	}

	records, err := repo.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("could not list history: %w", err)
	}

	if len(records) == 0 {
		return formatter.Println("No recorded estimates.")
	}
	return formatter.RenderHistory(records)
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	repo := container.HistoryRepository()
	if repo == nil {
		return fmt.Errorf("history is disabled or unavailable")
	}

	deleted, err := repo.Clear(cmd.Context())
	if err != nil {
		return fmt.Errorf("could not clear history: %w", err)
	}

	return formatter.Success("Deleted %d record(s)", deleted)
}

// parseSince accepts an RFC 3339 timestamp or a bare date.
func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q (want RFC 3339 or YYYY-MM-DD)", s)
}
