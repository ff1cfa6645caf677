package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/tokenmeter/internal/presentation/cli/output"
)

// buildInfo holds the build metadata for JSON output.
type buildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentBuildInfo() buildInfo {
	return buildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(short)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}

func runVersion(short bool) error {
	format := output.FormatText
	if globalFlags.Output == "json" {
		format = output.FormatJSON
	}
	formatter := output.NewFormatter(
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON && output.IsColorSupported()),
	)

	info := currentBuildInfo()

	if short {
		if format == output.FormatJSON {
			return formatter.JSON(map[string]string{"version": info.Version})
		}
		return formatter.Println("%s", info.Version)
	}

	if format == output.FormatJSON {
		return formatter.JSON(info)
	}

	if err := formatter.Header("Tokenmeter " + info.Version); err != nil {
		return err
	}
	formatter.Item("commit", valueOrUnset(info.GitCommit))
	formatter.Item("built", valueOrUnset(info.BuildDate))
	formatter.Item("go", info.GoVersion)
	formatter.Item("platform", info.Platform)
	return nil
}

func valueOrUnset(v string) string {
	if v == "" || v == "unknown" {
		return "(not set)"
	}
	return v
}
