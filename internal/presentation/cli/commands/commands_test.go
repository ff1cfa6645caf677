package commands

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"

	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
)

// executeCommand executes a cobra command with the given args.
func executeCommand(root *cobra.Command, args ...string) error {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	return root.Execute()
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd == nil {
		t.Fatal("NewRootCmd returned nil")
	}

	if cmd.Use != "tokenmeter" {
		t.Errorf("expected Use='tokenmeter', got %q", cmd.Use)
	}

	// Check key subcommands exist
	wantSubcmds := []string{"version", "count", "models", "history", "interactive"}
	subcmds := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcmds[sub.Name()] = true
	}

	for _, want := range wantSubcmds {
		if !subcmds[want] {
			t.Errorf("missing subcommand: %s", want)
		}
	}

	// Check persistent flags
	wantFlags := []string{"config", "output", "verbose"}
	for _, flag := range wantFlags {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag: %s", flag)
		}
	}
}

func TestVersionCmd_NoError(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"basic", []string{"version"}, false},
		{"short", []string{"version", "--short"}, false},
		{"json", []string{"version", "-o", "json"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			err := executeCommand(cmd, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewVersionCmd_Structure(t *testing.T) {
	cmd := NewVersionCmd()

	if cmd.Use != "version" {
		t.Errorf("expected Use='version', got %q", cmd.Use)
	}

	if cmd.Flags().Lookup("short") == nil {
		t.Error("missing --short flag")
	}
}

func TestNewCountCmd_Structure(t *testing.T) {
	cmd := NewCountCmd()

	if cmd.Use != "count [file]" {
		t.Errorf("unexpected Use: %q", cmd.Use)
	}

	wantFlags := []string{"model", "compare", "breakdown", "output-tokens", "format", "diff", "watch", "no-history"}
	for _, flag := range wantFlags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestCountCmd_ArgValidation(t *testing.T) {
	// Two positional args is a usage error regardless of app state.
	cmd := NewCountCmd()
	err := executeCommand(cmd, "a.txt", "b.txt")
	if err == nil {
		t.Error("expected error for two positional args")
	}
}

func TestNewModelsCmd_Structure(t *testing.T) {
	cmd := NewModelsCmd()

	if cmd.Use != "models" {
		t.Errorf("expected Use='models', got %q", cmd.Use)
	}

	// Check alias
	found := false
	for _, alias := range cmd.Aliases {
		if alias == "ls" {
			found = true
			break
		}
	}
	if !found {
		t.Error("missing 'ls' alias")
	}

	if cmd.Flags().Lookup("pricing") == nil {
		t.Error("missing --pricing flag")
	}
}

func TestNewHistoryCmd_Structure(t *testing.T) {
	cmd := NewHistoryCmd()

	if cmd.Use != "history" {
		t.Errorf("expected Use='history', got %q", cmd.Use)
	}

	subcmds := make(map[string]*cobra.Command)
	for _, sub := range cmd.Commands() {
		subcmds[sub.Name()] = sub
	}

	list, ok := subcmds["list"]
	if !ok {
		t.Fatal("missing 'list' subcommand")
	}
	for _, flag := range []string{"model", "provider", "since", "limit", "offset"} {
		if list.Flags().Lookup(flag) == nil {
			t.Errorf("missing list flag: %s", flag)
		}
	}

	if _, ok := subcmds["clear"]; !ok {
		t.Error("missing 'clear' subcommand")
	}
}

func TestNewInteractiveCmd_Structure(t *testing.T) {
	cmd := NewInteractiveCmd()

	if cmd.Use != "interactive" {
		t.Errorf("expected Use='interactive', got %q", cmd.Use)
	}

	found := false
	for _, alias := range cmd.Aliases {
		if alias == "repl" {
			found = true
			break
		}
	}
	if !found {
		t.Error("missing 'repl' alias")
	}

	if cmd.Flags().Lookup("model") == nil {
		t.Error("missing --model flag")
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"unsupported model", domainerrors.UnsupportedModel("mystery-9000"), ExitUnsupportedModel},
		{"wrapped unsupported model", errors.Join(errors.New("context"), domainerrors.UnsupportedModel("x")), ExitUnsupportedModel},
		{"generic", errors.New("boom"), ExitError},
		{"parse", domainerrors.Parse("bad input"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInputSource(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantSource string
		wantStdin  bool
	}{
		{"no args", nil, "stdin", true},
		{"dash", []string{"-"}, "stdin", true},
		{"file", []string{"prompt.txt"}, "prompt.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, fromStdin := inputSource(tt.args)
			if source != tt.wantSource || fromStdin != tt.wantStdin {
				t.Errorf("inputSource(%v) = (%q, %v), want (%q, %v)",
					tt.args, source, fromStdin, tt.wantSource, tt.wantStdin)
			}
		})
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2026-08-01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), false},
		{"2026-08-01T12:30:00Z", time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC), false},
		{"yesterday", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSince(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSince(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("parseSince(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatRatePtr(t *testing.T) {
	v := 0.0025
	if got := formatRatePtr(&v); got != "$0.0025" {
		t.Errorf("formatRatePtr(0.0025) = %q", got)
	}
	if got := formatRatePtr(nil); got != "unknown" {
		t.Errorf("formatRatePtr(nil) = %q, want unknown", got)
	}
}
