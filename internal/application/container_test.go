package application

import (
	"testing"

	"github.com/jbctechsolutions/tokenmeter/internal/infrastructure/config"
)

func TestNewContainer_HeuristicRatioReachesRegistry(t *testing.T) {
	t.Setenv(config.PricingFileEnv, "")

	cfg := config.NewDefaultConfig()
	cfg.History.Enabled = false
	cfg.Heuristic.CharsPerToken = 2.5

	c, err := NewContainer(cfg, false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer c.Close()

	rc, err := c.Registry().ResolveConfig("claude-3-opus-20240229")
	if err != nil {
		t.Fatalf("ResolveConfig failed: %v", err)
	}
	if rc.CharsPerToken != 2.5 {
		t.Errorf("chars per token = %v, want configured 2.5", rc.CharsPerToken)
	}
}

func TestNewContainer_ZeroRatioKeepsBuiltins(t *testing.T) {
	t.Setenv(config.PricingFileEnv, "")

	cfg := config.NewDefaultConfig()
	cfg.History.Enabled = false

	c, err := NewContainer(cfg, false)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer c.Close()

	rc, err := c.Registry().ResolveConfig("claude-3-opus-20240229")
	if err != nil {
		t.Fatalf("ResolveConfig failed: %v", err)
	}
	if rc.CharsPerToken != 3.5 {
		t.Errorf("chars per token = %v, want built-in 3.5", rc.CharsPerToken)
	}
}
