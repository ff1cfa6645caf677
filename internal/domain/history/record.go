// Package history defines the estimate history record persisted by the CLI.
package history

import "time"

// Record is one persisted estimate result.
type Record struct {
	ID           string
	Model        string
	Provider     string
	Engine       string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	CostKnown    bool
	Approximate  bool
	Source       string // file path, "-" for stdin, "inline" for direct text
	CreatedAt    time.Time
}

// Filter narrows a history listing.
type Filter struct {
	Model     string
	Provider  string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}
