// Package pricing contains domain types for model price metadata.
// All rates are USD per 1000 tokens. A missing rate is a distinct state from
// a zero rate: zero means free tier, unknown means no price can be derived.
package pricing

import "sync"

// Rate is a price per 1000 tokens that may be unknown.
type Rate struct {
	PerThousand float64
	Known       bool
}

// Known returns a known rate. Zero is a valid known rate (free tier).
func KnownRate(perThousand float64) Rate {
	return Rate{PerThousand: perThousand, Known: true}
}

// UnknownRate returns the absent-price marker.
func UnknownRate() Rate {
	return Rate{}
}

// Entry holds the input/output rates for one (provider, model) pair.
type Entry struct {
	Provider string
	Model    string
	Input    Rate
	Output   Rate
}

// Table maps (provider, model) to a price entry. Lookup is exact; the table
// never guesses. Safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries map[string]map[string]Entry
}

// NewTable creates an empty pricing table.
func NewTable() *Table {
	return &Table{entries: make(map[string]map[string]Entry)}
}

// Set registers known input/output rates for a (provider, model) pair,
// replacing any existing entry.
func (t *Table) Set(provider, model string, inputPer1K, outputPer1K float64) {
	t.SetEntry(Entry{
		Provider: provider,
		Model:    model,
		Input:    KnownRate(inputPer1K),
		Output:   KnownRate(outputPer1K),
	})
}

// SetEntry registers an entry, replacing any existing one for the same pair.
// Entries may carry partially unknown rates.
func (t *Table) SetEntry(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	models, ok := t.entries[e.Provider]
	if !ok {
		models = make(map[string]Entry)
		t.entries[e.Provider] = models
	}
	models[e.Model] = e
}

// Lookup returns the entry for (provider, model). The second return value
// reports whether an entry exists; absence means "unknown", never zero.
func (t *Table) Lookup(provider, model string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	models, ok := t.entries[provider]
	if !ok {
		return Entry{}, false
	}
	e, ok := models[model]
	return e, ok
}

// Merge copies every entry of other into t, overriding existing pairs.
// Used to apply user pricing overrides on top of the built-in defaults.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}

	other.mu.RLock()
	defer other.mu.RUnlock()

	for _, models := range other.entries {
		for _, e := range models {
			t.SetEntry(e)
		}
	}
}

// Providers returns the provider names present in the table.
func (t *Table) Providers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.entries))
	for p := range t.entries {
		out = append(out, p)
	}
	return out
}

// Entries returns a copy of all entries in the table.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Entry
	for _, models := range t.entries {
		for _, e := range models {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of (provider, model) pairs in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, models := range t.entries {
		n += len(models)
	}
	return n
}
