package pricing

// Provider names used across the default table and the model registry.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderGroq      = "groq"
	ProviderOllama    = "ollama"
)

// DefaultTable returns the built-in pricing for well-known models.
// Rates are per 1000 tokens in USD. Provider pricing is typically quoted per
// million tokens:
//
//	rate_per_1k = price_per_million / 1000
//
// Example: GPT-4o at $2.50/MTok input = 0.0025 per 1K tokens.
// Last updated: January 2026
// Sources:
//   - OpenAI: https://openai.com/api/pricing/
//   - Anthropic: https://docs.anthropic.com/en/docs/about-claude/models
//   - Google: https://ai.google.dev/pricing
//   - Groq: https://groq.com/pricing/
func DefaultTable() *Table {
	t := NewTable()

	// OpenAI
	t.Set(ProviderOpenAI, "gpt-4", 0.03, 0.06)
	t.Set(ProviderOpenAI, "gpt-4-32k", 0.06, 0.12)
	t.Set(ProviderOpenAI, "gpt-4-turbo", 0.01, 0.03)
	t.Set(ProviderOpenAI, "gpt-4-turbo-preview", 0.01, 0.03)
	t.Set(ProviderOpenAI, "gpt-4o", 0.0025, 0.01)
	t.Set(ProviderOpenAI, "gpt-4o-mini", 0.00015, 0.0006)
	t.Set(ProviderOpenAI, "chatgpt-4o-latest", 0.005, 0.015)
	t.Set(ProviderOpenAI, "gpt-3.5-turbo", 0.0005, 0.0015)
	t.Set(ProviderOpenAI, "gpt-3.5-turbo-16k", 0.003, 0.004)
	t.Set(ProviderOpenAI, "o1", 0.015, 0.06)
	t.Set(ProviderOpenAI, "o1-mini", 0.003, 0.012)
	t.Set(ProviderOpenAI, "o3-mini", 0.0011, 0.0044)

	// Anthropic
	t.Set(ProviderAnthropic, "claude-3-opus-20240229", 0.015, 0.075)
	t.Set(ProviderAnthropic, "claude-3-sonnet-20240229", 0.003, 0.015)
	t.Set(ProviderAnthropic, "claude-3-haiku-20240307", 0.00025, 0.00125)
	t.Set(ProviderAnthropic, "claude-3-5-sonnet-latest", 0.003, 0.015)
	t.Set(ProviderAnthropic, "claude-3-5-haiku-latest", 0.0008, 0.004)

	// Google
	t.Set(ProviderGoogle, "gemini-pro", 0.00125, 0.01)
	t.Set(ProviderGoogle, "gemini-2.5-pro", 0.00125, 0.01)
	t.Set(ProviderGoogle, "gemini-2.5-flash", 0.000075, 0.0003)

	// Groq
	t.Set(ProviderGroq, "llama-3.3-70b-versatile", 0.00059, 0.00079)
	t.Set(ProviderGroq, "llama-3.1-8b-instant", 0.00005, 0.00008)
	t.Set(ProviderGroq, "mixtral-8x7b-32768", 0.00024, 0.00024)

	// Ollama models run locally: zero cost is a known price, not an
	// unknown one.
	t.Set(ProviderOllama, "llama3:8b", 0, 0)
	t.Set(ProviderOllama, "llama3:70b", 0, 0)
	t.Set(ProviderOllama, "mistral:7b", 0, 0)
	t.Set(ProviderOllama, "qwen2.5:7b", 0, 0)

	return t
}
