// Tokenmeter CLI entry point
//
// Tokenmeter estimates token counts and API costs for LLM prompts before
// you send them. It resolves model names to tokenizer engines, counts
// prompt text exactly where an encoding is available and approximately
// elsewhere, and prices the result.
package main

import "github.com/jbctechsolutions/tokenmeter/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
