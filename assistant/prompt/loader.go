package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/tool_selection.txt
	toolSelectionRaw string

	//go:embed template/final_answer.txt
	finalAnswerRaw string
)

// PromptSet holds the system prompts for the two protocol phases.
type PromptSet struct {
	ToolSelection string
	FinalAnswer   string
}

// LoadPromptSet returns the embedded prompts with surrounding whitespace
// trimmed. Safe to call concurrently.
func LoadPromptSet() PromptSet {
	return PromptSet{
		ToolSelection: strings.TrimSpace(toolSelectionRaw),
		FinalAnswer:   strings.TrimSpace(finalAnswerRaw),
	}
}
