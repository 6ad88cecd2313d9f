package contextwindow

import (
	"strings"

	"prompthub/internal/llm"
)

const (
	// charBudget bounds the whole context window. This is a character
	// budget, not a token budget: conservative and simple on purpose.
	charBudget = 12000
	// perMessageOverhead approximates role tags and separators.
	perMessageOverhead = 10
)

// Window is the assembled prompt payload: a system-text block plus the
// trimmed history that fits the budget.
type Window struct {
	SystemText string
	History    []llm.Message
}

// Build assembles the context window from instruction text, an optional
// style directive, an optional running summary and the ordered message
// history. The system text concatenates the non-empty segments in fixed
// order. History is trimmed newest-to-oldest against the budget seeded
// with the system-text length; older messages are dropped whole, never
// truncated mid-content. The inbound user message being answered is not
// part of history here and is never subject to this budget.
func Build(history []llm.Message, instruction, style, summary string) Window {
	systemText := buildSystemText(instruction, style, summary)

	total := len(systemText)
	kept := make([]llm.Message, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		cost := len(history[i].Content) + perMessageOverhead
		if total+cost > charBudget {
			break
		}
		kept = append(kept, history[i])
		total += cost
	}

	// Back to chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return Window{SystemText: systemText, History: kept}
}

func buildSystemText(instruction, style, summary string) string {
	var parts []string
	if instruction != "" {
		parts = append(parts, "Prompt instructions: "+instruction)
	}
	if style != "" {
		parts = append(parts, "Assistant communication style: "+style+". Keep to this style in every reply.")
	}
	if summary != "" {
		parts = append(parts, "Brief summary of earlier history: "+summary)
	}
	return strings.Join(parts, "\n")
}
