package llm

import (
	"fmt"
	"strings"

	"github.com/sandevgo/screenmate/internal/core"
)

// Responses stay short on purpose; observations and summaries are stored
// verbatim and long ones drown retrieval.
const responseMaxTokens = 300

var insightSystemPrompt = fmt.Sprintf(
	"You are %s, an AI assistant that helps users understand what they're working on. "+
		"Provide brief, focused insights that would be most helpful given what's visible "+
		"on screen and the user's recent activity. Don't explain what %s is - just provide "+
		"the insights directly.",
	core.MateName, core.MateName,
)

const summarySystemPrompt = "You create concise, useful summaries that preserve key information and eliminate redundancy."

func insightPrompt(screenText, inputContext string) string {
	var b strings.Builder
	b.WriteString("I'm looking at my screen which contains the following text:\n\n")
	b.WriteString(screenText)
	b.WriteString("\n\n")
	if inputContext != "" {
		b.WriteString("Additional context about what I'm doing:\n")
		b.WriteString(inputContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Based on this information, what are 1-3 key insights or helpful observations you can provide?\n")
	b.WriteString("Focus on what might be most helpful to know right now given what I'm working on.\n")
	b.WriteString("Keep your response brief and focused.")
	return b.String()
}

func summaryPrompt(contents, topics []string) string {
	return fmt.Sprintf(
		"Please summarize these related notes into a concise, useful summary:\n\n"+
			"%s\n\n"+
			"These notes relate to the following topics: %s\n\n"+
			"Create a summary that preserves the most important information, action items,\n"+
			"and insights while eliminating redundancy and low-value content.",
		strings.Join(contents, "\n\n---\n\n"),
		strings.Join(topics, ", "),
	)
}
