package synthesis

import (
	"strings"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

// MaxContextLength caps the document text, in characters, folded into the
// prompt.
const MaxContextLength = 1500

const (
	instruction = "You are an AI assistant tasked with providing detailed answers based solely on the provided context. " +
		"Do not include any information not present in the context."
	closing        = "Please provide a comprehensive answer using only the information from the context above."
	webSectionHead = "\n\nAdditional Information from Web Search:\n"
)

type Input struct {
	Query   contractx.Query
	Outputs contractx.Outputs
	History []contractx.Exchange
}

// BuildPrompt renders the generation prompt: prior exchanges, the grounding
// instruction, the document context, the question and, when present, the web
// search results. Calculator output is not part of the prompt.
func BuildPrompt(in Input) string {
	var b strings.Builder

	for _, ex := range in.History {
		b.WriteString("User: ")
		b.WriteString(ex.User)
		b.WriteString("\nAssistant: ")
		b.WriteString(ex.Assistant)
		b.WriteString("\n")
	}
	if len(in.History) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(instruction)
	b.WriteString("\n\nContext:\n")
	b.WriteString(TruncateContext(in.Outputs[contractx.CapabilityDocument]))
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(in.Query.Text)
	b.WriteString("\n\n")
	b.WriteString(closing)

	if web := in.Outputs[contractx.CapabilityWeb]; web != "" {
		b.WriteString(webSectionHead)
		b.WriteString(web)
	}
	return b.String()
}

// TruncateContext keeps the first MaxContextLength characters of text and
// marks the cut with "...".
func TruncateContext(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxContextLength {
		return text
	}
	return string(runes[:MaxContextLength]) + "..."
}
