package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/caregiver.txt
var caregiverRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	// Caregiver is the synthesis system prompt. It is an FString template
	// with the {role}, {child_name}, {child_inkling} and {context} variables.
	Caregiver string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Caregiver: strings.TrimSpace(caregiverRaw),
	}
}
