package responder

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	toolx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/tool"
)

var (
	calculatePrefix = regexp.MustCompile(`(?i)^\s*calculate\b[\s:]*`)
	arithmeticSpan  = regexp.MustCompile(`[\d(][\d.()+\-*/%^\s]*[\d)]`)
)

// Calculator evaluates the arithmetic found in a prompt.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

func (c *Calculator) Respond(_ context.Context, prompt string) string {
	value, err := evaluatePrompt(prompt)
	if err != nil {
		return fmt.Sprintf("Error in calculation: %v", err)
	}
	return toolx.FormatResult(value)
}

func evaluatePrompt(prompt string) (float64, error) {
	expr := ExtractExpression(prompt)
	value, err := toolx.Evaluate(expr)
	if err == nil {
		return value, nil
	}

	for _, span := range arithmeticSpan.FindAllString(prompt, -1) {
		if !strings.ContainsAny(span, "+-*/%^") {
			continue
		}
		if v, spanErr := toolx.Evaluate(span); spanErr == nil {
			return v, nil
		}
	}
	return 0, err
}

// ExtractExpression drops a leading "calculate" and trailing sentence
// punctuation from prompt.
func ExtractExpression(prompt string) string {
	expr := calculatePrefix.ReplaceAllString(prompt, "")
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(expr), "?.!"))
}
