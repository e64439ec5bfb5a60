package llm

import (
	"fmt"
	"strings"
)

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	// Long unbroken text (minified code, base64) has few words.
	if byChars := len(text) / 4; byChars > tokens {
		tokens = byChars
	}
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// BudgetError reports an input over the configured token budget.
type BudgetError struct {
	Tokens int
	Max    int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("input is too large: about %d tokens, limit is %d", e.Tokens, e.Max)
}

// CheckBudget rejects input whose estimate exceeds maxTokens.
// A non-positive maxTokens disables the check.
func CheckBudget(input string, maxTokens int) error {
	if maxTokens <= 0 {
		return nil
	}
	if n := EstimateTokens(input); n > maxTokens {
		return &BudgetError{Tokens: n, Max: maxTokens}
	}
	return nil
}
