package mutate

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// Sanitize strips every HTML element from the value and trims the result.
// Entities produced by the policy are decoded back to plain text.
func Sanitize() Func {
	return Text(func(text string) string {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return ""
		}
		return strings.TrimSpace(html.UnescapeString(sanitizer().Sanitize(trimmed)))
	})
}

func sanitizer() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}
