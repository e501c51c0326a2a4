// Package sanitize cleans user-supplied labels before they are stored.
// Uses bluemonday's strict policy, which strips every tag and attribute,
// so a tag name is always plain text no matter what was pasted into it.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared strict policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// PlainText strips all markup from input, decodes the entities bluemonday
// escapes on the way out (so "R&D" stays "R&D"), and collapses runs of
// whitespace into single spaces. Templates escape again when rendering.
func PlainText(input string) string {
	if input == "" {
		return ""
	}
	stripped := html.UnescapeString(getPolicy().Sanitize(input))
	return strings.Join(strings.Fields(stripped), " ")
}
