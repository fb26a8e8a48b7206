package parser

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy     *bluemonday.Policy
	stripPolicyOnce sync.Once
)

func textPolicy() *bluemonday.Policy {
	stripPolicyOnce.Do(func() {
		// Strict policy drops every tag and skips script/style content.
		// Stripped tags become spaces so adjacent blocks do not run together.
		stripPolicy = bluemonday.StrictPolicy()
		stripPolicy.AddSpaceWhenStrippingTag(true)
	})
	return stripPolicy
}

// StripMarkup converts an HTML body to plain text: tags are removed,
// entities decoded and whitespace runs collapsed to a single space.
func StripMarkup(body string) string {
	if body == "" {
		return ""
	}
	text := html.UnescapeString(textPolicy().Sanitize(body))
	return strings.Join(strings.Fields(text), " ")
}
