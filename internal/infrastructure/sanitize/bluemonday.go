package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLSanitizer cleans rich text posted by users. It keeps the usual
// formatting, links and images and drops scripts, handlers and styles.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

func NewHTMLSanitizer() *HTMLSanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[a-zA-Z0-9+#-]+$`)).OnElements("code")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &HTMLSanitizer{policy: p}
}

func (s *HTMLSanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
