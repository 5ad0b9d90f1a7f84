package sanitize

import "regexp"

// Threat signatures are ordered from highest-confidence to catch-all so a
// match can short-circuit early. They recognize markup that is dangerous on
// sight: script-capable tag openers, inline event-handler assignments,
// executable URI schemes, and finally any remaining tag or HTML entity.
var threatSignatures = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed|svg|img|link|meta|style|base|form)\b`),
	regexp.MustCompile(`(?i)\bon(abort|blur|change|click|dblclick|error|focus|input|keydown|keypress|keyup|load|mousedown|mousemove|mouseout|mouseover|mouseup|reset|resize|scroll|select|submit|unload)\s*=`),
	regexp.MustCompile(`(?i)(javascript|vbscript|data)\s*:`),
	regexp.MustCompile(`<[^>]+>|&#?[a-zA-Z0-9]+;`),
}

// ThreatMatch reports whether text matches any known dangerous markup
// signature. It is authoritative for pattern-only sanitizers and a fast
// pre-filter otherwise. Empty input never matches.
func ThreatMatch(text string) bool {
	if text == "" {
		return false
	}
	for _, sig := range threatSignatures {
		if sig.MatchString(text) {
			return true
		}
	}
	return false
}
