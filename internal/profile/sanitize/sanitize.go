// Package sanitize strips HTML and script content from untrusted profile
// input. The pipeline never fails: when the HTML policy engine is not carried
// by the host, a pattern-stripping fallback produces plain text instead.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// neutralizers remove known dangerous protocol and attribute substrings
// before tag stripping. Order matters: protocols first, then handlers, so a
// payload like `<img onerror=javascript:x>` loses both vectors.
var neutralizers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(javascript|vbscript)\s*:`),
	regexp.MustCompile(`(?i)data\s*:\s*text/html[^,"'\s>]*`),
	regexp.MustCompile(`(?i)\bon(abort|blur|change|click|dblclick|error|focus|input|keydown|keypress|keyup|load|mousedown|mousemove|mouseout|mouseover|mouseup|reset|resize|scroll|select|submit|unload)\s*=`),
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Sanitizer removes markup while preserving inner text content. Construct it
// once and share it; the zero value is not usable.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New returns a sanitizer backed by a strict HTML policy: no tags, no
// attributes, text content kept.
func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// NewPatternOnly returns a sanitizer that relies solely on signature matching
// and tag stripping. Intended for hosts that cannot carry the policy engine;
// the threat signatures are authoritative in this mode.
func NewPatternOnly() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize strips tags and scripting content from text, preserving plain
// text. It never returns an error; any policy failure degrades to pattern
// stripping. The result is trimmed and carries no angle brackets.
func (s *Sanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}

	cleaned := text
	if s.policy != nil {
		// The policy escapes entities while stripping tags; decode them back
		// so plain text like "AT&T" survives the round trip.
		cleaned = html.UnescapeString(s.policy.Sanitize(text))
	}

	// Pattern stripping runs unconditionally and loops to a fixed point:
	// removing an inner tag can splice the surrounding text into a new tag
	// or scheme substring, and nested payloads leave bracket fragments a
	// single pass misses. Stray brackets are dropped outright so no pass
	// order can leave markup characters behind.
	for {
		next := cleaned
		for _, n := range neutralizers {
			next = n.ReplaceAllString(next, "")
		}
		next = tagPattern.ReplaceAllString(next, "")
		next = strings.ReplaceAll(next, "<", "")
		next = strings.ReplaceAll(next, ">", "")
		if next == cleaned {
			break
		}
		cleaned = next
	}

	return strings.TrimSpace(cleaned)
}

// ContainsHTML reports whether sanitizing would alter text, OR-ed with the
// threat signature check. Mutators that must reject rather than silently
// clean use this as their gate.
func (s *Sanitizer) ContainsHTML(text string) bool {
	if text == "" {
		return false
	}
	if ThreatMatch(text) {
		return true
	}
	if s.policy == nil {
		return false
	}
	cleaned := html.UnescapeString(s.policy.Sanitize(text))
	return strings.TrimSpace(cleaned) != strings.TrimSpace(text)
}
