// Package safeurl enforces the protocol allowlist for profile fields that are
// interpreted as links. URIs are never cleaned, only accepted or rejected.
package safeurl

import (
	"net/url"
	"regexp"
	"strings"
)

// Only base64 image payloads are allowed through the data scheme; anything
// that can carry markup (text/html, svg) stays out.
var dataImagePattern = regexp.MustCompile(`^(?i:data:image/(?:png|gif|jpe?g|webp|bmp|x-icon);base64,)[A-Za-z0-9+/]+={0,2}$`)

// IsSafe reports whether value uses an allowlisted, non-executable scheme:
// https, or a base64-encoded data image URI. Everything else is rejected,
// explicitly including javascript: and scheme-relative values.
func IsSafe(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	if strings.ContainsAny(v, " \t\n\r") {
		return false
	}

	if strings.HasPrefix(strings.ToLower(v), "data:") {
		return dataImagePattern.MatchString(v)
	}

	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, "https") && u.Host != ""
}
