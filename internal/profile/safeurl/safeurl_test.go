package safeurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafe(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty string", "", false},
		{"whitespace only", "   ", false},
		{"https URL", "https://example.com/avatar.png", true},
		{"https uppercase scheme", "HTTPS://example.com/a.png", true},
		{"https with query", "https://cdn.example.com/a?size=128", true},
		{"plain http rejected", "http://example.com/a.png", false},
		{"javascript scheme", "javascript:alert(1)", false},
		{"javascript mixed case", "JaVaScRiPt:alert(1)", false},
		{"vbscript scheme", "vbscript:msgbox(1)", false},
		{"file scheme", "file:///etc/passwd", false},
		{"ftp scheme", "ftp://example.com/a", false},
		{"scheme relative", "//example.com/a.png", false},
		{"relative path", "/images/a.png", false},
		{"data image png", "data:image/png;base64,iVBORw0KGgo=", true},
		{"data image jpeg", "data:image/jpeg;base64,/9j/4AAQSkZJRg==", true},
		{"data uppercase media type", "data:IMAGE/PNG;base64,iVBORw0KGgo=", true},
		{"data text html", "data:text/html,<script>alert(1)</script>", false},
		{"data svg", "data:image/svg+xml;base64,PHN2Zz4=", false},
		{"data image without base64", "data:image/png,rawbytes", false},
		{"embedded whitespace", "https://example.com/a b.png", false},
		{"https without host", "https://", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafe(tt.input))
		})
	}
}
