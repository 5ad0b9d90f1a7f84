package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientInfo(t *testing.T) {
	capture := func(got *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*got = GetClientInfo(r.Context())
		})
	}

	t.Run("parses browser and OS from the user agent", func(t *testing.T) {
		var got string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

		ClientInfo(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, got, "Chrome/120")
		assert.Contains(t, got, "Linux")
	})

	t.Run("missing user agent leaves the context empty", func(t *testing.T) {
		var got string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Del("User-Agent")

		ClientInfo(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.Empty(t, got)
	})
}
